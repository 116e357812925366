// Package selector resolves which contract function to invoke and collects
// its arguments from the operator.
package selector

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	"github.com/Mohsinsiddi/w3invoke/internal/contract"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
)

const signaturePrompt = "Enter function signature (e.g., transfer(address,uint256)):"

// PickFunc shows an interactive list and returns the chosen index, or -1
// when the operator cancels.
type PickFunc func(title string, items []ui.PickerItem) (int, error)

// Selector resolves a function descriptor and its arguments.
type Selector struct {
	Prompter ui.Prompter
	Console  *ui.Console
	Codec    codec.Codec
	// Pick replaces the numbered menu when set.
	Pick PickFunc
	Log  *zap.Logger
}

// Resolve picks the function to invoke. With no ABI the operator types a
// signature, unless name already is one. With an ABI, name (when given)
// selects by function name or by full signature; otherwise a menu is shown.
func (s *Selector) Resolve(abi []contract.ABIEntry, name string) (contract.ABIEntry, error) {
	name = strings.TrimSpace(name)

	if len(abi) == 0 {
		sig := name
		if !strings.Contains(sig, "(") {
			answer, err := s.Prompter.Ask(signaturePrompt)
			if err != nil {
				return contract.ABIEntry{}, err
			}
			sig = answer
		}
		entry, err := contract.ParseSignature(sig)
		if err != nil {
			return contract.ABIEntry{}, err
		}
		s.logger().Debug("parsed manual signature", zap.String("signature", entry.Signature()), zap.String("selector", entry.Selector()))
		return entry, nil
	}

	fns := contract.Functions(abi)
	if len(fns) == 0 {
		return contract.ABIEntry{}, clierr.New(clierr.CodeABILoad, "no functions found in ABI")
	}

	switch {
	case name == "":
		return s.menu(fns)
	case strings.Contains(name, "("):
		return bySignature(fns, name)
	}

	matches := contract.FindFunctions(fns, name)
	switch len(matches) {
	case 0:
		return contract.ABIEntry{}, clierr.Newf(clierr.CodeUsage, "function %q not found in ABI", name)
	case 1:
		return matches[0], nil
	default:
		s.Console.Info("%s has %d overloads", name, len(matches))
		return s.menu(matches)
	}
}

func bySignature(fns []contract.ABIEntry, sig string) (contract.ABIEntry, error) {
	want, err := contract.ParseSignature(sig)
	if err != nil {
		return contract.ABIEntry{}, err
	}
	for _, fn := range fns {
		if fn.Signature() == want.Signature() {
			return fn, nil
		}
	}
	return contract.ABIEntry{}, clierr.Newf(clierr.CodeUsage, "function %s not found in ABI", want.Signature())
}

func tag(fn contract.ABIEntry) string {
	if fn.IsReadFunction() {
		return "[VIEW]"
	}
	return "[WRITE]"
}

func (s *Selector) menu(fns []contract.ABIEntry) (contract.ABIEntry, error) {
	if s.Pick != nil {
		items := make([]ui.PickerItem, len(fns))
		for i, fn := range fns {
			items[i] = ui.PickerItem{Label: fn.Display(), SubLabel: tag(fn)}
		}
		idx, err := s.Pick("Select function", items)
		if err != nil {
			return contract.ABIEntry{}, clierr.Wrap(clierr.CodeInternal, "function picker", err)
		}
		if idx < 0 || idx >= len(fns) {
			return contract.ABIEntry{}, clierr.New(clierr.CodeUsage, "function selection cancelled")
		}
		return fns[idx], nil
	}

	s.Console.Info("Available functions:")
	for i, fn := range fns {
		s.Console.Println(fmt.Sprintf("%d) %s %s", i+1, fn.Display(), tag(fn)))
	}
	answer, err := s.Prompter.Ask(fmt.Sprintf("Select function (1-%d):", len(fns)))
	if err != nil {
		return contract.ABIEntry{}, err
	}
	choice, convErr := strconv.Atoi(answer)
	if convErr != nil || choice < 1 || choice > len(fns) {
		return contract.ABIEntry{}, clierr.Newf(clierr.CodeUsage, "invalid function selection %q", answer)
	}
	return fns[choice-1], nil
}

// CollectArguments asks for one value per input, in declaration order, and
// stops at the first value that does not parse.
func (s *Selector) CollectArguments(fn contract.ABIEntry) ([]codec.Value, error) {
	args := make([]codec.Value, 0, len(fn.Inputs))
	for i, in := range fn.Inputs {
		name := fn.ParamName(i)
		raw, err := s.Prompter.Ask(fmt.Sprintf("Enter value for %s (%s):", name, in.Type))
		if err != nil {
			return nil, err
		}
		v, err := s.Codec.Encode(raw, codec.ParseTypeTag(in.Type))
		if err != nil {
			s.Console.Error("Error parsing parameter: %v", err)
			return nil, err
		}
		s.Console.Info("Parsed: %s", codec.Decode(v))
		args = append(args, v)
	}
	return args, nil
}

// CollectValue asks how much native currency to attach to a payable call.
// It returns nil for non-payable functions and zero for an empty answer.
func (s *Selector) CollectValue(fn contract.ABIEntry) (*big.Int, error) {
	if !fn.IsPayable() {
		return nil, nil
	}
	raw, err := s.Prompter.Ask("Enter value to send in wei (empty for 0):")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return new(big.Int), nil
	}
	v, err := s.Codec.Encode(raw, codec.ParseTypeTag("uint256"))
	if err != nil {
		return nil, err
	}
	return v.(codec.IntValue).V, nil
}

func (s *Selector) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
