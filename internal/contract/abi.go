package contract

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Mutability values.
const (
	MutabilityPure       = "pure"
	MutabilityView       = "view"
	MutabilityNonPayable = "nonpayable"
	MutabilityPayable    = "payable"
)

// ABIEntry is one ABI entry (function, event, etc.). A function entry is the
// descriptor every invocation works from; it is not modified once resolved.
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Components []ABIParam `json:"components,omitempty"`
}

// Mutability returns the state mutability, defaulting to nonpayable.
func (e ABIEntry) Mutability() string {
	if e.StateMutability == "" {
		return MutabilityNonPayable
	}
	return e.StateMutability
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	m := e.Mutability()
	return e.Type == "function" && (m == MutabilityView || m == MutabilityPure)
}

// IsPayable returns true if the function accepts native value.
func (e ABIEntry) IsPayable() bool {
	return e.Mutability() == MutabilityPayable
}

// ParamName returns the declared name of input i, or param<i> when unnamed.
func (e ABIEntry) ParamName(i int) string {
	if i < len(e.Inputs) && e.Inputs[i].Name != "" {
		return e.Inputs[i].Name
	}
	return fmt.Sprintf("param%d", i)
}

// Signature returns the canonical signature, e.g. transfer(address,uint256).
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.canonicalType()
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 0x-prefixed 4-byte function selector.
func (e ABIEntry) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(e.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// Display renders the entry for menus: name(type name, ...).
func (e ABIEntry) Display() string {
	params := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		params[i] = strings.TrimSpace(p.Type + " " + p.Name)
	}
	return e.Name + "(" + strings.Join(params, ", ") + ")"
}

func (p ABIParam) canonicalType() string {
	base, suffix := splitArraySuffix(p.Type)
	switch {
	case strings.HasPrefix(base, "tuple"):
		parts := make([]string, len(p.Components))
		for i, c := range p.Components {
			parts[i] = c.canonicalType()
		}
		return "(" + strings.Join(parts, ",") + ")" + suffix
	case base == "uint":
		return "uint256" + suffix
	case base == "int":
		return "int256" + suffix
	}
	return p.Type
}

// splitArraySuffix splits "uint[2][]" into "uint" and "[2][]".
func splitArraySuffix(t string) (string, string) {
	if strings.HasPrefix(t, "(") {
		return t, ""
	}
	if i := strings.IndexByte(t, '['); i > 0 {
		return t[:i], t[i:]
	}
	return t, ""
}

// Functions returns the function entries of an ABI in declaration order.
func Functions(abi []ABIEntry) []ABIEntry {
	var out []ABIEntry
	for _, e := range abi {
		if e.Type == "function" {
			out = append(out, e)
		}
	}
	return out
}

// FindFunctions returns every overload named name.
func FindFunctions(abi []ABIEntry, name string) []ABIEntry {
	var out []ABIEntry
	for _, e := range Functions(abi) {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
