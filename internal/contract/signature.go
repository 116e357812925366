package contract

import (
	"fmt"
	"regexp"
	"strings"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ParseSignature turns a typed signature into a function entry.
//
// Accepted forms:
//
//	transfer(address,uint256)
//	transfer(address to, uint256 amount)
//	function balanceOf(address) view returns (uint256)
//
// Unnamed inputs are called param0, param1, ... and the mutability defaults
// to nonpayable.
func ParseSignature(sig string) (ABIEntry, error) {
	s := strings.TrimSpace(sig)
	s = strings.TrimSpace(strings.TrimPrefix(s, "function "))

	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return ABIEntry{}, signatureError(sig, "expected functionName(type1,type2,...)")
	}
	name := strings.TrimSpace(s[:open])
	if !identRe.MatchString(name) {
		return ABIEntry{}, signatureError(sig, fmt.Sprintf("invalid function name %q", name))
	}
	end, err := matchParen(s, open)
	if err != nil {
		return ABIEntry{}, signatureError(sig, err.Error())
	}
	inputs, err := parseParams(s[open+1:end], true)
	if err != nil {
		return ABIEntry{}, signatureError(sig, err.Error())
	}

	entry := ABIEntry{
		Name:            name,
		Type:            "function",
		Inputs:          inputs,
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonPayable,
	}

	rest := strings.TrimSpace(s[end+1:])
	for rest != "" {
		word, tail := nextWord(rest)
		switch word {
		case MutabilityView, MutabilityPure, MutabilityPayable, MutabilityNonPayable:
			entry.StateMutability = word
			rest = tail
		case "external", "public":
			rest = tail
		case "returns":
			if !strings.HasPrefix(tail, "(") {
				return ABIEntry{}, signatureError(sig, "returns must be followed by a parameter list")
			}
			rparen, err := matchParen(tail, 0)
			if err != nil {
				return ABIEntry{}, signatureError(sig, err.Error())
			}
			if entry.Outputs, err = parseParams(tail[1:rparen], false); err != nil {
				return ABIEntry{}, signatureError(sig, err.Error())
			}
			rest = strings.TrimSpace(tail[rparen+1:])
		default:
			return ABIEntry{}, signatureError(sig, fmt.Sprintf("unexpected %q after parameter list", word))
		}
	}
	return entry, nil
}

func nextWord(s string) (string, string) {
	i := strings.IndexAny(s, " \t(")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// matchParen returns the index of the parenthesis closing the one at open.
func matchParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced parentheses")
}

// splitTopLevel splits on commas that are not nested inside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

var dataLocations = map[string]bool{"memory": true, "calldata": true, "storage": true, "indexed": true}

func parseParams(list string, autoName bool) ([]ABIParam, error) {
	params := []ABIParam{}
	for _, raw := range splitTopLevel(list) {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}

		var typ, remainder string
		if strings.HasPrefix(part, "(") {
			rparen, err := matchParen(part, 0)
			if err != nil {
				return nil, err
			}
			typ, remainder = nextWord(part[rparen+1:])
			typ = part[:rparen+1] + typ
			if strings.HasPrefix(remainder, "(") {
				return nil, fmt.Errorf("malformed parameter %q", part)
			}
		} else {
			fields := strings.Fields(part)
			typ, remainder = fields[0], strings.Join(fields[1:], " ")
		}

		var name string
		for _, f := range strings.Fields(remainder) {
			if dataLocations[f] {
				continue
			}
			if name != "" || !identRe.MatchString(f) {
				return nil, fmt.Errorf("malformed parameter %q", part)
			}
			name = f
		}
		if name == "" && autoName {
			name = fmt.Sprintf("param%d", len(params))
		}
		params = append(params, ABIParam{Name: name, Type: typ})
	}
	return params, nil
}

func signatureError(sig, reason string) error {
	return clierr.Newf(clierr.CodeUsage, "invalid function signature %q: %s", sig, reason)
}
