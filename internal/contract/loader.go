package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// BuiltinPrefix selects an embedded ABI instead of a file, e.g. builtin:erc20.
const BuiltinPrefix = "builtin:"

// LoadSource resolves an ABI source argument. An empty source means the
// operator will type a signature, so it returns (nil, nil).
func LoadSource(source string) ([]ABIEntry, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, nil
	case strings.HasPrefix(source, BuiltinPrefix):
		id := strings.TrimPrefix(source, BuiltinPrefix)
		b, ok := GetBuiltin(id)
		if !ok {
			return nil, clierr.Newf(clierr.CodeABILoad, "unknown built-in ABI %q (available: %s)", id, strings.Join(BuiltinIDs(), ", "))
		}
		return b.ABI, nil
	default:
		return LoadFromArtifact(source)
	}
}

// LoadFromArtifact loads an ABI from a local file that is either:
//   - a raw ABI JSON array: [{"type":"function",...}, ...]
//   - a Hardhat/Foundry artifact: {"abi":[...],"bytecode":"0x...",...}
//
// Both formats are detected automatically.
func LoadFromArtifact(path string) ([]ABIEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeABILoad, "failed to load ABI file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, clierr.Newf(clierr.CodeABILoad, "ABI file is empty: %s", path)
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if json.Unmarshal(data, &artifact) == nil && len(artifact.ABI) > 1 && artifact.ABI[0] == '[' {
		data = artifact.ABI
	}

	abi, err := parseABI(data)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeABILoad, "failed to load ABI file", err)
	}
	if err := validateABI(abi, path); err != nil {
		return nil, clierr.Wrap(clierr.CodeABILoad, "failed to load ABI file", err)
	}
	return abi, nil
}

func parseABI(data []byte) ([]ABIEntry, error) {
	var abi []ABIEntry
	if err := json.Unmarshal(data, &abi); err != nil {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			return nil, fmt.Errorf("file is a JSON object, not an ABI array; a Hardhat/Foundry artifact must have an \"abi\" key")
		}
		return nil, fmt.Errorf("invalid ABI JSON: %w", err)
	}
	return abi, nil
}

// validateABI checks that the parsed ABI has at least one function.
func validateABI(abi []ABIEntry, path string) error {
	if len(abi) == 0 {
		return fmt.Errorf("ABI is empty: %s", path)
	}
	if len(Functions(abi)) == 0 {
		return fmt.Errorf("ABI has %d entries but no functions: %s", len(abi), path)
	}
	return nil
}
