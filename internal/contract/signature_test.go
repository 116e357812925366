package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

func TestParseSignatureBasic(t *testing.T) {
	e, err := ParseSignature("transfer(address,uint256)")
	require.NoError(t, err)
	assert.Equal(t, "transfer", e.Name)
	assert.Equal(t, "function", e.Type)
	assert.Equal(t, MutabilityNonPayable, e.StateMutability)
	assert.Equal(t, []ABIParam{{Name: "param0", Type: "address"}, {Name: "param1", Type: "uint256"}}, e.Inputs)
	assert.Empty(t, e.Outputs)
	assert.Equal(t, "0xa9059cbb", e.Selector())
}

func TestParseSignatureForms(t *testing.T) {
	tests := []struct {
		name       string
		sig        string
		fn         string
		inputs     []ABIParam
		outputs    []ABIParam
		mutability string
	}{
		{
			name:       "no params",
			sig:        "totalSupply()",
			fn:         "totalSupply",
			inputs:     []ABIParam{},
			outputs:    []ABIParam{},
			mutability: "nonpayable",
		},
		{
			name:       "spaces and names",
			sig:        "  transfer( address to , uint256 amount ) ",
			fn:         "transfer",
			inputs:     []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
			outputs:    []ABIParam{},
			mutability: "nonpayable",
		},
		{
			name:       "human readable view",
			sig:        "function balanceOf(address owner) view returns (uint256)",
			fn:         "balanceOf",
			inputs:     []ABIParam{{Name: "owner", Type: "address"}},
			outputs:    []ABIParam{{Type: "uint256"}},
			mutability: "view",
		},
		{
			name:       "returns without space",
			sig:        "getReserves() external view returns(uint112,uint112,uint32)",
			fn:         "getReserves",
			inputs:     []ABIParam{},
			outputs:    []ABIParam{{Type: "uint112"}, {Type: "uint112"}, {Type: "uint32"}},
			mutability: "view",
		},
		{
			name:       "payable",
			sig:        "deposit() payable",
			fn:         "deposit",
			inputs:     []ABIParam{},
			outputs:    []ABIParam{},
			mutability: "payable",
		},
		{
			name:       "data location",
			sig:        "setName(string calldata name)",
			fn:         "setName",
			inputs:     []ABIParam{{Name: "name", Type: "string"}},
			outputs:    []ABIParam{},
			mutability: "nonpayable",
		},
		{
			name:       "tuple and array",
			sig:        "multicall((address,bytes)[] calls, uint256[] ids)",
			fn:         "multicall",
			inputs:     []ABIParam{{Name: "calls", Type: "(address,bytes)[]"}, {Name: "ids", Type: "uint256[]"}},
			outputs:    []ABIParam{},
			mutability: "nonpayable",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := ParseSignature(tc.sig)
			require.NoError(t, err)
			assert.Equal(t, tc.fn, e.Name)
			assert.Equal(t, tc.inputs, e.Inputs)
			assert.Equal(t, tc.outputs, e.Outputs)
			assert.Equal(t, tc.mutability, e.StateMutability)
		})
	}
}

func TestParseSignatureErrors(t *testing.T) {
	for _, sig := range []string{
		"",
		"transfer",
		"(address)",
		"transfer(address",
		"9lives(uint256)",
		"transfer(address,uint256) banana",
		"f(uint256 a b)",
		"f() returns uint256",
		"f() returns (uint256",
	} {
		t.Run(sig, func(t *testing.T) {
			_, err := ParseSignature(sig)
			require.Error(t, err)
			assert.True(t, clierr.Is(err, clierr.CodeUsage))
		})
	}
}
