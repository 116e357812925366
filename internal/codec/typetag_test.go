package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
		size int
	}{
		{"address", KindAddress, 0},
		{"bool", KindBool, 0},
		{"string", KindString, 0},
		{"bytes", KindBytes, 0},
		{"bytes32", KindFixedBytes, 32},
		{"bytes1", KindFixedBytes, 1},
		{"uint256", KindUint, 256},
		{"uint", KindUint, 256},
		{"uint8", KindUint, 8},
		{"int128", KindInt, 128},
		{"int", KindInt, 256},
		{"bytes33", KindUnknown, 0},
		{"uint7", KindUnknown, 0},
		{"uint264", KindUnknown, 0},
		{"(address,uint256)", KindUnknown, 0},
		{"uint256[3]", KindUnknown, 0},
		{"function", KindUnknown, 0},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			tag := ParseTypeTag(tc.raw)
			assert.Equal(t, tc.kind, tag.Kind)
			assert.Equal(t, tc.size, tag.Size)
			assert.Equal(t, tc.raw, tag.String())
		})
	}
}

func TestParseTypeTagArray(t *testing.T) {
	tag := ParseTypeTag("uint256[]")
	require.Equal(t, KindArray, tag.Kind)
	require.NotNil(t, tag.Elem)
	assert.Equal(t, KindUint, tag.Elem.Kind)
	assert.Equal(t, 256, tag.Elem.Size)

	nested := ParseTypeTag("address[][]")
	require.Equal(t, KindArray, nested.Kind)
	require.Equal(t, KindArray, nested.Elem.Kind)
	assert.Equal(t, KindAddress, nested.Elem.Elem.Kind)
}

func TestIsInteger(t *testing.T) {
	assert.True(t, ParseTypeTag("uint64").IsInteger())
	assert.True(t, ParseTypeTag("int8").IsInteger())
	assert.False(t, ParseTypeTag("address").IsInteger())
	assert.False(t, ParseTypeTag("uint256[]").IsInteger())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fixed-bytes", KindFixedBytes.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
