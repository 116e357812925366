package codec

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Value is an encoded argument. The set of implementations is closed:
// IntValue, BoolValue, BytesValue, StringValue and SequenceValue.
type Value interface {
	isValue()
}

type IntValue struct{ V *big.Int }

type BoolValue bool

type BytesValue []byte

type StringValue string

type SequenceValue []Value

func (IntValue) isValue()      {}
func (BoolValue) isValue()     {}
func (BytesValue) isValue()    {}
func (StringValue) isValue()   {}
func (SequenceValue) isValue() {}

// Decode renders v for display. Integers are printed in base 10 without any
// floating point conversion.
func Decode(v Value) string {
	switch val := v.(type) {
	case IntValue:
		if val.V == nil {
			return "0"
		}
		return val.V.String()
	case BoolValue:
		return strconv.FormatBool(bool(val))
	case BytesValue:
		return hexutil.Encode(val)
	case StringValue:
		return string(val)
	case SequenceValue:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Decode(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}
