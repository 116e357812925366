package contract

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// Method builds the go-ethereum method for a function entry.
func (e ABIEntry) Method() (abi.Method, error) {
	inputs, err := arguments(e.Inputs)
	if err != nil {
		return abi.Method{}, err
	}
	outputs, err := arguments(e.Outputs)
	if err != nil {
		return abi.Method{}, err
	}
	return abi.NewMethod(e.Name, e.Name, abi.Function, e.Mutability(), e.IsReadFunction(), e.IsPayable(), inputs, outputs), nil
}

func arguments(params []ABIParam) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(params))
	for _, p := range params {
		typStr := p.Type
		if !strings.HasPrefix(typStr, "tuple") {
			typStr = p.canonicalType()
		}
		typ, err := abi.NewType(typStr, "", marshaling(p.Components))
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeParse, fmt.Sprintf("unsupported parameter type %q", p.Type), err)
		}
		args = append(args, abi.Argument{Name: p.Name, Type: typ})
	}
	return args, nil
}

func marshaling(components []ABIParam) []abi.ArgumentMarshaling {
	if len(components) == 0 {
		return nil
	}
	out := make([]abi.ArgumentMarshaling, len(components))
	for i, c := range components {
		typ := c.Type
		if !strings.HasPrefix(typ, "tuple") {
			typ = c.canonicalType()
		}
		out[i] = abi.ArgumentMarshaling{Name: c.Name, Type: typ, Components: marshaling(c.Components)}
	}
	return out
}

// Pack builds calldata (selector plus encoded arguments) using the
// permissive codec for array elements.
func Pack(e ABIEntry, args []codec.Value) ([]byte, error) {
	return PackWith(codec.Codec{}, e, args)
}

// PackWith builds calldata. Array elements arrive as strings and are coerced
// with c against the element type here. args must line up one-to-one with
// the entry's inputs.
func PackWith(c codec.Codec, e ABIEntry, args []codec.Value) ([]byte, error) {
	method, err := e.Method()
	if err != nil {
		return nil, err
	}
	if len(args) != len(method.Inputs) {
		return nil, clierr.Newf(clierr.CodeInternal, "%s expects %d arguments, got %d", e.Name, len(method.Inputs), len(args))
	}

	values := make([]any, len(args))
	for i, in := range method.Inputs {
		v, err := toABIValue(c, in.Type, args[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	packed, err := method.Inputs.Pack(values...)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeParse, fmt.Sprintf("encoding arguments for %s", e.Signature()), err)
	}
	return append(append([]byte{}, method.ID...), packed...), nil
}

// coerce re-encodes a string with the codec rules for t. Array elements and
// fixed-size arrays reach the packer in this form.
func coerce(c codec.Codec, t abi.Type, v codec.Value) (codec.Value, error) {
	s, ok := v.(codec.StringValue)
	if !ok {
		return v, nil
	}
	if t.T == abi.ArrayTy {
		elem := codec.ParseTypeTag(t.Elem.String())
		return c.Encode(string(s), codec.TypeTag{Kind: codec.KindArray, Elem: &elem, Raw: t.String()})
	}
	return c.Encode(string(s), codec.ParseTypeTag(t.String()))
}

func toABIValue(c codec.Codec, t abi.Type, v codec.Value) (any, error) {
	v, err := coerce(c, t, v)
	if err != nil {
		return nil, err
	}

	switch t.T {
	case abi.IntTy, abi.UintTy:
		iv, ok := v.(codec.IntValue)
		if !ok {
			return nil, mismatch(t, v)
		}
		return sizedInt(t, iv.V), nil

	case abi.BoolTy:
		bv, ok := v.(codec.BoolValue)
		if !ok {
			return nil, mismatch(t, v)
		}
		return bool(bv), nil

	case abi.AddressTy:
		s := codec.Decode(v)
		if !common.IsHexAddress(s) {
			return nil, clierr.Newf(clierr.CodeParse, "invalid address value %q", s)
		}
		return common.HexToAddress(s), nil

	case abi.StringTy:
		return codec.Decode(v), nil

	case abi.BytesTy:
		bv, ok := v.(codec.BytesValue)
		if !ok {
			return nil, mismatch(t, v)
		}
		return []byte(bv), nil

	case abi.FixedBytesTy:
		bv, ok := v.(codec.BytesValue)
		if !ok {
			return nil, mismatch(t, v)
		}
		if len(bv) != t.Size {
			return nil, clierr.Newf(clierr.CodeParse, "invalid %s value: expected %d bytes, got %d", t.String(), t.Size, len(bv))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf([]byte(bv)))
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		seq, ok := v.(codec.SequenceValue)
		if !ok {
			return nil, mismatch(t, v)
		}
		if t.T == abi.ArrayTy && len(seq) != t.Size {
			return nil, clierr.Newf(clierr.CodeParse, "invalid %s value: expected %d elements, got %d", t.String(), t.Size, len(seq))
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(seq), len(seq))
		} else {
			out = reflect.New(t.GetType()).Elem()
		}
		for i, elem := range seq {
			ev, err := toABIValue(c, *t.Elem, elem)
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(reflect.ValueOf(ev))
		}
		return out.Interface(), nil
	}
	return nil, clierr.Newf(clierr.CodeParse, "parameters of type %s cannot be entered interactively", t.String())
}

// sizedInt converts n to the Go type go-ethereum uses for t: native ints up
// to 64 bits, *big.Int above that.
func sizedInt(t abi.Type, n *big.Int) any {
	goType := t.GetType()
	if goType == bigIntType {
		return n
	}
	rv := reflect.New(goType).Elem()
	if t.T == abi.IntTy {
		rv.SetInt(n.Int64())
	} else {
		rv.SetUint(n.Uint64())
	}
	return rv.Interface()
}

func mismatch(t abi.Type, v codec.Value) error {
	return clierr.Newf(clierr.CodeParse, "value %q does not fit parameter type %s", codec.Decode(v), t.String())
}

// UnpackResults decodes return data for display. Entries without declared
// outputs show the raw hex.
func UnpackResults(e ABIEntry, data []byte) ([]string, error) {
	if len(e.Outputs) == 0 {
		return []string{hexutil.Encode(data)}, nil
	}
	method, err := e.Method()
	if err != nil {
		return nil, err
	}
	values, err := method.Outputs.Unpack(data)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeNetwork, "decoding call result", err)
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = codec.Decode(FromABIValue(v))
	}
	return out, nil
}

// FromABIValue maps a value produced by the go-ethereum unpacker back into
// the codec union.
func FromABIValue(v any) codec.Value {
	switch val := v.(type) {
	case *big.Int:
		return codec.IntValue{V: val}
	case bool:
		return codec.BoolValue(val)
	case string:
		return codec.StringValue(val)
	case common.Address:
		return codec.StringValue(val.Hex())
	case []byte:
		return codec.BytesValue(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return codec.IntValue{V: big.NewInt(rv.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return codec.IntValue{V: new(big.Int).SetUint64(rv.Uint())}
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return codec.BytesValue(b)
		}
		fallthrough
	case reflect.Slice:
		seq := make(codec.SequenceValue, rv.Len())
		for i := range seq {
			seq[i] = FromABIValue(rv.Index(i).Interface())
		}
		return seq
	}
	return codec.StringValue(fmt.Sprint(v))
}
