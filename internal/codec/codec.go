package codec

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// Codec converts operator-typed strings into Values.
//
// Rules are applied in a fixed order: array, integer, bool, bytes, then
// passthrough. Only the integer and bytes rules can fail. With StrictBool
// unset, any bool input other than a case-insensitive "true" encodes as false.
type Codec struct {
	StrictBool bool
}

// Encode converts raw using the permissive Codec.
func Encode(raw string, tag TypeTag) (Value, error) {
	return Codec{}.Encode(raw, tag)
}

func (c Codec) Encode(raw string, tag TypeTag) (Value, error) {
	switch tag.Kind {
	case KindArray:
		return splitArray(raw), nil
	case KindUint, KindInt:
		return parseInteger(raw, tag)
	case KindBool:
		return c.parseBool(raw, tag)
	case KindBytes, KindFixedBytes:
		return parseBytes(raw, tag)
	default:
		return StringValue(raw), nil
	}
}

func parseInteger(raw string, tag TypeTag) (Value, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, parseError(raw, tag, "expected a base-10 integer")
	}
	if err := checkRange(n, tag); err != nil {
		return nil, parseError(raw, tag, err.Error())
	}
	return IntValue{V: n}, nil
}

// checkRange verifies that n fits the declared width.
func checkRange(n *big.Int, tag TypeTag) error {
	bits := tag.Size
	if bits == 0 {
		bits = 256
	}
	if tag.Kind == KindUint {
		if n.Sign() < 0 {
			return fmt.Errorf("negative value for unsigned type")
		}
		if n.BitLen() > bits {
			return fmt.Errorf("value exceeds %d bits", bits)
		}
		return nil
	}
	mag := n
	if n.Sign() < 0 {
		mag = new(big.Int).Neg(n)
		mag.Sub(mag, big.NewInt(1))
	}
	if mag.BitLen() > bits-1 {
		return fmt.Errorf("value out of range for %d-bit signed integer", bits)
	}
	return nil
}

func (c Codec) parseBool(raw string, tag TypeTag) (Value, error) {
	if strings.EqualFold(raw, "true") {
		return BoolValue(true), nil
	}
	if c.StrictBool && !strings.EqualFold(raw, "false") {
		return nil, parseError(raw, tag, "expected true or false")
	}
	return BoolValue(false), nil
}

func parseBytes(raw string, tag TypeTag) (Value, error) {
	b, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil {
		return nil, parseError(raw, tag, err.Error())
	}
	if tag.Kind == KindFixedBytes && len(b) != tag.Size {
		return nil, parseError(raw, tag, fmt.Sprintf("%d bytes given, exactly %d required", len(b), tag.Size))
	}
	return BytesValue(b), nil
}

// splitArray accepts a JSON array or a comma-separated list. Elements are
// kept as strings; they are coerced to the element type when packed.
func splitArray(raw string) SequenceValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SequenceValue{}
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err == nil && !dec.More() {
		items, ok := parsed.([]any)
		if !ok {
			return SequenceValue{StringValue(jsonText(parsed))}
		}
		seq := make(SequenceValue, len(items))
		for i, item := range items {
			seq[i] = StringValue(jsonText(item))
		}
		return seq
	}

	parts := strings.Split(s, ",")
	seq := make(SequenceValue, len(parts))
	for i, p := range parts {
		seq[i] = StringValue(strings.TrimSpace(p))
	}
	return seq
}

func jsonText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case json.Number:
		return e.String()
	case bool:
		return strconv.FormatBool(e)
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprint(e)
		}
		return string(b)
	}
}

func parseError(raw string, tag TypeTag, reason string) error {
	return clierr.Newf(clierr.CodeParse, "invalid %s value %q: %s", tag.Raw, raw, reason)
}
