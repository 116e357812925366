package codec

import (
	"strconv"
	"strings"
)

// Kind is the closed set of parameter type families the codec understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindAddress
	KindBool
	KindString
	KindBytes
	KindFixedBytes
	KindUint
	KindInt
	KindArray
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindAddress:    "address",
	KindBool:       "bool",
	KindString:     "string",
	KindBytes:      "bytes",
	KindFixedBytes: "fixed-bytes",
	KindUint:       "uint",
	KindInt:        "int",
	KindArray:      "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// TypeTag is a parsed parameter type. Size is the bit width for integers and
// the byte length for fixed bytes. Elem is set only for dynamic arrays.
type TypeTag struct {
	Kind Kind
	Size int
	Elem *TypeTag
	Raw  string
}

func (t TypeTag) String() string { return t.Raw }

// IsInteger reports whether the tag is a signed or unsigned integer.
func (t TypeTag) IsInteger() bool { return t.Kind == KindUint || t.Kind == KindInt }

// ParseTypeTag classifies a type string such as "uint256", "bytes32" or
// "address[]". Anything it does not recognise (tuples, fixed-size arrays,
// function types) becomes KindUnknown and is passed through untouched.
func ParseTypeTag(raw string) TypeTag {
	s := strings.TrimSpace(raw)
	tag := TypeTag{Kind: KindUnknown, Raw: s}

	switch {
	case strings.HasSuffix(s, "[]"):
		elem := ParseTypeTag(s[:len(s)-2])
		tag.Kind = KindArray
		tag.Elem = &elem
	case strings.HasSuffix(s, "]"):
		// T[k] keeps its raw form.
	case s == "address":
		tag.Kind = KindAddress
	case s == "bool":
		tag.Kind = KindBool
	case s == "string":
		tag.Kind = KindString
	case s == "bytes":
		tag.Kind = KindBytes
	case strings.HasPrefix(s, "bytes"):
		if n, ok := width(s[len("bytes"):], 1, 32, 1); ok {
			tag.Kind, tag.Size = KindFixedBytes, n
		}
	case strings.HasPrefix(s, "uint"):
		if n, ok := intWidth(s[len("uint"):]); ok {
			tag.Kind, tag.Size = KindUint, n
		}
	case strings.HasPrefix(s, "int"):
		if n, ok := intWidth(s[len("int"):]); ok {
			tag.Kind, tag.Size = KindInt, n
		}
	}
	return tag
}

func intWidth(suffix string) (int, bool) {
	if suffix == "" {
		return 256, true
	}
	return width(suffix, 8, 256, 8)
}

func width(suffix string, lo, hi, step int) (int, bool) {
	n, err := strconv.Atoi(suffix)
	if err != nil || n < lo || n > hi || n%step != 0 {
		return 0, false
	}
	return n, true
}
