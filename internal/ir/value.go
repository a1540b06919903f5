package ir

import (
	"fmt"
	"math"
)

// Value is a sealed interface over the closed set of wire types.
// Only Bool, Int, Double and Array implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
	Kind() Kind
}

// Kind identifies the wire type of a Value.
type Kind int

const (
	// KindInvalid is the zero Kind; no Value reports it.
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindDouble
	KindArray
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindDouble:  "double",
	KindArray:   "array",
}

// String returns the lower-case kind name used in descriptions and logs.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name ("bool", "int", "double", "array") to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if k != KindInvalid && name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown wire kind %q", s)
}

// Bool is a boolean wire value.
type Bool bool

func (Bool) irValue() {}

// Kind implements Value.
func (Bool) Kind() Kind { return KindBool }

// Int is a 64-bit signed integer wire value. Arithmetic wraps on overflow.
type Int int64

func (Int) irValue() {}

// Kind implements Value.
func (Int) Kind() Kind { return KindInt }

// Double is an IEEE-754 double wire value.
type Double float64

func (Double) irValue() {}

// Kind implements Value.
func (Double) Kind() Kind { return KindDouble }

// Array is an ordered sequence of wire values. Homogeneous arrays model
// vectors and joint sets; heterogeneous arrays model composites (a transform
// as position plus rotation, for example).
type Array []Value

func (Array) irValue() {}

// Kind implements Value.
func (Array) Kind() Kind { return KindArray }

// Zero returns the zero value for a scalar kind and an empty Array for
// KindArray. It returns nil for KindInvalid.
func Zero(k Kind) Value {
	switch k {
	case KindBool:
		return Bool(false)
	case KindInt:
		return Int(0)
	case KindDouble:
		return Double(0)
	case KindArray:
		return Array{}
	default:
		return nil
	}
}

// Equal reports whether two values are identical. Doubles compare by bit
// pattern, so NaN equals an identical NaN and -0 differs from +0. Two nil
// values ("no value") are equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Double:
		bv, ok := b.(Double)
		return ok && math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromAny converts a decoded Go value (from YAML, CUE or JSON) into a Value.
// Accepted inputs: bool, all integer types, float32/float64, []any and Value.
// nil and strings are rejected: wire values carry neither.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil is not a wire value")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return Double(val), nil
	case float64:
		return Double(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported type for wire value: %T", v)
	}
}

// Coerce converts v to kind k where the conversion is lossless by contract:
// Int widens to Double. Any other mismatch is an error.
func Coerce(v Value, k Kind) (Value, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot coerce no value to %s", k)
	}
	if v.Kind() == k {
		return v, nil
	}
	if i, ok := v.(Int); ok && k == KindDouble {
		return Double(i), nil
	}
	return nil, fmt.Errorf("cannot coerce %s to %s", v.Kind(), k)
}

// MarshalText implements encoding.TextMarshaler so kinds render by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
