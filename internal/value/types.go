package value

import (
	"fmt"
	"strings"

	"github.com/roach88/rcore/internal/ir"
)

// Type is the declared type of a node: a scalar, a fixed-length homogeneous
// array, or a composite of heterogeneous fields. Types are immutable values.
type Type struct {
	kind      ir.Kind
	elem      *Type  // arrays
	length    int    // arrays
	fields    []Type // composites
	composite bool
}

var (
	// Bool is the boolean type.
	Bool = Type{kind: ir.KindBool}
	// Int is the 64-bit integer type.
	Int = Type{kind: ir.KindInt}
	// Double is the double-precision type.
	Double = Type{kind: ir.KindDouble}
)

// ArrayOf returns the type of arrays holding n elements of elem.
func ArrayOf(elem Type, n int) Type {
	e := elem
	return Type{kind: ir.KindArray, elem: &e, length: n}
}

// CompositeOf returns the type of composites with the given field types,
// e.g. a transform as CompositeOf(ArrayOf(Double, 3), ArrayOf(Double, 4)).
func CompositeOf(fields ...Type) Type {
	fs := make([]Type, len(fields))
	copy(fs, fields)
	return Type{kind: ir.KindArray, fields: fs, composite: true}
}

// Kind returns the wire kind that carries values of this type.
func (t Type) Kind() ir.Kind { return t.kind }

// IsNumeric reports whether t is Int or Double.
func (t Type) IsNumeric() bool { return t.kind == ir.KindInt || t.kind == ir.KindDouble }

// IsArray reports whether t is a homogeneous array type.
func (t Type) IsArray() bool { return t.kind == ir.KindArray && !t.composite }

// IsComposite reports whether t is a composite type.
func (t Type) IsComposite() bool { return t.composite }

// Elem returns the element type of an array type.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Len returns the element count of an array type or the field count of a
// composite type.
func (t Type) Len() int {
	if t.composite {
		return len(t.fields)
	}
	return t.length
}

// Field returns the i-th field type of a composite.
func (t Type) Field(i int) Type { return t.fields[i] }

// String renders the canonical type name, e.g. "array<double,3>".
// It is part of node identity.
func (t Type) String() string {
	switch {
	case t.composite:
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.String()
		}
		return "composite<" + strings.Join(parts, ",") + ">"
	case t.kind == ir.KindArray:
		return fmt.Sprintf("array<%s,%d>", t.Elem(), t.length)
	default:
		return t.kind.String()
	}
}

// Equal reports structural type equality.
func (t Type) Equal(o Type) bool { return t.String() == o.String() }

// Accepts reports whether v is a value of type t.
func (t Type) Accepts(v ir.Value) bool {
	if v == nil || v.Kind() != t.kind {
		return false
	}
	switch {
	case t.composite:
		arr := v.(ir.Array)
		if len(arr) != len(t.fields) {
			return false
		}
		for i, f := range t.fields {
			if !f.Accepts(arr[i]) {
				return false
			}
		}
	case t.kind == ir.KindArray:
		arr := v.(ir.Array)
		if len(arr) != t.length {
			return false
		}
		for _, e := range arr {
			if !t.elem.Accepts(e) {
				return false
			}
		}
	}
	return true
}

// Zero returns the zero value of t.
func (t Type) Zero() ir.Value {
	switch {
	case t.composite:
		arr := make(ir.Array, len(t.fields))
		for i, f := range t.fields {
			arr[i] = f.Zero()
		}
		return arr
	case t.kind == ir.KindArray:
		arr := make(ir.Array, t.length)
		for i := range arr {
			arr[i] = t.elem.Zero()
		}
		return arr
	default:
		return ir.Zero(t.kind)
	}
}

// coerce widens v to t where the wire contract allows it (int to double,
// element-wise for arrays) and reports whether the result is a value of t.
func (t Type) coerce(v ir.Value) (ir.Value, bool) {
	if t.Accepts(v) {
		return v, true
	}
	if v == nil {
		return nil, false
	}
	if t.kind == ir.KindDouble {
		if cv, err := ir.Coerce(v, ir.KindDouble); err == nil {
			return cv, true
		}
		return nil, false
	}
	arr, ok := v.(ir.Array)
	if !ok || t.kind != ir.KindArray || len(arr) != t.Len() {
		return nil, false
	}
	out := make(ir.Array, len(arr))
	for i, e := range arr {
		et := t.Elem()
		if t.composite {
			et = t.fields[i]
		}
		ce, ok := et.coerce(e)
		if !ok {
			return nil, false
		}
		out[i] = ce
	}
	return out, true
}

// TypeOf infers the type of a wire value. Homogeneous arrays become array
// types; heterogeneous or empty-of-mixed arrays become composites.
func TypeOf(v ir.Value) (Type, error) {
	switch val := v.(type) {
	case nil:
		return Type{}, fmt.Errorf("no value has no type")
	case ir.Bool:
		return Bool, nil
	case ir.Int:
		return Int, nil
	case ir.Double:
		return Double, nil
	case ir.Array:
		if len(val) == 0 {
			return ArrayOf(Double, 0), nil
		}
		types := make([]Type, len(val))
		homogeneous := true
		for i, e := range val {
			et, err := TypeOf(e)
			if err != nil {
				return Type{}, fmt.Errorf("[%d]: %w", i, err)
			}
			types[i] = et
			if !et.Equal(types[0]) {
				homogeneous = false
			}
		}
		if homogeneous {
			return ArrayOf(types[0], len(val)), nil
		}
		return CompositeOf(types...), nil
	}
	return Type{}, fmt.Errorf("unsupported value %T", v)
}
