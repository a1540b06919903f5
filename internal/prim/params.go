package prim

import (
	"fmt"

	"github.com/roach88/rcore/internal/ir"
)

// Primitive kind names.
const (
	KindConst      = "const"
	KindCounter    = "counter"
	KindSelect     = "select"
	KindIsNull     = "isnull"
	KindSetNull    = "setnull"
	KindDelay      = "delay"
	KindHistory    = "history"
	KindArray      = "array"
	KindIndex      = "index"
	KindSetIndex   = "setindex"
	KindSlice      = "slice"
	KindNetcommIn  = "netcomm_in"
	KindNetcommOut = "netcomm_out"
)

// params reads typed build-time parameters out of a node description.
type params struct {
	node   string
	values map[string]ir.Value
}

func paramsOf(spec ir.NodeSpec) params {
	return params{node: spec.Name, values: spec.Params}
}

func (p params) value(name string) (ir.Value, bool) {
	v, ok := p.values[name]
	return v, ok && v != nil
}

func (p params) int(name string, def int64) (int64, error) {
	v, ok := p.value(name)
	if !ok {
		return def, nil
	}
	i, isInt := v.(ir.Int)
	if !isInt {
		return 0, fmt.Errorf("parameter %q: want int, got %s", name, v.Kind())
	}
	return int64(i), nil
}

func (p params) double(name string) (float64, bool, error) {
	v, ok := p.value(name)
	if !ok {
		return 0, false, nil
	}
	d, err := ir.Coerce(v, ir.KindDouble)
	if err != nil {
		return 0, false, fmt.Errorf("parameter %q: %w", name, err)
	}
	return float64(d.(ir.Double)), true, nil
}

// typed returns the parameter coerced to kind k. KindInvalid accepts any.
func (p params) typed(name string, k ir.Kind) (ir.Value, bool, error) {
	v, ok := p.value(name)
	if !ok {
		return nil, false, nil
	}
	if k == ir.KindInvalid {
		return v, true, nil
	}
	cv, err := ir.Coerce(v, k)
	if err != nil {
		return nil, false, fmt.Errorf("parameter %q: %w", name, err)
	}
	return cv, true, nil
}

func requireType(spec ir.NodeSpec, allowed ...ir.Kind) error {
	for _, k := range allowed {
		if spec.Type == k {
			return nil
		}
	}
	return fmt.Errorf("%s: type %s not supported (want one of %v)", spec.Kind, spec.Type, allowed)
}
