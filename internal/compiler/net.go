package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rcore/internal/ir"
)

// Options tune compilation.
type Options struct {
	// DefaultPeriod fills descriptions without a period. Zero leaves the
	// period unset, which Validate reports.
	DefaultPeriod float64
}

// CompileNet parses a CUE value into a NetSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the net struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`net: arm: { ... }`)
//	spec, err := CompileNet(v.LookupPath(cue.ParsePath("net.arm")), Options{})
func CompileNet(v cue.Value, opts Options) (*ir.NetSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.NetSpec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].Unquoted()
	}

	spec.Period = opts.DefaultPeriod
	if pv := v.LookupPath(cue.ParsePath("period")); pv.Exists() {
		p, err := pv.Float64()
		if err != nil {
			return nil, &CompileError{Field: "period", Message: "period must be a number of seconds", Pos: pv.Pos()}
		}
		spec.Period = p
	}

	var err error
	if spec.Nodes, err = parseNodes(v); err != nil {
		return nil, err
	}
	if spec.Wires, err = parseWires(v); err != nil {
		return nil, err
	}
	if spec.Channels, err = parseChannels(v); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseNodes extracts node declarations in source order.
func parseNodes(v cue.Value) ([]ir.NodeSpec, error) {
	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{Field: "nodes", Message: "nodes are required", Pos: v.Pos()}
	}

	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var nodes []ir.NodeSpec
	for iter.Next() {
		name := iter.Selector().Unquoted()
		nv := iter.Value()
		field := "nodes." + name

		kind, err := requiredString(nv, "kind", field)
		if err != nil {
			return nil, err
		}
		node := ir.NodeSpec{Name: name, Kind: kind}

		if tv := nv.LookupPath(cue.ParsePath("type")); tv.Exists() {
			s, err := tv.String()
			if err != nil {
				return nil, &CompileError{Field: field + ".type", Message: "type must be a string", Pos: tv.Pos()}
			}
			k, err := ir.ParseKind(s)
			if err != nil {
				return nil, &CompileError{Field: field + ".type", Message: err.Error(), Pos: tv.Pos()}
			}
			node.Type = k
		}

		if pv := nv.LookupPath(cue.ParsePath("params")); pv.Exists() {
			params, err := parseParams(pv, field+".params")
			if err != nil {
				return nil, err
			}
			node.Params = params
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseParams(v cue.Value, field string) (map[string]ir.Value, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	params := make(map[string]ir.Value)
	for iter.Next() {
		name := iter.Selector().Unquoted()
		pv, err := decodeValue(iter.Value(), field+"."+name)
		if err != nil {
			return nil, err
		}
		params[name] = pv
	}
	return params, nil
}

// parseWires extracts the wire list. A net without wires is legal.
func parseWires(v cue.Value) ([]ir.WireSpec, error) {
	wiresVal := v.LookupPath(cue.ParsePath("wires"))
	if !wiresVal.Exists() {
		return nil, nil
	}
	iter, err := wiresVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var wires []ir.WireSpec
	for i := 0; iter.Next(); i++ {
		wv := iter.Value()
		field := fmt.Sprintf("wires[%d]", i)
		from, err := portRef(wv, "from", field)
		if err != nil {
			return nil, err
		}
		to, err := portRef(wv, "to", field)
		if err != nil {
			return nil, err
		}
		wires = append(wires, ir.WireSpec{From: from, To: to})
	}
	return wires, nil
}

// parseChannels extracts channel declarations in source order.
func parseChannels(v cue.Value) ([]ir.ChannelSpec, error) {
	chVal := v.LookupPath(cue.ParsePath("channels"))
	if !chVal.Exists() {
		return nil, nil
	}
	iter, err := chVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var channels []ir.ChannelSpec
	for iter.Next() {
		key := iter.Selector().Unquoted()
		cv := iter.Value()
		field := "channels." + key

		dir, err := requiredString(cv, "direction", field)
		if err != nil {
			return nil, err
		}
		kindName, err := requiredString(cv, "kind", field)
		if err != nil {
			return nil, err
		}
		kind, err := ir.ParseKind(kindName)
		if err != nil {
			return nil, &CompileError{Field: field + ".kind", Message: err.Error(), Pos: cv.Pos()}
		}

		ch := ir.ChannelSpec{Key: key, Direction: ir.Direction(dir), Kind: kind}
		if dv := cv.LookupPath(cue.ParsePath("default")); dv.Exists() {
			if ch.Default, err = decodeValue(dv, field+".default"); err != nil {
				return nil, err
			}
		}
		if pv := cv.LookupPath(cue.ParsePath("port")); pv.Exists() {
			if ch.Port, err = portRef(cv, "port", field); err != nil {
				return nil, err
			}
		}
		if rv := cv.LookupPath(cue.ParsePath("report")); rv.Exists() {
			if ch.Report, err = rv.Bool(); err != nil {
				return nil, &CompileError{Field: field + ".report", Message: "report must be a bool", Pos: rv.Pos()}
			}
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", &CompileError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", &CompileError{Field: field + "." + name, Message: name + " must be a string", Pos: sv.Pos()}
	}
	return s, nil
}

func portRef(v cue.Value, name, field string) (ir.PortRef, error) {
	s, err := requiredString(v, name, field)
	if err != nil {
		return ir.PortRef{}, err
	}
	ref, err := ir.ParsePortRef(s)
	if err != nil {
		return ir.PortRef{}, &CompileError{Field: field + "." + name, Message: err.Error(), Pos: v.LookupPath(cue.ParsePath(name)).Pos()}
	}
	return ref, nil
}

// decodeValue converts a concrete CUE value to a wire value. Integer
// literals stay Int; anything with a fraction or exponent is Double.
func decodeValue(v cue.Value, field string) (ir.Value, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Int(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Double(f), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var arr ir.Array
		for i := 0; iter.Next(); i++ {
			ev, err := decodeValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, ev)
		}
		if arr == nil {
			arr = ir.Array{}
		}
		return arr, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind %v: want bool, int, float or list", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
