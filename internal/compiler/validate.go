package compiler

import (
	"fmt"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/prim"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrNetNameEmpty = "E100" // net name is required

	// Net errors (E101-E109)
	ErrPeriodInvalid    = "E101" // period must be at least 1ns and finite
	ErrNoNodes          = "E102" // at least one node required
	ErrUnknownKind      = "E103" // node kind not in the primitive library
	ErrDuplicateName    = "E104" // duplicate node name
	ErrInvalidPortRef   = "E105" // wire endpoint names an undeclared node
	ErrInputWiredTwice  = "E106" // two wires feed one input
	ErrUndelayedCycle   = "E107" // feedback loop without a delay
	ErrReservedNodeName = "E108" // node name collides with a channel binding

	// Channel errors (E110-E119)
	ErrInvalidDirection = "E110" // direction must be "in" or "out"
	ErrDuplicateChannel = "E111" // duplicate channel key
	ErrInvalidKind      = "E112" // channel kind missing
	ErrDefaultKind      = "E113" // default does not match the channel kind
	ErrChannelPort      = "E114" // channel port names an undeclared node
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// KindSet reports which primitive kinds exist. prim.Registry implements it.
type KindSet interface {
	Has(kind string) bool
}

// Validate checks a compiled description against structural rules.
// Returns all errors found (does not fail-fast). A nil kinds skips the
// primitive-kind check.
//
// Port names and port kinds are checked when the net is assembled; Validate
// only needs the description itself.
func Validate(spec ir.NetSpec, kinds KindSet) []ValidationError {
	var errs []ValidationError

	if spec.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "net name is required", Code: ErrNetNameEmpty})
	}
	if _, ok := engine.PeriodDuration(spec.Period); !ok {
		errs = append(errs, ValidationError{
			Field:   "period",
			Message: fmt.Sprintf("period must be at least 1ns and finite, got %g", spec.Period),
			Code:    ErrPeriodInvalid,
		})
	}
	if len(spec.Nodes) == 0 {
		errs = append(errs, ValidationError{Field: "nodes", Message: "at least one node is required", Code: ErrNoNodes})
	}

	names := make(map[string]bool, len(spec.Nodes))
	for i, n := range spec.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if names[n.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate node name: %q", n.Name), Code: ErrDuplicateName})
		}
		names[n.Name] = true
		if kinds != nil && !kinds.Has(n.Kind) {
			errs = append(errs, ValidationError{Field: field + ".kind", Message: fmt.Sprintf("unknown primitive kind %q", n.Kind), Code: ErrUnknownKind})
		}
	}

	fed := make(map[ir.PortRef]bool, len(spec.Wires))
	for i, w := range spec.Wires {
		field := fmt.Sprintf("wires[%d]", i)
		if !names[w.From.Node] {
			errs = append(errs, ValidationError{Field: field + ".from", Message: fmt.Sprintf("undeclared node %q", w.From.Node), Code: ErrInvalidPortRef})
		}
		if !names[w.To.Node] {
			errs = append(errs, ValidationError{Field: field + ".to", Message: fmt.Sprintf("undeclared node %q", w.To.Node), Code: ErrInvalidPortRef})
		}
		if fed[w.To] {
			errs = append(errs, ValidationError{Field: field + ".to", Message: fmt.Sprintf("input %s is already wired", w.To), Code: ErrInputWiredTwice})
		}
		fed[w.To] = true
	}

	errs = append(errs, validateChannels(spec, names, fed)...)

	for _, c := range AnalyzeCycles(spec) {
		if c.Level == LevelError {
			errs = append(errs, ValidationError{Field: "wires", Message: c.Message, Code: ErrUndelayedCycle})
		}
	}
	return errs
}

func validateChannels(spec ir.NetSpec, names map[string]bool, fed map[ir.PortRef]bool) []ValidationError {
	var errs []ValidationError
	keys := make(map[string]bool, len(spec.Channels))
	for i, c := range spec.Channels {
		field := fmt.Sprintf("channels[%d]", i)
		if keys[c.Key] {
			errs = append(errs, ValidationError{Field: field + ".key", Message: fmt.Sprintf("duplicate channel key: %q", c.Key), Code: ErrDuplicateChannel})
		}
		keys[c.Key] = true

		if !ir.ValidDirections[c.Direction] {
			errs = append(errs, ValidationError{Field: field + ".direction", Message: fmt.Sprintf("invalid direction %q: must be in or out", c.Direction), Code: ErrInvalidDirection})
		}
		if c.Kind == ir.KindInvalid {
			errs = append(errs, ValidationError{Field: field + ".kind", Message: "channel kind is required", Code: ErrInvalidKind})
		} else if c.Default != nil {
			if _, err := ir.Coerce(c.Default, c.Kind); err != nil {
				errs = append(errs, ValidationError{Field: field + ".default", Message: err.Error(), Code: ErrDefaultKind})
			}
		}

		if c.Port == (ir.PortRef{}) {
			continue
		}
		if !names[c.Port.Node] {
			errs = append(errs, ValidationError{Field: field + ".port", Message: fmt.Sprintf("undeclared node %q", c.Port.Node), Code: ErrChannelPort})
		}
		if binding := prim.BindingNodeName(c); names[binding] {
			errs = append(errs, ValidationError{Field: field + ".key", Message: fmt.Sprintf("node %q collides with the channel binding", binding), Code: ErrReservedNodeName})
		}
		if c.Direction == ir.DirectionIn {
			if fed[c.Port] {
				errs = append(errs, ValidationError{Field: field + ".port", Message: fmt.Sprintf("input %s is already wired", c.Port), Code: ErrInputWiredTwice})
			}
			fed[c.Port] = true
		}
	}
	return errs
}
