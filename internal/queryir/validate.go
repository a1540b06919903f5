package queryir

import (
	"fmt"

	"github.com/roach88/rcore/internal/ir"
)

// ValidationResult lists the problems of a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes every invalid part, in traversal order.
	Problems []string
}

// Validate checks a query without touching a database.
//
// Rules:
//  1. Run is required
//  2. Limit is not negative
//  3. Keys and prefixes are not empty
//  4. Directions are "in" or "out"
//  5. Cycle ranges start at 0 or later and do not end before they start
//  6. ValueEquals carries a value
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(q)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// Err returns the problems as one error, or nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %v", r.Problems)
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.add("nil query")
	case Updates:
		v.validateRun(query.Run)
		if query.Limit < 0 {
			v.add("limit must not be negative, got %d", query.Limit)
		}
		v.validatePredicate(query.Filter)
	case *Updates:
		v.validateQuery(*query)
	case Latest:
		v.validateRun(query.Run)
		v.validatePredicate(query.Filter)
	case *Latest:
		v.validateQuery(*query)
	default:
		v.add("unknown query type %T", q)
	}
}

func (v *validator) validateRun(run string) {
	if run == "" {
		v.add("run is required")
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case KeyEquals:
		if pred.Key == "" {
			v.add("key must not be empty")
		}
	case KeyPrefix:
		if pred.Prefix == "" {
			v.add("key prefix must not be empty")
		}
	case DirectionIs:
		if !ir.ValidDirections[pred.Direction] {
			v.add("invalid direction %q", pred.Direction)
		}
	case CycleRange:
		if pred.From < 0 {
			v.add("cycle range starts before 0: %d", pred.From)
		}
		if !pred.Open() && pred.To < pred.From {
			v.add("cycle range ends before it starts: [%d, %d]", pred.From, pred.To)
		}
	case ValueEquals:
		if pred.Value == nil {
			v.add("value match needs a value")
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.add("unknown predicate type %T", p)
	}
}
