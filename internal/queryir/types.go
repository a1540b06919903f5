package queryir

import "github.com/roach88/rcore/internal/ir"

// Query selects recorded updates of one run.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate filters updates.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Updates selects every update of Run that matches Filter, ordered by cycle
// then insertion order.
type Updates struct {
	Run    string
	Filter Predicate // nil matches everything
	Limit  int       // 0 means no limit
}

func (Updates) queryNode() {}

// Latest selects, for each channel (key and direction), the last update of
// Run matching Filter, ordered by key then direction. With a CycleRange
// filter it answers "channel values as of cycle To".
type Latest struct {
	Run    string
	Filter Predicate
}

func (Latest) queryNode() {}

// KeyEquals matches one channel key.
type KeyEquals struct {
	Key string
}

func (KeyEquals) predicateNode() {}

// KeyPrefix matches keys starting with Prefix, e.g. "arm." for every
// channel of an arm.
type KeyPrefix struct {
	Prefix string
}

func (KeyPrefix) predicateNode() {}

// DirectionIs matches one direction.
type DirectionIs struct {
	Direction ir.Direction
}

func (DirectionIs) predicateNode() {}

// CycleRange matches cycles in [From, To]. A negative To leaves the range
// open above.
type CycleRange struct {
	From int64
	To   int64
}

func (CycleRange) predicateNode() {}

// Open reports whether the range has no upper bound.
func (r CycleRange) Open() bool { return r.To < 0 }

// ValueEquals matches updates carrying exactly Value. Doubles match by
// their netcomm string form, so 1.0 and 1 (an int) differ.
type ValueEquals struct {
	Value ir.Value
}

func (ValueEquals) predicateNode() {}

// And matches when every predicate matches. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// All conjoins preds, dropping nils. It returns nil when nothing is left
// and the single predicate when only one is.
func All(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
