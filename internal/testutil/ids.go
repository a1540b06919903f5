package testutil

// FixedIDGenerator gives every net the same instance ID.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same FixedIDGenerator produces byte-identical
// traces.
//
// Unlike engine.FixedGenerator, which returns IDs in sequence and panics
// when they run out, this generator never runs out.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id.
//
// The ID is typically set in the scenario YAML:
//
//	instance_id: "test-net-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-net-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-net-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements engine.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
