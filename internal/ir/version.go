package ir

// Version constants for the IR schema and engine.
const (
	// IRVersion is the net description schema version.
	IRVersion = "1"

	// EngineVersion is the rcore engine version.
	EngineVersion = "0.1.0"
)
