package ir

import (
	"fmt"
	"strings"
)

// NetSpec describes a net: its primitives, the wires between their ports and
// the netcomm channels it exposes. It is plain data; the engine assembles it.
type NetSpec struct {
	Name     string        `json:"name"`
	Period   float64       `json:"period"` // Cycle period in seconds
	Nodes    []NodeSpec    `json:"nodes"`  // Declaration order fixes scheduling tie-breaks
	Wires    []WireSpec    `json:"wires"`
	Channels []ChannelSpec `json:"channels,omitempty"`
}

// NodeSpec declares one primitive instance.
type NodeSpec struct {
	Name   string           `json:"name"`
	Kind   string           `json:"kind"`             // Primitive kind, e.g. "add", "delay"
	Type   Kind             `json:"type,omitempty"`   // Wire kind of typed primitives
	Params map[string]Value `json:"params,omitempty"` // Build-time parameters
}

// WireSpec connects an output port to an input port.
type WireSpec struct {
	From PortRef `json:"from"`
	To   PortRef `json:"to"`
}

// PortRef names a port as "node.port".
type PortRef struct {
	Node string `json:"node"`
	Port string `json:"port"`
}

// String renders the "node.port" form.
func (p PortRef) String() string {
	if p.Node == "" && p.Port == "" {
		return ""
	}
	return p.Node + "." + p.Port
}

// ParsePortRef parses "node.port". The port part is required.
func ParsePortRef(s string) (PortRef, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return PortRef{}, fmt.Errorf("invalid port reference %q: want node.port", s)
	}
	return PortRef{Node: s[:i], Port: s[i+1:]}, nil
}

// Direction says which side writes a netcomm channel.
type Direction string

const (
	// DirectionIn channels are written by the host and read by the net.
	DirectionIn Direction = "in"
	// DirectionOut channels are written by the net and read by the host.
	DirectionOut Direction = "out"
)

// ValidDirections defines allowed channel directions.
var ValidDirections = map[Direction]bool{
	DirectionIn:  true,
	DirectionOut: true,
}

// ChannelSpec declares a netcomm channel and the port it binds to.
// For "in" channels Port is the input port fed by the channel; for "out"
// channels it is the output port published after each cycle. An empty Port
// declares the channel without binding it.
type ChannelSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
	Kind      Kind      `json:"kind"`
	Default   Value     `json:"default,omitempty"`
	Port      PortRef   `json:"port"`
	Report    bool      `json:"report,omitempty"` // Include in the monitoring report line
}
