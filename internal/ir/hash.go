package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainNode = "rcore/node/v1"
	DomainNet  = "rcore/net/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NodeDigest computes the structural identity of a value-graph node from its
// kind, declared type, operand digests (in order) and extra attributes.
// Two nodes with the same digest are interchangeable.
func NodeDigest(kind, typ string, operands []string, attrs map[string]any) (string, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	obj := map[string]any{
		"kind":     kind,
		"type":     typ,
		"operands": operands,
		"attrs":    attrs,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("NodeDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// MustNodeDigest is like NodeDigest but panics on error.
// Use only when attrs are known to hold canonical types.
func MustNodeDigest(kind, typ string, operands []string, attrs map[string]any) string {
	d, err := NodeDigest(kind, typ, operands, attrs)
	if err != nil {
		panic(err)
	}
	return d
}

// Digest computes the content hash of a net description. Node, wire and
// channel order are significant: they fix scheduling tie-breaks.
func (s NetSpec) Digest() (string, error) {
	nodes := make([]any, len(s.Nodes))
	for i, n := range s.Nodes {
		params := make(map[string]any, len(n.Params))
		for k, v := range n.Params {
			params[k] = v
		}
		node := map[string]any{"name": n.Name, "kind": n.Kind, "params": params}
		if n.Type != KindInvalid {
			node["type"] = n.Type.String()
		}
		nodes[i] = node
	}
	wires := make([]any, len(s.Wires))
	for i, w := range s.Wires {
		wires[i] = []any{w.From.String(), w.To.String()}
	}
	channels := make([]any, len(s.Channels))
	for i, c := range s.Channels {
		ch := map[string]any{
			"key":       c.Key,
			"direction": string(c.Direction),
			"kind":      c.Kind.String(),
			"port":      c.Port.String(),
			"report":    c.Report,
		}
		if c.Default != nil {
			ch["default"] = c.Default
		}
		channels[i] = ch
	}
	obj := map[string]any{
		"name":     s.Name,
		"period":   s.Period,
		"nodes":    nodes,
		"wires":    wires,
		"channels": channels,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("NetSpec.Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNet, canonical), nil
}
