package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/prim"
)

// Cycle levels.
const (
	// LevelError marks a loop of same-cycle data edges. The engine refuses
	// to build such a net.
	LevelError = "error"

	// LevelInfo marks a feedback loop closed through a delay. It is legal:
	// the delay's output was staged in the previous cycle.
	LevelInfo = "info"
)

// CycleReport describes one feedback loop of a net description.
type CycleReport struct {
	Path    []string `json:"path"`    // Node names, first repeated at the end
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // LevelError or LevelInfo
}

// latchedKinds are the primitive kinds whose inputs read the previous
// cycle and so create no same-cycle edge.
var latchedKinds = map[string]bool{
	prim.KindDelay: true,
}

// AnalyzeCycles performs static loop analysis on a net description.
//
// The algorithm:
//  1. Build the node graph from wires (source node -> target node)
//  2. Find strongly connected components with Tarjan's algorithm over the
//     edges that do not end in a latched input: each cyclic one is an error
//  3. Repeat over all edges: cyclic components that were not errors are
//     delayed feedback loops, reported as info
//
// Nodes are visited in declaration order, so reports are deterministic.
// A DAG returns an empty list.
func AnalyzeCycles(spec ir.NetSpec) []CycleReport {
	order := make([]string, len(spec.Nodes))
	kinds := make(map[string]string, len(spec.Nodes))
	for i, n := range spec.Nodes {
		order[i] = n.Name
		kinds[n.Name] = n.Kind
	}

	full := make(nodeGraph)
	strict := make(nodeGraph)
	for _, w := range spec.Wires {
		if _, ok := kinds[w.From.Node]; !ok {
			continue
		}
		if _, ok := kinds[w.To.Node]; !ok {
			continue
		}
		full[w.From.Node] = append(full[w.From.Node], w.To.Node)
		if !latchedKinds[kinds[w.To.Node]] {
			strict[w.From.Node] = append(strict[w.From.Node], w.To.Node)
		}
	}

	reports := []CycleReport{}
	inError := make(map[string]bool)
	for _, scc := range tarjanSCC(order, strict) {
		if !isCyclic(scc, strict) {
			continue
		}
		for _, n := range scc {
			inError[n] = true
		}
		path := reconstructCyclePath(scc, strict)
		reports = append(reports, CycleReport{
			Path:    path,
			Message: "feedback loop without a delay: " + strings.Join(path, " -> "),
			Level:   LevelError,
		})
	}

	for _, scc := range tarjanSCC(order, full) {
		if !isCyclic(scc, full) || containsAny(scc, inError) {
			continue
		}
		path := reconstructCyclePath(scc, full)
		reports = append(reports, CycleReport{
			Path:    path,
			Message: fmt.Sprintf("delayed feedback loop: %s", strings.Join(path, " -> ")),
			Level:   LevelInfo,
		})
	}
	return reports
}

// nodeGraph maps a node name to the nodes its outputs feed.
type nodeGraph map[string][]string

func isCyclic(scc []string, graph nodeGraph) bool {
	return len(scc) > 1 || hasSelfLoop(scc[0], graph)
}

func containsAny(scc []string, set map[string]bool) bool {
	for _, n := range scc {
		if set[n] {
			return true
		}
	}
	return false
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph nodeGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are tried in the given order. Single-node SCCs without self-loops
// are NOT cycles.
func tarjanSCC(order []string, graph nodeGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath builds a closed walk through an SCC, starting at the
// Tarjan root (the last member popped).
func reconstructCyclePath(scc []string, graph nodeGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[len(scc)-1]
	if len(scc) == 1 {
		return []string{start, start}
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}
