package engine

import (
	"fmt"
	"sort"
)

// schedule returns node indices in execution order.
//
// The algorithm:
//  1. Build data edges source -> consumer, skipping latched inputs
//  2. Kahn's algorithm, always taking the ready node with the lowest
//     insertion index, so equal inputs give equal orders
//  3. If nodes remain, find a strongly connected component among them with
//     Tarjan's algorithm and report it as the cycle path
func schedule(nodes []*buildNode) ([]int, error) {
	n := len(nodes)
	succ := make([][]int, n)
	indeg := make([]int, n)
	for _, dst := range nodes {
		for i, src := range dst.sources {
			if src == nil || dst.ins[i].Latched {
				continue
			}
			succ[src.node.index] = append(succ[src.node.index], dst.index)
			indeg[dst.index]++
		}
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, w := range succ[v] {
			indeg[w]--
			if indeg[w] == 0 {
				ready = insertSorted(ready, w)
			}
		}
	}
	if len(order) == n {
		return order, nil
	}

	residual := make(map[int]bool)
	for i := 0; i < n; i++ {
		if indeg[i] > 0 {
			residual[i] = true
		}
	}
	path := findCycle(residual, succ)
	names := make([]string, len(path))
	for i, idx := range path {
		names[i] = nodes[idx].name
	}
	return nil, &BuildError{
		Code:    ErrCodeCycle,
		Node:    names[0],
		Message: fmt.Sprintf("data cycle without a latched input through %d node(s)", len(path)-1),
		Path:    names,
	}
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// findCycle returns a cycle path among the residual nodes, first node
// repeated at the end. It picks the cyclic component holding the lowest
// node index and walks it from that node.
func findCycle(residual map[int]bool, succ [][]int) []int {
	sccs := tarjanSCC(residual, succ)

	var best []int
	bestMin := -1
	for _, scc := range sccs {
		if len(scc) == 1 && !hasSelfLoop(scc[0], succ) {
			continue
		}
		m := scc[0]
		for _, v := range scc {
			m = min(m, v)
		}
		if bestMin < 0 || m < bestMin {
			best, bestMin = scc, m
		}
	}
	if best == nil {
		return nil
	}
	return reconstructCyclePath(bestMin, best, succ)
}

func hasSelfLoop(v int, succ [][]int) bool {
	for _, w := range succ[v] {
		if w == v {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components of the subgraph induced by
// nodes, visiting roots in index order.
func tarjanSCC(nodes map[int]bool, succ [][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range succ[v] {
			if !nodes[w] {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root node: pop the component
		if lowlink[v] == indices[v] {
			var scc []int
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

	roots := make([]int, 0, len(nodes))
	for v := range nodes {
		roots = append(roots, v)
	}
	sort.Ints(roots)
	for _, v := range roots {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside the component from start until it
// returns to start. Depth-first with backtracking, so a path is always found
// in a strongly connected component.
func reconstructCyclePath(start int, scc []int, succ [][]int) []int {
	members := make(map[int]bool, len(scc))
	for _, v := range scc {
		members[v] = true
	}

	visited := make(map[int]bool)
	var path []int
	var walk func(v int) bool
	walk = func(v int) bool {
		path = append(path, v)
		visited[v] = true
		for _, w := range succ[v] {
			if w == start {
				path = append(path, w)
				return true
			}
			if members[w] && !visited[w] && walk(w) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	walk(start)
	return path
}
