package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertSorted(t *testing.T) {
	s := []int{1, 4, 7}
	s = insertSorted(s, 5)
	s = insertSorted(s, 0)
	s = insertSorted(s, 9)
	assert.Equal(t, []int{0, 1, 4, 5, 7, 9}, s)
}

func TestTarjanSCC(t *testing.T) {
	// 0 -> 1 -> 2 -> 0, 2 -> 3, 3 -> 4 -> 3
	succ := [][]int{{1}, {2}, {0, 3}, {4}, {3}}
	nodes := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}

	sccs := tarjanSCC(nodes, succ)
	require.Len(t, sccs, 2)

	sizes := map[int]bool{}
	for _, scc := range sccs {
		sizes[len(scc)] = true
	}
	assert.True(t, sizes[3])
	assert.True(t, sizes[2])
}

func TestFindCycle_LowestComponentFirst(t *testing.T) {
	// Two disjoint loops: {3,4} and {1,2}; the one holding node 1 wins
	succ := [][]int{{1}, {2}, {1}, {4}, {3}}
	residual := map[int]bool{1: true, 2: true, 3: true, 4: true}

	assert.Equal(t, []int{1, 2, 1}, findCycle(residual, succ))
}

func TestReconstructCyclePath_StaysInComponent(t *testing.T) {
	// Node 1 is outside the component and must not be walked
	succ := [][]int{{1, 2}, {1}, {0}}
	scc := []int{0, 2}

	assert.Equal(t, []int{0, 2, 0}, reconstructCyclePath(0, scc, succ))
}

func TestFindCycle_NoneWithoutLoops(t *testing.T) {
	succ := [][]int{{1}, {}}
	residual := map[int]bool{0: true, 1: true}
	assert.Nil(t, findCycle(residual, succ))
}
