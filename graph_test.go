package alembic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraph_TopologicalSort(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("api", []string{"db", "cache"})
	g.AddNode("db", nil)
	g.AddNode("cache", []string{"db"})

	order, err := g.TopologicalSort()
	require.NoError(t, err)

	assert.Equal(t, []string{"db", "cache", "api"}, order)
}

func TestDependencyGraph_FIFOWithoutDependencies(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("first", nil)
	g.AddNode("second", nil)
	g.AddNode("third", nil)

	order, err := g.TopologicalSort()
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestDependencyGraph_Cycle(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a", []string{"b"})
	g.AddNode("b", []string{"a"})

	_, err := g.TopologicalSort()

	assert.ErrorIs(t, err, ErrCircularDependencySentinel)
}

func TestDependencyGraph_SelfCycle(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a", []string{"a"})

	_, err := g.TopologicalSort()

	assert.ErrorIs(t, err, ErrCircularDependencySentinel)
}

func TestDependencyGraph_MissingDependencySkipped(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("api", []string{"not-registered"})

	order, err := g.TopologicalSort()
	require.NoError(t, err)

	assert.Equal(t, []string{"api"}, order)
}

func TestDependencyGraph_HasNode(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("db", nil)

	assert.True(t, g.HasNode("db"))
	assert.False(t, g.HasNode("cache"))
}

func TestDependencyGraph_GetDependencies(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("api", []string{"db"})

	assert.Equal(t, []string{"db"}, g.GetDependencies("api"))
	assert.Nil(t, g.GetDependencies("missing"))
}
