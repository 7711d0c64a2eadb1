package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateOrder(t *testing.T) {
	g := NewExtendsGraph()
	g.AddEdge("B", "X")
	g.AddEdge("B", "Y")
	g.AddEdge("X", "Z")

	assert.Equal(t, [][]string{
		{"B"},
		{"B", "X"},
		{"B", "X", "Z"},
		{"B", "Y"},
	}, g.Enumerate("B", nil))
}

func TestEnumerateLeaf(t *testing.T) {
	g := NewExtendsGraph()
	g.EnsureBase("Solo")
	assert.Equal(t, [][]string{{"Solo"}}, g.Enumerate("Solo", nil))
}

func TestEnumerateExclusion(t *testing.T) {
	g := NewExtendsGraph()
	g.AddEdge("B", "Dup")
	g.AddEdge("B", "Y")
	g.AddEdge("Dup", "Z")

	exclude := map[string]bool{"Dup": true}
	assert.Nil(t, g.Enumerate("Dup", exclude))
	assert.Equal(t, [][]string{{"B"}, {"B", "Y"}}, g.Enumerate("B", exclude))
}

func TestBasesKeepFirstObservedOrder(t *testing.T) {
	g := NewExtendsGraph()
	g.AddEdge("C", "x")
	g.AddEdge("A", "y")
	g.EnsureBase("C")
	g.EnsureBase("B")
	g.AddEdge("C", "z")

	assert.Equal(t, []string{"C", "A", "B"}, g.Bases())
	assert.Equal(t, []string{"x", "z"}, g.Extenders("C"))
	assert.Empty(t, g.Extenders("B"))
}

func TestCheckAcyclic(t *testing.T) {
	t.Run("dag", func(t *testing.T) {
		g := NewExtendsGraph()
		g.AddEdge("A", "B")
		g.AddEdge("A", "C")
		g.AddEdge("B", "C")
		assert.NoError(t, g.CheckAcyclic())
	})

	t.Run("self loop", func(t *testing.T) {
		g := NewExtendsGraph()
		g.AddEdge("A", "A")
		err := g.CheckAcyclic()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCyclicExtension)
		assert.Contains(t, err.Error(), "A -> A")
	})

	t.Run("three node cycle", func(t *testing.T) {
		g := NewExtendsGraph()
		g.AddEdge("Root", "A")
		g.AddEdge("A", "B")
		g.AddEdge("B", "C")
		g.AddEdge("C", "A")

		err := g.CheckAcyclic()
		require.Error(t, err)

		var dErr *DeclError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, "A", dErr.Decl)
		assert.Contains(t, dErr.Detail, "A -> B -> C -> A")
	})

	t.Run("backtracks out of inner cycle", func(t *testing.T) {
		g := NewExtendsGraph()
		g.AddEdge("A", "B")
		g.AddEdge("B", "C")
		g.AddEdge("C", "B")
		g.AddEdge("B", "A")

		err := g.CheckAcyclic()
		require.Error(t, err)

		var dErr *DeclError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, "A", dErr.Decl)
		assert.Equal(t, "structextends cycle: A -> B -> A", dErr.Detail)
	})
}
