package railswitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackGraph_Connect(t *testing.T) {
	g := NewTrackGraph()
	a := g.AddNode(Location{}, "a")
	b := g.AddNode(Location{X: 3, Z: 4}, "b")
	assert.Equal(t, a, g.AddNode(Location{}, "again"))

	ab, ba, err := g.Connect(a, b)
	require.NoError(t, err)
	edge, ok := g.Edge(ab)
	require.True(t, ok)
	assert.Equal(t, 5.0, edge.Length)
	assert.True(t, edge.Enabled)
	reverse, ok := g.Connection(b, a)
	require.True(t, ok)
	assert.Equal(t, ba, reverse)

	again, _, err := g.Connect(a, b)
	require.NoError(t, err)
	assert.Equal(t, ab, again)
	assert.Len(t, g.Edges(), 2)
}

func TestTrackGraph_ConnectErrors(t *testing.T) {
	g := NewTrackGraph()
	a := g.AddNode(Location{}, "a")

	_, _, err := g.Connect(a, NodeID(42))
	assert.EqualError(t, err, "No node with ID 42")
	_, _, err = g.ConnectWithLength(NodeID(7), a, 1)
	assert.EqualError(t, err, "No node with ID 7")
	_, _, err = g.Connect(a, a)
	assert.EqualError(t, err, "Can't connect node 0 to itself")
	assert.Empty(t, g.Edges())
}

func TestTrackGraph_RemoveNode(t *testing.T) {
	j := newJunction(t)
	pl, _ := j.graph.Connection(j.p, j.l)

	j.graph.RemoveNode(j.l)

	_, ok := j.graph.LocateNode(j.locL)
	assert.False(t, ok)
	_, ok = j.graph.Edge(pl)
	assert.False(t, ok)
	assert.False(t, j.graph.IsEnabled(pl))
	assert.Len(t, j.graph.ConnectionsFrom(j.p), 3)
	assert.Nil(t, j.graph.ConnectionsFrom(j.l))
	assert.Len(t, j.graph.Edges(), 6)

	// Tombstoned edges ignore enable requests
	j.graph.SetEnabled(pl, true)
	assert.False(t, j.graph.IsEnabled(pl))
}
