package railswitch

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateEdges_TargetOnly(t *testing.T) {
	j := newJunction(t)
	sw := NewTrackSwitch()
	sw.Attach(j.graph, j.approach())
	sw.UpdateExits(j.locP, []Location{j.locS, j.locR})
	require.Equal(t, STATE_NORMAL, sw.State())

	sw.UpdateEdges(j.graph)

	j.requireBranch(t, j.s, true)
	j.requireBranch(t, j.r, false)
	// L is not managed anymore
	j.requireBranch(t, j.l, true)
	// Approach track is never touched
	anchor, _ := j.graph.Connection(j.a, j.p)
	assert.True(t, j.graph.IsEnabled(anchor))
}

func TestUpdateEdges_FollowsState(t *testing.T) {
	j := newJunction(t)
	sw := NewTrackSwitch()
	sw.Attach(j.graph, j.approach())

	tests := []struct {
		state   SwitchState
		enabled NodeID
	}{
		{STATE_REVERSE_LEFT, j.l},
		{STATE_REVERSE_RIGHT, j.r},
		{STATE_NORMAL, j.s},
	}
	for _, tt := range tests {
		sw.SetState(tt.state)
		sw.UpdateEdges(j.graph)
		for _, branch := range []NodeID{j.l, j.s, j.r} {
			j.requireBranch(t, branch, branch == tt.enabled)
		}
	}
}

func TestSetEdgesActive(t *testing.T) {
	j := newJunction(t)
	sw := NewTrackSwitch()
	sw.Attach(j.graph, j.approach())
	sw.UpdateEdges(j.graph)
	j.requireBranch(t, j.l, false)

	sw.SetEdgesActive(j.graph)

	j.requireBranch(t, j.l, true)
	j.requireBranch(t, j.s, true)
	j.requireBranch(t, j.r, true)
	assert.Equal(t, STATE_NORMAL, sw.State())
}

// oneWayGraph is a Graph with directed edges only, as a host world may have them
type oneWayGraph struct {
	locations map[NodeID]Location
	conns     map[NodeID]map[NodeID]EdgeID
	enabled   map[EdgeID]bool
}

func newOneWayGraph() *oneWayGraph {
	return &oneWayGraph{
		locations: make(map[NodeID]Location),
		conns:     make(map[NodeID]map[NodeID]EdgeID),
		enabled:   make(map[EdgeID]bool),
	}
}

func (g *oneWayGraph) add(id NodeID, loc Location) {
	g.locations[id] = loc
	g.conns[id] = make(map[NodeID]EdgeID)
}

func (g *oneWayGraph) link(from, to NodeID) EdgeID {
	id := EdgeID(len(g.enabled))
	g.conns[from][to] = id
	g.enabled[id] = true
	return id
}

func (g *oneWayGraph) LocateNode(loc Location) (NodeID, bool) {
	for id, l := range g.locations {
		if l == loc {
			return id, true
		}
	}
	return -1, false
}

func (g *oneWayGraph) NodeLocation(id NodeID) (Location, bool) {
	loc, ok := g.locations[id]
	return loc, ok
}

func (g *oneWayGraph) ConnectionsFrom(node NodeID) map[NodeID]EdgeID {
	return g.conns[node]
}

func (g *oneWayGraph) Connection(from, to NodeID) (EdgeID, bool) {
	id, ok := g.conns[from][to]
	return id, ok
}

func (g *oneWayGraph) SetEnabled(edge EdgeID, enabled bool) {
	g.enabled[edge] = enabled
}

func TestUpdateEdges_WithoutMirror(t *testing.T) {
	g := newOneWayGraph()
	g.add(0, Location{Z: -10})
	g.add(1, origin)
	g.add(2, exitAhead)
	g.add(3, exitRight)
	approach := g.link(0, 1)
	toAhead := g.link(1, 2)
	fromAhead := g.link(2, 1)
	// Right branch has no edge leaving the switch point
	fromRight := g.link(3, 1)

	sw := NewTrackSwitch()
	sw.edge = &EdgeLocation{First: Location{Z: -10}, Second: origin}
	sw.UpdateExits(origin, []Location{exitAhead, exitRight})
	require.Equal(t, []Location{exitAhead, exitRight}, sw.Exits())
	sw.SetState(STATE_REVERSE_RIGHT)

	sw.UpdateEdges(g)

	assert.True(t, g.enabled[approach])
	assert.False(t, g.enabled[toAhead])
	assert.False(t, g.enabled[fromAhead])
	assert.True(t, g.enabled[fromRight])
}

func TestUpdateEdges_SkipsUnresolvableExit(t *testing.T) {
	j := newJunction(t)
	buf := &bytes.Buffer{}
	sw := NewTrackSwitch(WithLogger(log.New(buf, "", 0)))
	sw.Attach(j.graph, j.approach())
	sw.SetState(STATE_REVERSE_RIGHT)

	j.graph.RemoveNode(j.l)
	sw.UpdateEdges(j.graph)

	j.requireBranch(t, j.r, true)
	j.requireBranch(t, j.s, false)
	assert.Contains(t, buf.String(), "is not in graph")
}

func TestUpdateEdges_SkipsIsolatedExit(t *testing.T) {
	j := newJunction(t)
	buf := &bytes.Buffer{}
	sw := NewTrackSwitch(WithLogger(log.New(buf, "", 0)))
	sw.Attach(j.graph, j.approach())

	j.graph.Disconnect(j.p, j.r)
	sw.UpdateEdges(j.graph)

	j.requireBranch(t, j.s, true)
	j.requireBranch(t, j.l, false)
	assert.Contains(t, buf.String(), "has no connections")
}

func TestUpdateEdges_ClosestConnectionOnly(t *testing.T) {
	j := newJunction(t)
	// S continues further south; that track must stay as it is
	far := j.graph.AddNode(Location{Z: 20}, "far")
	_, _, err := j.graph.Connect(j.s, far)
	require.NoError(t, err)
	// L is also linked to S, which is farther from P than P itself
	_, _, err = j.graph.Connect(j.l, j.s)
	require.NoError(t, err)

	sw := NewTrackSwitch()
	sw.Attach(j.graph, j.approach())
	sw.SetState(STATE_REVERSE_LEFT)
	sw.UpdateEdges(j.graph)

	j.requireBranch(t, j.l, true)
	j.requireBranch(t, j.s, false)
	j.requireBranch(t, j.r, false)

	for _, pair := range [][2]NodeID{{j.s, far}, {far, j.s}, {j.l, j.s}, {j.s, j.l}} {
		edge, ok := j.graph.Connection(pair[0], pair[1])
		require.True(t, ok)
		assert.True(t, j.graph.IsEnabled(edge), "%d -> %d", pair[0], pair[1])
	}
}

func TestClosestConnection_TieBreak(t *testing.T) {
	graph := NewTrackGraph()
	center := graph.AddNode(origin, "")
	east := graph.AddNode(Location{X: 1}, "")
	west := graph.AddNode(Location{X: -1}, "")
	_, _, err := graph.Connect(center, east)
	require.NoError(t, err)
	_, _, err = graph.Connect(center, west)
	require.NoError(t, err)

	// Both neighbours are at the same distance from the point north of center
	for i := 0; i < 20; i++ {
		node, edge, ok := closestConnection(graph, graph.ConnectionsFrom(center), Location{Z: 3})
		require.True(t, ok)
		assert.Equal(t, east, node)
		expected, _ := graph.Connection(center, east)
		assert.Equal(t, expected, edge)
	}

	_, _, ok := closestConnection(graph, nil, origin)
	assert.False(t, ok)
}
