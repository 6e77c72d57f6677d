package railswitch

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// TrackNode is a node of TrackGraph
type TrackNode struct {
	ID       NodeID
	Location Location
	// Name is optional human-readable label (layout name, OSM node ID, ...)
	Name string
}

// TrackEdge is a directed edge of TrackGraph
type TrackEdge struct {
	ID      EdgeID
	Source  NodeID
	Target  NodeID
	Length  float64
	Enabled bool
	removed bool
}

// TrackGraph is an arena of nodes and directed edges.
// Edges are never moved once created: EdgeID stays valid (removed edges are tombstoned).
type TrackGraph struct {
	nodes     map[NodeID]*TrackNode
	byLoc     map[Location]NodeID
	edges     []TrackEdge
	adjacency map[NodeID]map[NodeID]EdgeID
	nextNode  NodeID
}

// NewTrackGraph returns empty graph
func NewTrackGraph() *TrackGraph {
	return &TrackGraph{
		nodes:     make(map[NodeID]*TrackNode),
		byLoc:     make(map[Location]NodeID),
		edges:     make([]TrackEdge, 0),
		adjacency: make(map[NodeID]map[NodeID]EdgeID),
	}
}

// AddNode creates node at given location. If node already exists there its ID is returned.
func (g *TrackGraph) AddNode(loc Location, name string) NodeID {
	if id, ok := g.byLoc[loc]; ok {
		return id
	}
	id := g.nextNode
	g.nextNode++
	g.nodes[id] = &TrackNode{ID: id, Location: loc, Name: name}
	g.byLoc[loc] = id
	g.adjacency[id] = make(map[NodeID]EdgeID)
	return id
}

// Connect creates (or returns existing) edges a→b and b→a. Length of edges is euclidean distance.
func (g *TrackGraph) Connect(a, b NodeID) (EdgeID, EdgeID, error) {
	nodeA, okA := g.nodes[a]
	nodeB, okB := g.nodes[b]
	if !okA || !okB {
		return g.ConnectWithLength(a, b, 0)
	}
	return g.ConnectWithLength(a, b, math.Sqrt(nodeA.Location.DistSqr(nodeB.Location)))
}

// ConnectWithLength is Connect for tracks whose length is known from elsewhere (e.g. geodesic length)
func (g *TrackGraph) ConnectWithLength(a, b NodeID, length float64) (EdgeID, EdgeID, error) {
	if _, ok := g.nodes[a]; !ok {
		return -1, -1, errors.Errorf("No node with ID %d", a)
	}
	if _, ok := g.nodes[b]; !ok {
		return -1, -1, errors.Errorf("No node with ID %d", b)
	}
	if a == b {
		return -1, -1, errors.Errorf("Can't connect node %d to itself", a)
	}
	return g.addEdge(a, b, length), g.addEdge(b, a, length), nil
}

func (g *TrackGraph) addEdge(from, to NodeID, length float64) EdgeID {
	if id, ok := g.adjacency[from][to]; ok {
		return id
	}
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, TrackEdge{
		ID:      id,
		Source:  from,
		Target:  to,
		Length:  length,
		Enabled: true,
	})
	g.adjacency[from][to] = id
	return id
}

// Disconnect removes edges between two nodes in both directions
func (g *TrackGraph) Disconnect(a, b NodeID) {
	if id, ok := g.adjacency[a][b]; ok {
		g.edges[id].removed = true
		delete(g.adjacency[a], b)
	}
	if id, ok := g.adjacency[b][a]; ok {
		g.edges[id].removed = true
		delete(g.adjacency[b], a)
	}
}

// RemoveNode removes node and every edge touching it
func (g *TrackGraph) RemoveNode(id NodeID) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	for other := range g.adjacency[id] {
		g.Disconnect(id, other)
	}
	// Incoming edges from nodes which are not connected back
	for _, conns := range g.adjacency {
		if edgeID, ok := conns[id]; ok {
			g.edges[edgeID].removed = true
			delete(conns, id)
		}
	}
	delete(g.adjacency, id)
	delete(g.byLoc, node.Location)
	delete(g.nodes, id)
}

// LocateNode implements Graph
func (g *TrackGraph) LocateNode(loc Location) (NodeID, bool) {
	id, ok := g.byLoc[loc]
	return id, ok
}

// NodeLocation implements Graph
func (g *TrackGraph) NodeLocation(id NodeID) (Location, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return Location{}, false
	}
	return node.Location, true
}

// ConnectionsFrom implements Graph
func (g *TrackGraph) ConnectionsFrom(node NodeID) map[NodeID]EdgeID {
	conns, ok := g.adjacency[node]
	if !ok {
		return nil
	}
	out := make(map[NodeID]EdgeID, len(conns))
	for k, v := range conns {
		out[k] = v
	}
	return out
}

// Connection implements Graph
func (g *TrackGraph) Connection(from, to NodeID) (EdgeID, bool) {
	id, ok := g.adjacency[from][to]
	return id, ok
}

// SetEnabled implements Graph
func (g *TrackGraph) SetEnabled(edge EdgeID, enabled bool) {
	if edge < 0 || int(edge) >= len(g.edges) || g.edges[edge].removed {
		return
	}
	g.edges[edge].Enabled = enabled
}

// IsEnabled returns enabled flag of edge. Unknown edges are reported as disabled.
func (g *TrackGraph) IsEnabled(edge EdgeID) bool {
	e, ok := g.Edge(edge)
	return ok && e.Enabled
}

// Edge returns copy of edge
func (g *TrackGraph) Edge(id EdgeID) (TrackEdge, bool) {
	if id < 0 || int(id) >= len(g.edges) || g.edges[id].removed {
		return TrackEdge{}, false
	}
	return g.edges[id], true
}

// Node returns copy of node
func (g *TrackGraph) Node(id NodeID) (TrackNode, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return TrackNode{}, false
	}
	return *node, true
}

// Nodes returns all nodes ordered by ID
func (g *TrackGraph) Nodes() []TrackNode {
	out := make([]TrackNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		out = append(out, *node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all live edges ordered by ID
func (g *TrackGraph) Edges() []TrackEdge {
	out := make([]TrackEdge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.removed {
			continue
		}
		out = append(out, e)
	}
	return out
}
