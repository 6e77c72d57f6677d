package railswitch

import (
	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// ReachabilityProbe answers whether one node can be reached from another using enabled edges only.
// It is a snapshot: rebuild it after switches update edges.
type ReachabilityProbe struct {
	graph *TrackGraph
	ch    ch.Graph
}

// NewReachabilityProbe prepares contraction hierarchies over enabled edges of the graph
func NewReachabilityProbe(g *TrackGraph) (*ReachabilityProbe, error) {
	probe := &ReachabilityProbe{graph: g}
	for _, node := range g.Nodes() {
		err := probe.ch.CreateVertex(int64(node.ID))
		if err != nil {
			return nil, errors.Wrapf(err, "Can not create vertex %d", node.ID)
		}
	}
	for _, edge := range g.Edges() {
		if !edge.Enabled {
			continue
		}
		err := probe.ch.AddEdge(int64(edge.Source), int64(edge.Target), edge.Length)
		if err != nil {
			return nil, errors.Wrapf(err, "Can not wrap Source and Target vertices as Edge %d", edge.ID)
		}
	}
	probe.ch.PrepareContractionHierarchies()
	return probe, nil
}

// Reachable returns cost of the cheapest way between two locations over enabled edges
func (probe *ReachabilityProbe) Reachable(from, to Location) (float64, bool) {
	source, ok := probe.graph.LocateNode(from)
	if !ok {
		return -1, false
	}
	target, ok := probe.graph.LocateNode(to)
	if !ok {
		return -1, false
	}
	if source == target {
		return 0, true
	}
	cost, path := probe.ch.ShortestPath(int64(source), int64(target))
	if cost < 0 || len(path) == 0 {
		return -1, false
	}
	return cost, true
}

// ExitReachability reports for every exit of the switch whether it can be reached from the approach
// side of the switch (first location of its anchoring edge)
func (probe *ReachabilityProbe) ExitReachability(sw *TrackSwitch) map[Location]bool {
	result := make(map[Location]bool)
	edge, ok := sw.Edge()
	if !ok {
		return result
	}
	for _, exit := range sw.Exits() {
		_, reachable := probe.Reachable(edge.First, exit)
		result[exit] = reachable
	}
	return result
}
