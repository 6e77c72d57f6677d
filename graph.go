package railswitch

// NodeID addresses a node of a track graph
type NodeID int64

// EdgeID addresses an edge of a track graph
type EdgeID int64

// Graph is what a switch needs from the world's track graph
type Graph interface {
	// LocateNode returns node placed at given location
	LocateNode(loc Location) (NodeID, bool)
	// NodeLocation returns location of given node
	NodeLocation(id NodeID) (Location, bool)
	// ConnectionsFrom returns edges leaving given node keyed by their far node. Nil if node is unknown.
	ConnectionsFrom(node NodeID) map[NodeID]EdgeID
	// Connection returns edge going from one node to another
	Connection(from, to NodeID) (EdgeID, bool)
	// SetEnabled marks edge as traversable or not
	SetEnabled(edge EdgeID, enabled bool)
}

// TrainNotifier is informed when edges reachable by trains may have changed.
// World calls it after releasing its lock, so implementations may query or modify the world.
type TrainNotifier interface {
	NotifyTrains(g Graph, edge EdgeID)
}

// TrainNotifierFunc is an adapter to allow the use of ordinary functions as TrainNotifier
type TrainNotifierFunc func(g Graph, edge EdgeID)

// NotifyTrains calls f(g, edge)
func (f TrainNotifierFunc) NotifyTrains(g Graph, edge EdgeID) {
	f(g, edge)
}

type noopNotifier struct{}

func (noopNotifier) NotifyTrains(Graph, EdgeID) {}

// EdgeLocation is a directed pair of locations identifying an edge independently of graph indexing
type EdgeLocation struct {
	First  Location
	Second Location
}

// Direction returns vector from first to second location
func (el EdgeLocation) Direction() Vec3 {
	return el.First.VectorTo(el.Second)
}

// Resolve returns edge of the graph for given pair of locations
func (el EdgeLocation) Resolve(g Graph) (EdgeID, bool) {
	from, ok := g.LocateNode(el.First)
	if !ok {
		return -1, false
	}
	to, ok := g.LocateNode(el.Second)
	if !ok {
		return -1, false
	}
	return g.Connection(from, to)
}
