package railswitch

import (
	"math"
)

// UpdateEdges enables edges leading to the target exit and disables edges of every other exit
func (sw *TrackSwitch) UpdateEdges(g Graph) {
	sw.updateEdges(g, false)
}

// SetEdgesActive enables edges of every exit regardless of the target
func (sw *TrackSwitch) SetEdgesActive(g Graph) {
	sw.updateEdges(g, true)
}

func (sw *TrackSwitch) updateEdges(g Graph, forceActive bool) {
	if sw.switchPoint == nil {
		return
	}
	from := *sw.switchPoint
	target, hasTarget := sw.Target()
	for _, to := range sw.classification.Exits {
		enabled := forceActive || (hasTarget && target == to)
		toNode, ok := g.LocateNode(to)
		if !ok {
			sw.logger.Printf("switch %s: exit %s is not in graph, skipping", sw.ID, to)
			continue
		}
		connections := g.ConnectionsFrom(toNode)
		if len(connections) == 0 {
			sw.logger.Printf("switch %s: exit %s has no connections, skipping", sw.ID, to)
			continue
		}
		closestNode, closestEdge, found := closestConnection(g, connections, from)
		if !found {
			sw.logger.Printf("switch %s: no edge of exit %s leads towards switch point, skipping", sw.ID, to)
			continue
		}
		g.SetEnabled(closestEdge, enabled)
		if reverseEdge, ok := g.Connection(closestNode, toNode); ok {
			g.SetEnabled(reverseEdge, enabled)
		}
	}
}

// closestConnection picks connection whose far node is the nearest to given location.
// Equal distances are resolved by the smaller node ID.
func closestConnection(g Graph, connections map[NodeID]EdgeID, loc Location) (NodeID, EdgeID, bool) {
	var closestNode NodeID
	var closestEdge EdgeID
	closestDistance := math.MaxFloat64
	found := false
	for otherNode, edge := range connections {
		otherLoc, ok := g.NodeLocation(otherNode)
		if !ok {
			continue
		}
		distance := otherLoc.DistSqr(loc)
		if distance < closestDistance || (distance == closestDistance && found && otherNode < closestNode) {
			closestDistance = distance
			closestNode = otherNode
			closestEdge = edge
			found = true
		}
	}
	return closestNode, closestEdge, found
}
