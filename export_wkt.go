package railswitch

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// EdgeWKT returns WKT representation of edge on X/Z plane
func (g *TrackGraph) EdgeWKT(id EdgeID) (string, bool) {
	edge, ok := g.Edge(id)
	if !ok {
		return "", false
	}
	from, _ := g.NodeLocation(edge.Source)
	to, _ := g.NodeLocation(edge.Target)
	return wkt.MarshalString(planarLine(from, to)), true
}

// SwitchWKT returns WKT representation of switch: lines from switch point to each exit.
// Target branch goes first.
func SwitchWKT(sw *TrackSwitch) string {
	switchPoint, ok := sw.SwitchPoint()
	if !ok {
		return wkt.MarshalString(orb.MultiLineString{})
	}
	branches := orb.MultiLineString{}
	target, hasTarget := sw.Target()
	if hasTarget {
		branches = append(branches, planarLine(switchPoint, target))
	}
	for _, exit := range sw.Exits() {
		if hasTarget && exit == target {
			continue
		}
		branches = append(branches, planarLine(switchPoint, exit))
	}
	return wkt.MarshalString(branches)
}
