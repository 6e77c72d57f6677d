package railswitch

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// ExportGeoJSON returns FeatureCollection with every track edge and every switch of the world.
// Coordinates are planar track space coordinates (X, -Z).
func (w *World) ExportGeoJSON() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fc := geojson.NewFeatureCollection()
	for _, edge := range w.graph.Edges() {
		from, _ := w.graph.NodeLocation(edge.Source)
		to, _ := w.graph.NodeLocation(edge.Target)
		line := planarLine(from, to)
		pts := make([][]float64, len(line))
		for i := range line {
			pts[i] = []float64{line[i].X(), line[i].Y()}
		}
		f := geojson.NewLineStringFeature(pts)
		f.SetProperty("kind", "edge")
		f.SetProperty("id", int64(edge.ID))
		f.SetProperty("source", int64(edge.Source))
		f.SetProperty("target", int64(edge.Target))
		f.SetProperty("length", edge.Length)
		f.SetProperty("enabled", edge.Enabled)
		fc.AddFeature(f)
	}
	for _, sw := range w.sortedSwitches() {
		switchPoint, ok := sw.SwitchPoint()
		if !ok {
			continue
		}
		pt := switchPoint.planar()
		f := geojson.NewPointFeature([]float64{pt.X(), pt.Y()})
		f.SetProperty("kind", "switch")
		f.SetProperty("id", sw.ID.String())
		f.SetProperty("state", sw.State().String())
		f.SetProperty("automatic", sw.IsAutomatic())
		classification := sw.Classification()
		exits := make([]map[string]interface{}, 0, len(classification.Exits))
		for _, exit := range classification.Exits {
			exitPt := exit.planar()
			exits = append(exits, map[string]interface{}{
				"role":  classification.RoleOf(exit).String(),
				"point": []float64{exitPt.X(), exitPt.Y()},
			})
		}
		f.SetProperty("exits", exits)
		if target, ok := sw.Target(); ok {
			targetPt := target.planar()
			f.SetProperty("target", []float64{targetPt.X(), targetPt.Y()})
		}
		fc.AddFeature(f)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't convert world to geojson format")
	}
	return b, nil
}
