package railswitch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func junctionWorld(t *testing.T) (*junction, *World, *TrackSwitch) {
	t.Helper()
	j := newJunction(t)
	world := NewWorld(j.graph)
	sw, err := world.AddSwitch(j.locA, j.locP, WithInitialState(STATE_REVERSE_LEFT))
	require.NoError(t, err)
	world.SyncEdges()
	return j, world, sw
}

func TestWorld_ExportGeoJSON(t *testing.T) {
	j, world, sw := junctionWorld(t)

	data, err := world.ExportGeoJSON()
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, len(j.graph.Edges())+1)

	enabled := 0
	var switchFeature *geojson.Feature
	for _, f := range fc.Features {
		kind, err := f.PropertyString("kind")
		require.NoError(t, err)
		switch kind {
		case "edge":
			require.True(t, f.Geometry.IsLineString())
			on, err := f.PropertyBool("enabled")
			require.NoError(t, err)
			if on {
				enabled++
			}
		case "switch":
			switchFeature = f
		}
	}
	// Both directions of approach and of the left branch
	assert.Equal(t, 4, enabled)

	require.NotNil(t, switchFeature)
	require.True(t, switchFeature.Geometry.IsPoint())
	id, err := switchFeature.PropertyString("id")
	require.NoError(t, err)
	assert.Equal(t, sw.ID.String(), id)
	state, err := switchFeature.PropertyString("state")
	require.NoError(t, err)
	assert.Equal(t, "reverse_left", state)
	exits, ok := switchFeature.Properties["exits"].([]interface{})
	require.True(t, ok)
	assert.Len(t, exits, 3)
	// North-up: left branch at X=2 and Z=5 is drawn at (2, -5)
	assert.Equal(t, []interface{}{2.0, -5.0}, switchFeature.Properties["target"])
}

func TestWKT(t *testing.T) {
	j, _, sw := junctionWorld(t)

	edge, ok := j.graph.Connection(j.p, j.s)
	require.True(t, ok)
	wkt, ok := j.graph.EdgeWKT(edge)
	require.True(t, ok)
	assert.Equal(t, "LINESTRING(0 0,0 -5)", wkt)

	_, ok = j.graph.EdgeWKT(EdgeID(1000))
	assert.False(t, ok)

	assert.Equal(t, "MULTILINESTRING((0 0,2 -5),(0 0,0 -5),(0 0,-2 -5))", SwitchWKT(sw))
	assert.Equal(t, "MULTILINESTRING EMPTY", SwitchWKT(NewTrackSwitch()))
}

func TestWorld_ExportToCSV(t *testing.T) {
	j, world, sw := junctionWorld(t)
	fname := filepath.Join(t.TempDir(), "junction.csv")

	require.NoError(t, world.ExportToCSV(fname))

	edges := readCSV(t, strings.TrimSuffix(fname, ".csv")+"_edges.csv")
	require.Len(t, edges, len(j.graph.Edges())+1)
	assert.Equal(t, []string{"id", "source_node", "target_node", "length", "enabled", "geom"}, edges[0])

	switches := readCSV(t, strings.TrimSuffix(fname, ".csv")+"_switches.csv")
	require.Len(t, switches, 2)
	assert.Equal(t, sw.ID.String(), switches[1][0])
	assert.Equal(t, "reverse_left", switches[1][1])
	assert.Equal(t, "3", switches[1][3])
}

func readCSV(t *testing.T, fname string) [][]string {
	t.Helper()
	file, err := os.Open(fname)
	require.NoError(t, err)
	defer file.Close()
	reader := csv.NewReader(file)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	return records
}
