package railswitch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yardLayout = `
nodes:
  - {name: approach, x: 0, y: 64, z: -10}
  - {name: points, x: 0, y: 64, z: 0}
  - {name: main, x: 0, y: 64, z: 8}
  - {name: siding, x: 3, y: 64, z: 8}
  - {name: siding_end, x: 3, y: 64, z: 20}
tracks:
  - [approach, points]
  - [points, main]
  - [points, siding]
  - [siding, siding_end]
switches:
  - name: yard_entry
    from: approach
    to: points
    state: REVERSE_LEFT
    automatic: true
  - name: siding_stub
    from: points
    to: siding
    state: reverse_right
`

func TestLayoutConfiguration_Build(t *testing.T) {
	cfg, err := ParseLayoutConfiguration([]byte(yardLayout))
	require.NoError(t, err)
	require.Len(t, cfg.Nodes, 5)
	require.Len(t, cfg.Tracks, 4)

	world, err := cfg.Build()
	require.NoError(t, err)
	assert.Len(t, world.Graph().Nodes(), 5)
	assert.Len(t, world.Graph().Edges(), 8)

	entry, ok := world.Switch(SwitchIDFromName("yard_entry"))
	require.True(t, ok)
	assert.True(t, entry.IsAutomatic())
	assert.Equal(t, STATE_REVERSE_LEFT, entry.State())
	target, ok := entry.Target()
	require.True(t, ok)
	assert.Equal(t, Location{X: 3, Y: 64, Z: 8}, target)

	// Only one exit: requested reverse state is not applied
	stub, ok := world.Switch(SwitchIDFromName("siding_stub"))
	require.True(t, ok)
	assert.False(t, stub.IsAutomatic())
	assert.Equal(t, STATE_NORMAL, stub.State())
	assert.Equal(t, []Location{{X: 3, Y: 64, Z: 20}}, stub.Exits())
}

func TestLayoutConfiguration_UnknownStateLabel(t *testing.T) {
	cfg, err := ParseLayoutConfiguration([]byte(`
nodes:
  - {name: a, z: -5}
  - {name: b}
  - {name: c, z: 5}
tracks: [[a, b], [b, c]]
switches:
  - {name: sw, from: a, to: b, state: sideways}
`))
	require.NoError(t, err)
	world, err := cfg.Build()
	require.NoError(t, err)
	sw, ok := world.Switch(SwitchIDFromName("sw"))
	require.True(t, ok)
	assert.Equal(t, STATE_NORMAL, sw.State())
}

func TestLayoutConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"unnamed node", "nodes: [{x: 1}]"},
		{"duplicate node", "nodes: [{name: a}, {name: a, x: 1}]"},
		{"shared location", "nodes: [{name: a}, {name: b}]"},
		{"unknown track node", "nodes: [{name: a}]\ntracks: [[a, b]]"},
		{"unknown switch node", "nodes: [{name: a}, {name: b, z: 1}]\ntracks: [[a, b]]\nswitches: [{name: s, from: a, to: c}]"},
		{"switch without track", "nodes: [{name: a}, {name: b, z: 1}]\nswitches: [{name: s, from: a, to: b}]"},
		{"duplicate switch", "nodes: [{name: a}, {name: b, z: 1}]\ntracks: [[a, b]]\nswitches: [{name: s, from: a, to: b}, {name: s, from: b, to: a}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseLayoutConfiguration([]byte(tt.layout))
			require.NoError(t, err)
			_, err = cfg.Build()
			assert.Error(t, err)
		})
	}

	_, err := ParseLayoutConfiguration([]byte("nodes: {"))
	assert.Error(t, err)
}

func TestReadLayoutConfiguration(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "yard.yaml")
	require.NoError(t, os.WriteFile(fname, []byte(yardLayout), 0o644))

	cfg, err := ReadLayoutConfiguration(fname)
	require.NoError(t, err)
	assert.Len(t, cfg.Switches, 2)

	_, err = ReadLayoutConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
