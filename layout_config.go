package railswitch

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// layoutNamespace derives stable switch IDs from names in layout files
var layoutNamespace = uuid.MustParse("6f0c7c8e-3b59-4f7e-9a57-6a1f3c2d9e10")

// LayoutConfiguration describes a track layout: named nodes, tracks between them and switches
type LayoutConfiguration struct {
	Nodes    []NodeConfiguration   `yaml:"nodes"`
	Tracks   [][2]string           `yaml:"tracks"`
	Switches []SwitchConfiguration `yaml:"switches"`
}

// NodeConfiguration is a named point of a layout
type NodeConfiguration struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Z    float64 `yaml:"z"`
}

// SwitchConfiguration places a switch on track From→To. Switch point is To.
type SwitchConfiguration struct {
	Name      string `yaml:"name"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	State     string `yaml:"state"`
	Automatic bool   `yaml:"automatic"`
}

// SwitchIDFromName returns ID which a layout file assigns to switch with given name
func SwitchIDFromName(name string) uuid.UUID {
	return uuid.NewSHA1(layoutNamespace, []byte(name))
}

// ReadLayoutConfiguration reads YAML layout from file
func ReadLayoutConfiguration(fileName string) (*LayoutConfiguration, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read layout file")
	}
	return ParseLayoutConfiguration(data)
}

// ParseLayoutConfiguration parses YAML layout
func ParseLayoutConfiguration(data []byte) (*LayoutConfiguration, error) {
	cfg := LayoutConfiguration{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "Can't parse layout")
	}
	return &cfg, nil
}

// Build creates world described by the layout. Unknown switch state labels fall back to a valid state.
func (cfg *LayoutConfiguration) Build(options ...func(*World)) (*World, error) {
	graph := NewTrackGraph()
	locations := make(map[string]Location, len(cfg.Nodes))
	for _, node := range cfg.Nodes {
		if node.Name == "" {
			return nil, errors.New("Node without name")
		}
		if _, ok := locations[node.Name]; ok {
			return nil, errors.Errorf("Duplicate node '%s'", node.Name)
		}
		loc := Location{X: node.X, Y: node.Y, Z: node.Z}
		if _, ok := graph.LocateNode(loc); ok {
			return nil, errors.Errorf("Node '%s' shares location %s with another node", node.Name, loc)
		}
		locations[node.Name] = loc
		graph.AddNode(loc, node.Name)
	}
	lookup := func(name string) (NodeID, error) {
		loc, ok := locations[name]
		if !ok {
			return -1, errors.Errorf("Unknown node '%s'", name)
		}
		id, _ := graph.LocateNode(loc)
		return id, nil
	}
	for i, track := range cfg.Tracks {
		a, err := lookup(track[0])
		if err != nil {
			return nil, errors.Wrapf(err, "Track %d", i)
		}
		b, err := lookup(track[1])
		if err != nil {
			return nil, errors.Wrapf(err, "Track %d", i)
		}
		if _, _, err := graph.Connect(a, b); err != nil {
			return nil, errors.Wrapf(err, "Track %d", i)
		}
	}

	world := NewWorld(graph, options...)
	for _, swCfg := range cfg.Switches {
		from, ok := locations[swCfg.From]
		if !ok {
			return nil, errors.Errorf("Switch '%s': unknown node '%s'", swCfg.Name, swCfg.From)
		}
		to, ok := locations[swCfg.To]
		if !ok {
			return nil, errors.Errorf("Switch '%s': unknown node '%s'", swCfg.Name, swCfg.To)
		}
		sw, err := world.AddSwitch(from, to,
			WithID(SwitchIDFromName(swCfg.Name)),
			WithAutomatic(swCfg.Automatic),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "Switch '%s'", swCfg.Name)
		}
		if swCfg.State != "" {
			if state, ok := ParseSwitchState(swCfg.State); ok {
				sw.SetState(state)
			}
		}
	}
	return world, nil
}
