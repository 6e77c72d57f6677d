package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/LdDl/railswitch"
)

type Globals struct {
	DB      string `help:"BadgerDB directory keeping switch states between runs" type:"path"`
	Verbose bool   `short:"v" help:"Print what switches do"`
}

type cli struct {
	Globals

	Inspect   InspectCmd   `cmd:"" help:"Print switches of a layout with their exits"`
	Set       SetCmd       `cmd:"" help:"Change state of a switch and propagate it to the tracks"`
	Probe     ProbeCmd     `cmd:"" help:"Check which exits of every switch are reachable"`
	ImportOSM ImportOSMCmd `cmd:"" name:"import-osm" help:"Build tracks and switches from OSM railway data"`
}

type ExportFlags struct {
	GeoJSON string `name:"geojson" help:"Write GeoJSON of tracks and switches into this file" type:"path"`
	CSV     string `name:"csv" help:"Write CSV of tracks and switches (<name>_edges.csv, <name>_switches.csv)" type:"path"`
}

func (e ExportFlags) export(world *railswitch.World) error {
	if e.GeoJSON != "" {
		b, err := world.ExportGeoJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(e.GeoJSON, b, 0o644); err != nil {
			return errors.Wrap(err, "Can't write GeoJSON")
		}
		color.Green("GeoJSON written to %s", e.GeoJSON)
	}
	if e.CSV != "" {
		if err := world.ExportToCSV(e.CSV); err != nil {
			return err
		}
		color.Green("CSV written next to %s", e.CSV)
	}
	return nil
}

// InspectCmd prints switches of a layout
type InspectCmd struct {
	Layout string `arg:"" help:"Layout YAML file" type:"existingfile"`
}

func (c *InspectCmd) Run(g *Globals) error {
	cfg, world, err := openLayout(c.Layout, g)
	if err != nil {
		return err
	}
	for _, swCfg := range cfg.Switches {
		sw, ok := world.Switch(railswitch.SwitchIDFromName(swCfg.Name))
		if !ok {
			continue
		}
		printSwitch(swCfg.Name, sw)
	}
	return nil
}

// SetCmd changes state of a switch
type SetCmd struct {
	Layout string `arg:"" help:"Layout YAML file" type:"existingfile"`
	Switch string `arg:"" help:"Switch name"`
	State  string `arg:"" help:"normal, reverse_left or reverse_right"`
	Ticks  int    `help:"Ticks to simulate after the change" default:"1"`
	ExportFlags
}

func (c *SetCmd) Run(g *Globals) error {
	_, world, err := openLayout(c.Layout, g)
	if err != nil {
		return err
	}
	state, ok := railswitch.ParseSwitchState(c.State)
	if !ok {
		return errors.Errorf("Unknown state '%s'", c.State)
	}
	id := railswitch.SwitchIDFromName(c.Switch)
	sw, ok := world.Switch(id)
	if !ok {
		return errors.Errorf("No switch '%s' in layout", c.Switch)
	}
	before := sw.State()
	world.SetState(id, state)
	if sw.State() != state {
		color.Yellow("Switch %s has no %s exit, state stays %s", c.Switch, state, sw.State())
	}
	for i := 0; i < c.Ticks; i++ {
		world.Tick()
	}
	fmt.Printf("%s: %s -> %s\n", c.Switch, before, sw.State())
	printSwitch(c.Switch, sw)
	if err := saveStates(g, world); err != nil {
		return err
	}
	return c.export(world)
}

// ProbeCmd checks reachability of exits
type ProbeCmd struct {
	Layout string `arg:"" help:"Layout YAML file" type:"existingfile"`
}

func (c *ProbeCmd) Run(g *Globals) error {
	cfg, world, err := openLayout(c.Layout, g)
	if err != nil {
		return err
	}
	probe, err := railswitch.NewReachabilityProbe(world.Graph())
	if err != nil {
		return err
	}
	for _, swCfg := range cfg.Switches {
		sw, ok := world.Switch(railswitch.SwitchIDFromName(swCfg.Name))
		if !ok {
			continue
		}
		reachability := probe.ExitReachability(sw)
		classification := sw.Classification()
		fmt.Printf("%s (%s):\n", swCfg.Name, sw.State())
		for _, exit := range classification.Exits {
			if reachability[exit] {
				color.Green("\t%-8s %s reachable", classification.RoleOf(exit), exit)
			} else {
				color.Red("\t%-8s %s blocked", classification.RoleOf(exit), exit)
			}
		}
	}
	return nil
}

// ImportOSMCmd builds world from OSM file
type ImportOSMCmd struct {
	File  string   `arg:"" help:"*.osm, *.xml or *.osm.pbf file" type:"existingfile"`
	Types []string `help:"Values of railway tag to import" default:"rail,light_rail,narrow_gauge,subway,tram"`
	ExportFlags
}

func (c *ImportOSMCmd) Run(g *Globals) error {
	importer := railswitch.NewRailImporter(c.File,
		railswitch.WithRailwayTypes(c.Types),
		railswitch.WithVerbose(g.Verbose),
	)
	if g.Verbose {
		fmt.Println(importer)
	}
	world, err := importer.Import(worldOptions(g)...)
	if err != nil {
		return errors.Wrap(err, "Can't import OSM file")
	}
	if err := restoreStates(g, world); err != nil {
		return err
	}
	world.SyncEdges()
	color.Green("Imported %d nodes, %d edges, %d switches", len(world.Graph().Nodes()), len(world.Graph().Edges()), len(world.Switches()))
	for _, sw := range world.Switches() {
		printSwitch(sw.ID.String(), sw)
	}
	if err := saveStates(g, world); err != nil {
		return err
	}
	return c.export(world)
}

func worldOptions(g *Globals) []func(*railswitch.World) {
	if !g.Verbose {
		return nil
	}
	return []func(*railswitch.World){railswitch.WithWorldLogger(log.New(os.Stderr, "[railswitch] ", log.LstdFlags))}
}

func openLayout(fileName string, g *Globals) (*railswitch.LayoutConfiguration, *railswitch.World, error) {
	cfg, err := railswitch.ReadLayoutConfiguration(fileName)
	if err != nil {
		return nil, nil, err
	}
	world, err := cfg.Build(worldOptions(g)...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't build layout")
	}
	if err := restoreStates(g, world); err != nil {
		return nil, nil, err
	}
	world.SyncEdges()
	return cfg, world, nil
}

// restoreStates applies states saved in DB to switches of the world
func restoreStates(g *Globals, world *railswitch.World) error {
	if g.DB == "" {
		return nil
	}
	store, err := railswitch.OpenSwitchStore(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	saved, err := store.All()
	if err != nil {
		return err
	}
	for _, sw := range saved {
		world.SetState(sw.ID, sw.State())
		if live, ok := world.Switch(sw.ID); ok {
			live.SetAutomatic(sw.IsAutomatic())
		}
	}
	return nil
}

func saveStates(g *Globals, world *railswitch.World) error {
	if g.DB == "" {
		return nil
	}
	store, err := railswitch.OpenSwitchStore(g.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, sw := range world.Switches() {
		if err := store.Put(sw); err != nil {
			return err
		}
	}
	return nil
}

func printSwitch(name string, sw *railswitch.TrackSwitch) {
	classification := sw.Classification()
	target, hasTarget := sw.Target()
	automatic := ""
	if sw.IsAutomatic() {
		automatic = " automatic"
	}
	color.Cyan("%s [%s%s]", name, sw.State(), automatic)
	if len(classification.Exits) == 0 {
		color.Yellow("\tno exits")
		return
	}
	roles := make([]string, 0, len(classification.Exits))
	for _, exit := range classification.Exits {
		role := classification.RoleOf(exit).String()
		if hasTarget && exit == target {
			role = "*" + role
		}
		roles = append(roles, fmt.Sprintf("%s %s", role, exit))
	}
	fmt.Printf("\t%s\n", strings.Join(roles, "\n\t"))
}

func main() {
	c := cli{}
	ctx := kong.Parse(&c,
		kong.Name("railswitch"),
		kong.Description("Classify exits of track switches and propagate selected branches to the track graph."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&c.Globals)
	ctx.FatalIfErrorf(err)
}
