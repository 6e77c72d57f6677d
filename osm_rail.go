package railswitch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

// osmNamespace derives stable switch IDs from OSM node IDs
var osmNamespace = uuid.MustParse("0b8f7a52-55c8-4f3a-8d0e-4c7f2a1b9d33")

// DefaultRailwayTypes are values of `railway` tag which are imported as tracks
var DefaultRailwayTypes = []string{"rail", "light_rail", "narrow_gauge", "subway", "tram"}

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// RailImporter builds a World from railway data of OSM file (*.osm, *.xml or *.osm.pbf)
type RailImporter struct {
	filename     string
	railwayTypes []string
	verbose      bool
	logger       *log.Logger
}

func (imp *RailImporter) String() string {
	return fmt.Sprintf(`
Railway importer parameters:
	filename: '%s'
	railway_types: '%s'
	verbose: %t
	`,
		imp.filename,
		strings.Join(imp.railwayTypes, ","),
		imp.verbose,
	)
}

func NewRailImporter(fileName string, options ...func(*RailImporter)) *RailImporter {
	imp := &RailImporter{
		filename:     fileName,
		railwayTypes: DefaultRailwayTypes,
		verbose:      false,
		logger:       log.New(os.Stdout, "", 0),
	}
	for _, option := range options {
		option(imp)
	}
	return imp
}

func WithRailwayTypes(railwayTypes []string) func(*RailImporter) {
	return func(imp *RailImporter) {
		imp.railwayTypes = railwayTypes
	}
}

func WithVerbose(verbose bool) func(*RailImporter) {
	return func(imp *RailImporter) {
		imp.verbose = verbose
	}
}

func WithImportLogger(logger *log.Logger) func(*RailImporter) {
	return func(imp *RailImporter) {
		if logger != nil {
			imp.logger = logger
		}
	}
}

func (imp *RailImporter) printf(format string, v ...interface{}) {
	if imp.verbose {
		imp.logger.Printf(format, v...)
	}
}

type railNode struct {
	geom     GeoPoint
	ele      float64
	isSwitch bool
}

func newScanner(filename string, file io.Reader) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// Import reads railway ways and their nodes and creates switches at nodes tagged `railway=switch`
func (imp *RailImporter) Import(options ...func(*World)) (*World, error) {
	file, err := os.Open(imp.filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open file")
	}
	defer file.Close()

	/* Process ways */
	imp.printf("Processing ways...")
	st := time.Now()
	ways := [][]osm.NodeID{}
	nodesSeen := make(map[osm.NodeID]struct{})
	{
		scannerWays, err := newScanner(imp.filename, file)
		if err != nil {
			return nil, err
		}
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != osm.TypeWay {
				continue
			}
			way := obj.(*osm.Way)
			if !imp.isTrack(way.Tags.Find("railway")) {
				continue
			}
			nodes := make([]osm.NodeID, 0, len(way.Nodes))
			for _, node := range way.Nodes {
				nodesSeen[node.ID] = struct{}{}
				nodes = append(nodes, node.ID)
			}
			ways = append(ways, nodes)
		}
		err = scannerWays.Err()
		scannerWays.Close()
		if err != nil {
			return nil, errors.Wrap(err, "Can't scan ways")
		}
	}
	imp.printf("Done in %v. Ways: %d", time.Since(st), len(ways))

	// Seek file to start
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	imp.printf("Processing nodes...")
	st = time.Now()
	nodes := make(map[osm.NodeID]railNode, len(nodesSeen))
	{
		scannerNodes, err := newScanner(imp.filename, file)
		if err != nil {
			return nil, err
		}
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != osm.TypeNode {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := nodesSeen[node.ID]; !ok {
				continue
			}
			ele, _ := strconv.ParseFloat(node.Tags.Find("ele"), 64)
			nodes[node.ID] = railNode{
				geom:     GeoPoint{Lat: node.Lat, Lon: node.Lon},
				ele:      ele,
				isSwitch: node.Tags.Find("railway") == "switch",
			}
		}
		err = scannerNodes.Err()
		scannerNodes.Close()
		if err != nil {
			return nil, errors.Wrap(err, "Can't scan nodes")
		}
	}
	imp.printf("Done in %v. Nodes: %d", time.Since(st), len(nodes))

	return imp.build(ways, nodes, options...)
}

func (imp *RailImporter) isTrack(railway string) bool {
	for i := range imp.railwayTypes {
		if imp.railwayTypes[i] == railway {
			return true
		}
	}
	return false
}

func (imp *RailImporter) build(ways [][]osm.NodeID, nodes map[osm.NodeID]railNode, options ...func(*World)) (*World, error) {
	graph := NewTrackGraph()
	ids := make(map[osm.NodeID]NodeID, len(nodes))
	nodeID := func(osmID osm.NodeID) (NodeID, bool) {
		if id, ok := ids[osmID]; ok {
			return id, true
		}
		node, ok := nodes[osmID]
		if !ok {
			return -1, false
		}
		id := graph.AddNode(geoToLocation(node.geom, node.ele), strconv.FormatInt(int64(osmID), 10))
		ids[osmID] = id
		return id, true
	}
	missing := 0
	for _, way := range ways {
		for i := 1; i < len(way); i++ {
			a, okA := nodeID(way[i-1])
			b, okB := nodeID(way[i])
			if !okA || !okB {
				missing++
				continue
			}
			if a == b {
				continue
			}
			length := 1000 * greatCircleDistance(nodes[way[i-1]].geom, nodes[way[i]].geom)
			if _, _, err := graph.ConnectWithLength(a, b, length); err != nil {
				return nil, errors.Wrap(err, "Can't connect way nodes")
			}
		}
	}
	if missing > 0 {
		imp.printf("Skipped %d way segments referencing nodes missing in file", missing)
	}

	switchNodes := make([]osm.NodeID, 0)
	for osmID, node := range nodes {
		if node.isSwitch {
			switchNodes = append(switchNodes, osmID)
		}
	}
	sort.Slice(switchNodes, func(i, j int) bool { return switchNodes[i] < switchNodes[j] })

	world := NewWorld(graph, options...)
	placed := 0
	for _, osmID := range switchNodes {
		id, ok := ids[osmID]
		if !ok {
			continue
		}
		approach, ok := approachNode(graph, id)
		if !ok {
			imp.printf("Switch node %d: no approach track with two or more branches ahead, skipping", osmID)
			continue
		}
		from, _ := graph.NodeLocation(approach)
		to, _ := graph.NodeLocation(id)
		_, err := world.AddSwitch(from, to, WithID(uuid.NewSHA1(osmNamespace, []byte(strconv.FormatInt(int64(osmID), 10)))))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't place switch at node %d", osmID)
		}
		placed++
	}
	imp.printf("Switches placed: %d of %d", placed, len(switchNodes))
	return world, nil
}

// approachNode finds neighbour of switch node from which at least two other neighbours lie ahead.
// Such neighbour is the toe of the switch. Among several candidates the one with most branches ahead
// wins, then the one with smaller node ID.
func approachNode(g *TrackGraph, switchNode NodeID) (NodeID, bool) {
	switchLoc, _ := g.NodeLocation(switchNode)
	conns := g.ConnectionsFrom(switchNode)
	neighbours := make([]NodeID, 0, len(conns))
	for other := range conns {
		neighbours = append(neighbours, other)
	}
	sort.Slice(neighbours, func(i, j int) bool { return neighbours[i] < neighbours[j] })

	best, bestAhead := NodeID(-1), 1
	for _, candidate := range neighbours {
		candidateLoc, _ := g.NodeLocation(candidate)
		forward := candidateLoc.VectorTo(switchLoc)
		ahead := 0
		for _, other := range neighbours {
			if other == candidate {
				continue
			}
			otherLoc, _ := g.NodeLocation(other)
			if forward.Dot(switchLoc.VectorTo(otherLoc)) > 0 {
				ahead++
			}
		}
		if ahead > bestAhead {
			best, bestAhead = candidate, ahead
		}
	}
	return best, best >= 0
}
