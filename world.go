package railswitch

import (
	"io"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// World owns a track graph and the switches placed on it and advances them tick by tick.
//
// Train notifications raised by switches are queued while the world is locked and delivered after
// the lock is released, so a TrainNotifier may call back into the world.
type World struct {
	mu       sync.Mutex
	graph    *TrackGraph
	switches map[uuid.UUID]*TrackSwitch
	notifier TrainNotifier
	logger   *log.Logger
	tick     uint64
	pending  []trainNotification
}

type trainNotification struct {
	graph Graph
	edge  EdgeID
}

// NewWorld returns world around given graph
func NewWorld(graph *TrackGraph, options ...func(*World)) *World {
	w := &World{
		graph:    graph,
		switches: make(map[uuid.UUID]*TrackSwitch),
		notifier: noopNotifier{},
		logger:   log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func WithWorldNotifier(notifier TrainNotifier) func(*World) {
	return func(w *World) {
		if notifier != nil {
			w.notifier = notifier
		}
	}
}

func WithWorldLogger(logger *log.Logger) func(*World) {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Graph returns graph of the world. It must not be mutated concurrently with Tick.
func (w *World) Graph() *TrackGraph {
	return w.graph
}

// queueNotification is the notifier of every switch owned by the world. It runs with w.mu held.
func (w *World) queueNotification(g Graph, edge EdgeID) {
	w.pending = append(w.pending, trainNotification{graph: g, edge: edge})
}

// deliverNotifications passes queued notifications to the world's notifier. Must be called without w.mu held.
func (w *World) deliverNotifications() {
	w.mu.Lock()
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()
	for _, n := range pending {
		w.notifier.NotifyTrains(n.graph, n.edge)
	}
}

// AddSwitch places new switch on edge first→second
func (w *World) AddSwitch(first, second Location, options ...func(*TrackSwitch)) (*TrackSwitch, error) {
	sw, err := w.addSwitch(first, second, options...)
	w.deliverNotifications()
	return sw, err
}

func (w *World) addSwitch(first, second Location, options ...func(*TrackSwitch)) (*TrackSwitch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	edge := EdgeLocation{First: first, Second: second}
	if _, ok := edge.Resolve(w.graph); !ok {
		return nil, errors.Errorf("No edge %s -> %s in graph", first, second)
	}
	opts := append([]func(*TrackSwitch){WithNotifier(TrainNotifierFunc(w.queueNotification)), WithLogger(w.logger)}, options...)
	sw := NewTrackSwitch(opts...)
	if _, ok := w.switches[sw.ID]; ok {
		return nil, errors.Errorf("Switch %s already exists", sw.ID)
	}
	sw.Attach(w.graph, edge)
	w.switches[sw.ID] = sw
	w.logger.Printf("switch %s placed at %s with %d exits, state %s", sw.ID, second, len(sw.classification.Exits), sw.state)
	return sw, nil
}

// RestoreSwitch places previously persisted switch back on its edge
func (w *World) RestoreSwitch(sw *TrackSwitch) error {
	err := w.restoreSwitch(sw)
	w.deliverNotifications()
	return err
}

func (w *World) restoreSwitch(sw *TrackSwitch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	edge, ok := sw.Edge()
	if !ok {
		return errors.Errorf("Switch %s is not bound to an edge", sw.ID)
	}
	if _, ok := edge.Resolve(w.graph); !ok {
		return errors.Errorf("No edge %s -> %s in graph for switch %s", edge.First, edge.Second, sw.ID)
	}
	if _, ok := w.switches[sw.ID]; ok {
		return errors.Errorf("Switch %s already exists", sw.ID)
	}
	WithNotifier(TrainNotifierFunc(w.queueNotification))(sw)
	WithLogger(w.logger)(sw)
	state := sw.State()
	sw.Attach(w.graph, edge)
	// Topology may have been edited since the switch was saved
	sw.SetState(state)
	w.switches[sw.ID] = sw
	return nil
}

// RemoveSwitch detaches switch from the graph and forgets it
func (w *World) RemoveSwitch(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	sw, ok := w.switches[id]
	if !ok {
		return false
	}
	sw.OnRemoved(w.graph)
	delete(w.switches, id)
	return true
}

// Switch returns switch by ID
func (w *World) Switch(id uuid.UUID) (*TrackSwitch, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sw, ok := w.switches[id]
	return sw, ok
}

// Switches returns all switches ordered by ID
func (w *World) Switches() []*TrackSwitch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedSwitches()
}

func (w *World) sortedSwitches() []*TrackSwitch {
	out := make([]*TrackSwitch, 0, len(w.switches))
	for _, sw := range w.switches {
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// SetState changes state of given switch. Returns false if there is no such switch.
func (w *World) SetState(id uuid.UUID, state SwitchState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	sw, ok := w.switches[id]
	if !ok {
		return false
	}
	sw.SetState(state)
	return true
}

// RecalculateExits reclassifies exits of every switch. Call it after the graph topology changes.
func (w *World) RecalculateExits() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sw := range w.sortedSwitches() {
		sw.RecalculateExits(w.graph)
	}
}

// Tick advances every switch by one tick: pre-train phase then post-train phase
func (w *World) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tick++
	switches := w.sortedSwitches()
	for _, sw := range switches {
		sw.Tick(w.graph, true)
	}
	for _, sw := range switches {
		sw.Tick(w.graph, false)
	}
}

// Ticks returns number of ticks done so far
func (w *World) Ticks() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// SyncEdges runs edge enablement pass on every switch immediately
func (w *World) SyncEdges() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sw := range w.sortedSwitches() {
		sw.UpdateEdges(w.graph)
	}
}
