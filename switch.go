package railswitch

import (
	"io"
	"log"

	"github.com/google/uuid"
)

const (
	// edgesUpdatePeriod is number of pre-train ticks between two edge enablement passes
	edgesUpdatePeriod = 10
	// forcedTick makes next pre-train tick run edge enablement pass immediately
	forcedTick = 10000
)

// TrackSwitch is a switch placed on an edge of the track graph.
//
// The switch diverges at the far end (switch point) of its anchoring edge. Every node connected to the
// switch point and lying in front of it is an exit. One of the exits is the target: the only branch
// trains may take. All state is accessed from the simulation goroutine only.
type TrackSwitch struct {
	ID uuid.UUID

	edge           *EdgeLocation
	switchPoint    *Location
	classification ExitClassification
	state          SwitchState
	automatic      bool
	ticks          int

	notifier TrainNotifier
	logger   *log.Logger
}

// NewTrackSwitch returns switch which is not attached to any edge yet
func NewTrackSwitch(options ...func(*TrackSwitch)) *TrackSwitch {
	sw := &TrackSwitch{
		ID:       uuid.New(),
		state:    STATE_NORMAL,
		notifier: noopNotifier{},
		logger:   log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option(sw)
	}
	return sw
}

func WithID(id uuid.UUID) func(*TrackSwitch) {
	return func(sw *TrackSwitch) {
		sw.ID = id
	}
}

func WithAutomatic(automatic bool) func(*TrackSwitch) {
	return func(sw *TrackSwitch) {
		sw.automatic = automatic
	}
}

// WithInitialState sets requested state. It is repaired as soon as exits are known.
func WithInitialState(state SwitchState) func(*TrackSwitch) {
	return func(sw *TrackSwitch) {
		sw.state = state
	}
}

func WithNotifier(notifier TrainNotifier) func(*TrackSwitch) {
	return func(sw *TrackSwitch) {
		if notifier != nil {
			sw.notifier = notifier
		}
	}
}

func WithLogger(logger *log.Logger) func(*TrackSwitch) {
	return func(sw *TrackSwitch) {
		if logger != nil {
			sw.logger = logger
		}
	}
}

// Attach anchors switch to given edge, calculates exits using the graph and notifies trains
func (sw *TrackSwitch) Attach(g Graph, edge EdgeLocation) {
	sw.edge = &edge
	sw.RecalculateExits(g)
	sw.notifyTrains(g)
}

// OnRemoved releases edges managed by the switch and forgets its exits.
// Managed edges are enabled, not disabled, so that without a switch every branch is traversable.
func (sw *TrackSwitch) OnRemoved(g Graph) {
	sw.SetEdgesActive(g)
	sw.classification = ExitClassification{}
	sw.EnsureValidState()
}

func (sw *TrackSwitch) notifyTrains(g Graph) {
	if sw.edge == nil {
		return
	}
	edge, ok := sw.edge.Resolve(g)
	if !ok {
		return
	}
	sw.notifier.NotifyTrains(g, edge)
}

// RecalculateExits collects nodes connected to the switch point and classifies them again
func (sw *TrackSwitch) RecalculateExits(g Graph) {
	if sw.edge == nil {
		sw.classification = ExitClassification{}
		sw.EnsureValidState()
		return
	}
	switchPoint := sw.edge.Second
	sw.UpdateExits(switchPoint, exitCandidates(g, switchPoint))
}

func exitCandidates(g Graph, switchPoint Location) []Location {
	node, ok := g.LocateNode(switchPoint)
	if !ok {
		return nil
	}
	conns := g.ConnectionsFrom(node)
	candidates := make([]Location, 0, len(conns))
	for other := range conns {
		loc, ok := g.NodeLocation(other)
		if !ok {
			continue
		}
		candidates = append(candidates, loc)
	}
	return candidates
}

// UpdateExits replaces exits of the switch and repairs state if it became invalid
func (sw *TrackSwitch) UpdateExits(switchPoint Location, candidates []Location) {
	sw.switchPoint = &switchPoint
	if sw.edge == nil {
		sw.classification = ExitClassification{}
	} else {
		sw.classification = ClassifyExits(switchPoint, sw.edge.Direction(), candidates)
	}
	sw.EnsureValidState()
}

// Edge returns anchoring edge
func (sw *TrackSwitch) Edge() (EdgeLocation, bool) {
	if sw.edge == nil {
		return EdgeLocation{}, false
	}
	return *sw.edge, true
}

// SwitchPoint returns location exits radiate from
func (sw *TrackSwitch) SwitchPoint() (Location, bool) {
	if sw.switchPoint == nil {
		return Location{}, false
	}
	return *sw.switchPoint, true
}

// Exits returns copy of forward exits sorted from left to right
func (sw *TrackSwitch) Exits() []Location {
	out := make([]Location, len(sw.classification.Exits))
	copy(out, sw.classification.Exits)
	return out
}

// Classification returns copy of current exit classification. Nothing in it points into the switch.
func (sw *TrackSwitch) Classification() ExitClassification {
	return ExitClassification{
		Exits:    sw.Exits(),
		Straight: copyLocation(sw.classification.Straight),
		Left:     copyLocation(sw.classification.Left),
		Right:    copyLocation(sw.classification.Right),
	}
}

func copyLocation(loc *Location) *Location {
	if loc == nil {
		return nil
	}
	out := *loc
	return &out
}

func (sw *TrackSwitch) HasStraightExit() bool {
	return sw.classification.Straight != nil
}

func (sw *TrackSwitch) HasLeftExit() bool {
	return sw.classification.Left != nil
}

func (sw *TrackSwitch) HasRightExit() bool {
	return sw.classification.Right != nil
}

func (sw *TrackSwitch) IsAutomatic() bool {
	return sw.automatic
}

func (sw *TrackSwitch) SetAutomatic(automatic bool) {
	sw.automatic = automatic
}

// IsStateValid reports whether exit selected by state exists
func (sw *TrackSwitch) IsStateValid(state SwitchState) bool {
	switch state {
	case STATE_NORMAL:
		return sw.HasStraightExit()
	case STATE_REVERSE_LEFT:
		return sw.HasLeftExit()
	case STATE_REVERSE_RIGHT:
		return sw.HasRightExit()
	default:
		return false
	}
}

func (sw *TrackSwitch) validState() SwitchState {
	for _, state := range statePriority {
		if sw.IsStateValid(state) {
			return state
		}
	}
	return STATE_NORMAL
}

// EnsureValidState replaces invalid state with the first valid one (normal, reverse right, reverse left).
// Falls back to STATE_NORMAL when the switch has no exits.
func (sw *TrackSwitch) EnsureValidState() {
	if !sw.IsStateValid(sw.state) {
		sw.state = sw.validState()
	}
}

// SetState selects branch. Invalid or unchanged states are ignored.
// Accepted change makes the next pre-train tick update edges.
func (sw *TrackSwitch) SetState(state SwitchState) {
	if sw.IsStateValid(state) && sw.state != state {
		sw.state = state
		sw.ticks = forcedTick
	}
}

// CycleState selects the next valid state after the current one in priority order
func (sw *TrackSwitch) CycleState() {
	current := 0
	for i, state := range statePriority {
		if state == sw.state {
			current = i
			break
		}
	}
	for i := 1; i < len(statePriority); i++ {
		next := statePriority[(current+i)%len(statePriority)]
		if sw.IsStateValid(next) {
			sw.SetState(next)
			return
		}
	}
}

// State returns selected branch
func (sw *TrackSwitch) State() SwitchState {
	return sw.state
}

// Target returns exit selected by current state. Validity is not repaired here.
func (sw *TrackSwitch) Target() (Location, bool) {
	var target *Location
	switch sw.state {
	case STATE_NORMAL:
		target = sw.classification.Straight
	case STATE_REVERSE_LEFT:
		target = sw.classification.Left
	case STATE_REVERSE_RIGHT:
		target = sw.classification.Right
	}
	if target == nil {
		return Location{}, false
	}
	return *target, true
}

// Tick advances switch by one simulation tick. Edges are updated every edgesUpdatePeriod pre-train ticks
// or on the first pre-train tick after a state change.
func (sw *TrackSwitch) Tick(g Graph, preTrains bool) {
	if !preTrains {
		return
	}
	sw.ticks++
	if sw.ticks < edgesUpdatePeriod {
		return
	}
	sw.ticks = 0
	sw.UpdateEdges(g)
}
