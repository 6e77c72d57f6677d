package railswitch

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// switchDocument is structured representation of TrackSwitch
type switchDocument struct {
	ID          uuid.UUID     `json:"ID"`
	Edge        *EdgeLocation `json:"Edge,omitempty"`
	SwitchPoint *Location     `json:"SwitchPoint,omitempty"`
	Exits       []Location    `json:"Exits"`
	SwitchState string        `json:"SwitchState"`
	Automatic   bool          `json:"Automatic"`
}

// MarshalJSON implements json.Marshaler
func (sw *TrackSwitch) MarshalJSON() ([]byte, error) {
	doc := switchDocument{
		ID:          sw.ID,
		Edge:        sw.edge,
		SwitchPoint: sw.switchPoint,
		Exits:       sw.Exits(),
		SwitchState: sw.state.String(),
		Automatic:   sw.automatic,
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown state label is repaired to a valid state.
func (sw *TrackSwitch) UnmarshalJSON(data []byte) error {
	doc := switchDocument{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "Can't decode switch document")
	}
	sw.ensureDefaults()
	sw.ID = doc.ID
	state, ok := ParseSwitchState(doc.SwitchState)
	if !ok {
		sw.logger.Printf("switch %s: unknown state '%s', repairing", doc.ID, doc.SwitchState)
	}
	sw.restore(doc.Edge, doc.SwitchPoint, doc.Exits, state, doc.Automatic)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler
func (sw *TrackSwitch) MarshalBinary() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Write(sw.ID[:])
	writeFlag(buf, sw.edge != nil)
	if sw.edge != nil {
		writeLocation(buf, sw.edge.First)
		writeLocation(buf, sw.edge.Second)
	}
	binary.Write(buf, binary.BigEndian, int32(sw.state))
	writeFlag(buf, sw.automatic)
	writeFlag(buf, sw.switchPoint != nil)
	if sw.switchPoint != nil {
		writeLocation(buf, *sw.switchPoint)
	}
	exits := sw.classification.Exits
	binary.Write(buf, binary.BigEndian, uint32(len(exits)))
	for _, exit := range exits {
		writeLocation(buf, exit)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Unknown state ordinal is repaired to a valid state.
func (sw *TrackSwitch) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var id uuid.UUID
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return errors.Wrap(err, "Can't read switch ID")
	}
	var edge *EdgeLocation
	hasEdge, err := readFlag(r)
	if err != nil {
		return errors.Wrap(err, "Can't read edge flag")
	}
	if hasEdge {
		first, err := readLocation(r)
		if err != nil {
			return errors.Wrap(err, "Can't read edge start")
		}
		second, err := readLocation(r)
		if err != nil {
			return errors.Wrap(err, "Can't read edge end")
		}
		edge = &EdgeLocation{First: first, Second: second}
	}
	var ordinal int32
	if err := binary.Read(r, binary.BigEndian, &ordinal); err != nil {
		return errors.Wrap(err, "Can't read switch state")
	}
	automatic, err := readFlag(r)
	if err != nil {
		return errors.Wrap(err, "Can't read automatic flag")
	}
	var switchPoint *Location
	hasSwitchPoint, err := readFlag(r)
	if err != nil {
		return errors.Wrap(err, "Can't read switch point flag")
	}
	if hasSwitchPoint {
		loc, err := readLocation(r)
		if err != nil {
			return errors.Wrap(err, "Can't read switch point")
		}
		switchPoint = &loc
	}
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return errors.Wrap(err, "Can't read exits count")
	}
	// Each exit takes 24 bytes: do not trust count beyond what is left in buffer
	if int64(count)*24 > int64(r.Len()) {
		return errors.Errorf("Exits count %d exceeds remaining %d bytes", count, r.Len())
	}
	exits := make([]Location, 0, count)
	for i := uint32(0); i < count; i++ {
		loc, err := readLocation(r)
		if err != nil {
			return errors.Wrapf(err, "Can't read exit %d", i)
		}
		exits = append(exits, loc)
	}

	sw.ensureDefaults()
	sw.ID = id
	state := SwitchState(ordinal)
	if ordinal < 0 || int(ordinal) >= len(switchStateNames) {
		sw.logger.Printf("switch %s: unknown state ordinal %d, repairing", id, ordinal)
		state = STATE_NORMAL
	}
	sw.restore(edge, switchPoint, exits, state, automatic)
	return nil
}

// restore applies decoded fields. Exits are classified again from the stored switch point.
func (sw *TrackSwitch) restore(edge *EdgeLocation, switchPoint *Location, exits []Location, state SwitchState, automatic bool) {
	sw.edge = edge
	sw.state = state
	sw.automatic = automatic
	sw.classification = ExitClassification{}
	sw.switchPoint = nil
	if switchPoint != nil {
		sw.UpdateExits(*switchPoint, exits)
		return
	}
	sw.EnsureValidState()
}

// ensureDefaults makes zero-value TrackSwitch (e.g. one allocated by a decoder) usable
func (sw *TrackSwitch) ensureDefaults() {
	if sw.notifier == nil {
		sw.notifier = noopNotifier{}
	}
	if sw.logger == nil {
		sw.logger = log.New(io.Discard, "", 0)
	}
}

func writeFlag(buf *bytes.Buffer, flag bool) {
	if flag {
		buf.WriteByte(1)
		return
	}
	buf.WriteByte(0)
}

func readFlag(r io.ByteReader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func writeLocation(buf *bytes.Buffer, loc Location) {
	binary.Write(buf, binary.BigEndian, [3]float64{loc.X, loc.Y, loc.Z})
}

func readLocation(r io.Reader) (Location, error) {
	var xyz [3]float64
	if err := binary.Read(r, binary.BigEndian, &xyz); err != nil {
		return Location{}, err
	}
	return Location{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
