package railswitch

import (
	"strings"
)

// SwitchState is the branch selected on a switch. Zero value is STATE_NORMAL.
type SwitchState uint16

const (
	STATE_NORMAL = SwitchState(iota)
	STATE_REVERSE_LEFT
	STATE_REVERSE_RIGHT
)

var (
	switchStateTxt = map[string]SwitchState{
		"normal":        STATE_NORMAL,
		"reverse_left":  STATE_REVERSE_LEFT,
		"reverse_right": STATE_REVERSE_RIGHT,
	}
	// statePriority is the order in which states are tried when the current one is invalid
	statePriority = [...]SwitchState{STATE_NORMAL, STATE_REVERSE_RIGHT, STATE_REVERSE_LEFT}
)

func (iotaIdx SwitchState) String() string {
	if int(iotaIdx) >= len(switchStateNames) {
		return "undefined"
	}
	return switchStateNames[iotaIdx]
}

var switchStateNames = [...]string{"normal", "reverse_left", "reverse_right"}

// ParseSwitchState returns state for given label. Label is case-insensitive.
// Second value is false for unknown labels.
func ParseSwitchState(label string) (SwitchState, bool) {
	state, ok := switchStateTxt[strings.ToLower(strings.TrimSpace(label))]
	return state, ok
}

// Role returns exit role which state selects
func (iotaIdx SwitchState) Role() ExitRole {
	switch iotaIdx {
	case STATE_NORMAL:
		return EXIT_STRAIGHT
	case STATE_REVERSE_LEFT:
		return EXIT_LEFT
	case STATE_REVERSE_RIGHT:
		return EXIT_RIGHT
	default:
		return EXIT_NONE
	}
}
