package railswitch

import (
	"sort"
)

const (
	// straightCutoff is how far off-axis (in cross-track units of a unit vector) an exit may be
	// and still count as straight when there are exactly two exits
	straightCutoff = 0.2
)

// ExitRole is the role of an exit relative to the travel direction through a switch
type ExitRole uint16

const (
	EXIT_STRAIGHT = ExitRole(iota + 1)
	EXIT_LEFT
	EXIT_RIGHT

	EXIT_NONE = ExitRole(0)
)

func (iotaIdx ExitRole) String() string {
	if int(iotaIdx) >= len(exitRoleNames) {
		return "undefined"
	}
	return exitRoleNames[iotaIdx]
}

var exitRoleNames = [...]string{"none", "straight", "left", "right"}

// ExitClassification is the result of splitting forward exits of a switch into straight, left and right.
// Any of the three may be absent. No exit is referenced by two roles.
type ExitClassification struct {
	// Exits are all forward exits sorted from left to right
	Exits    []Location
	Straight *Location
	Left     *Location
	Right    *Location
}

// RoleOf returns role of given exit. EXIT_NONE if exit has no role.
func (ec ExitClassification) RoleOf(exit Location) ExitRole {
	switch {
	case ec.Straight != nil && *ec.Straight == exit:
		return EXIT_STRAIGHT
	case ec.Left != nil && *ec.Left == exit:
		return EXIT_LEFT
	case ec.Right != nil && *ec.Right == exit:
		return EXIT_RIGHT
	default:
		return EXIT_NONE
	}
}

type keyedExit struct {
	loc Location
	key float64
}

// ClassifyExits splits candidates into straight, left and right exits of a switch.
//
// Candidates are treated as a set: duplicates and input order do not affect the result.
// Only candidates strictly in front of switchPoint (relative to forward) are considered.
// Exits are ordered by signed cross-track value of their normalized direction; exits with equal value
// are ordered by coordinates, so result is reproducible regardless of graph iteration order.
//
func ClassifyExits(switchPoint Location, forward Vec3, candidates []Location) ExitClassification {
	forward = forward.Normalize()
	seen := make(map[Location]struct{}, len(candidates))
	keyed := make([]keyedExit, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		toExit := switchPoint.VectorTo(candidate)
		// Exit should be in the same direction switch is facing
		if forward.Dot(toExit) <= 0 {
			continue
		}
		keyed = append(keyed, keyedExit{
			loc: candidate,
			key: sideOf(forward, toExit.Normalize()),
		})
	}
	sort.Slice(keyed, func(i, j int) bool {
		if keyed[i].key != keyed[j].key {
			return keyed[i].key < keyed[j].key
		}
		return keyed[i].loc.Less(keyed[j].loc)
	})

	result := ExitClassification{
		Exits: make([]Location, len(keyed)),
	}
	for i := range keyed {
		result.Exits[i] = keyed[i].loc
	}

	at := func(i int) *Location {
		loc := keyed[i].loc
		return &loc
	}
	switch len(keyed) {
	case 1:
		result.Straight = at(0)
	case 2:
		first, second := keyed[0].key, keyed[1].key
		if first < 0 && second <= straightCutoff {
			//    / /         /
			// --+-'   or  --+---  = left, straight
			result.Left, result.Straight = at(0), at(1)
		} else if first >= -straightCutoff && second > 0 {
			// --+-.       --+---
			//    \ \  or     \    = straight, right
			result.Straight, result.Right = at(0), at(1)
		} else {
			//    /
			// --<   = left, right
			//    \
			result.Left, result.Right = at(0), at(1)
		}
	case 3:
		result.Left, result.Straight, result.Right = at(0), at(1), at(2)
	default:
		// No exits or ambiguous topology (four and more): no preferred branch
	}
	return result
}
