package role

import "fmt"

// State is the lifecycle state of a role.
//
//	Active ⇄ Inactive → Purged
//
// Purged is terminal: the row no longer exists.
type State string

// Lifecycle states.
const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StatePurged   State = "purged"
)

// Event drives a lifecycle transition.
type Event string

// Lifecycle events.
const (
	EventActivate   Event = "activate"
	EventDeactivate Event = "deactivate"
	EventPurge      Event = "purge"
)

// NextState returns the state reached by applying ev to from.
func NextState(from State, ev Event) (State, error) {
	if from == StatePurged {
		return from, ErrPurgedIsTerminal
	}
	switch ev {
	case EventActivate:
		if from == StateInactive {
			return StateActive, nil
		}
	case EventDeactivate:
		if from == StateActive {
			return StateInactive, nil
		}
	case EventPurge:
		return StatePurged, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidState, ev, from)
}

// LeavesActive reports whether applying ev to from takes a role out of
// service. Such transitions are guarded by the in-use check.
func LeavesActive(from State, ev Event) bool {
	return from == StateActive && (ev == EventDeactivate || ev == EventPurge)
}
