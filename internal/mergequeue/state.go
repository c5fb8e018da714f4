package mergequeue

import (
	"strings"

	"github.com/simplesurance/landlord/internal/githubclt"
)

// State is the position of a pull request in the merge queue lifecycle.
type State string

const (
	// StateUnreviewed is the initial state of an entry without comments.
	StateUnreviewed State = "UNREVIEWED"
	// StateDiscussing is the initial state of an entry that has comments
	// but no reviewer verdict yet.
	StateDiscussing State = "DISCUSSING"
	// StateApproved marks entries whose newest reviewer verdict is an
	// approval, they are waiting to be staged on the test ref.
	StateApproved State = "APPROVED"
	// StatePending marks entries whose merge candidate is staged on the
	// test ref and being built.
	StatePending State = "PENDING"
	// StateTested marks entries whose candidate passed on all builders,
	// they are ready to be landed.
	StateTested State = "TESTED"

	// StateDisapproved, StateFailed and StateError are side states.
	// Entries in a side state stay in the queue but are only advanced
	// again after a fresh approval.
	StateDisapproved State = "DISAPPROVED"
	StateFailed      State = "FAILED"
	StateError       State = "ERROR"
)

const mirrorLabelPrefix = "landlord:"

// markerStates maps the token at the beginning of a state marker description
// to the state that the marker persists.
var markerStates = map[string]State{
	"approved":    StateApproved,
	"pending":     StatePending,
	"tested":      StateTested,
	"disapproved": StateDisapproved,
	"failed":      StateFailed,
	"error":       StateError,
}

// token returns the machine readable form of s used in marker descriptions
// and mirror labels.
func (s State) token() string {
	return strings.ToLower(string(s))
}

// persisted reports whether s is externalized as a state marker.
// StateUnreviewed and StateDiscussing are derived from the snapshot and are
// never written.
func (s State) persisted() bool {
	_, exist := markerStates[s.token()]
	return exist
}

// statusState returns the commit status state that the marker for s is
// reported with.
func (s State) statusState() githubclt.StatusState {
	switch s {
	case StateTested:
		return githubclt.StatusStateSuccess
	case StateDisapproved, StateFailed:
		return githubclt.StatusStateFailure
	case StateError:
		return githubclt.StatusStateError
	default:
		return githubclt.StatusStatePending
	}
}

// ripeness returns the rank of s in the selection order of the queue.
// Entries in a riper state are closer to landing.
func (s State) ripeness() int {
	switch s {
	case StateUnreviewed:
		return 0
	case StateDiscussing:
		return 1
	case StateDisapproved:
		return 2
	case StateFailed:
		return 3
	case StateError:
		return 4
	case StateApproved:
		return 5
	case StatePending:
		return 6
	case StateTested:
		return 7
	default:
		return -1
	}
}

// failure reports whether s records a failed transition. A disapproval is
// a regular reviewer decision, not a failure.
func (s State) failure() bool {
	return s == StateFailed || s == StateError
}

// MirrorLabel returns the issue label that mirrors s for humans browsing the
// pull request list.
func (s State) MirrorLabel() string {
	return mirrorLabelPrefix + s.token()
}

// allStates lists every state, in ripeness order.
var allStates = []State{
	StateUnreviewed,
	StateDiscussing,
	StateDisapproved,
	StateFailed,
	StateError,
	StateApproved,
	StatePending,
	StateTested,
}

// markerDescription composes the description of a state marker, the machine
// readable state token followed by a human readable detail.
func markerDescription(s State, detail string) string {
	if detail == "" {
		return s.token()
	}

	return s.token() + ": " + detail
}

// parseMarkerDescription extracts the persisted state from a marker
// description.
func parseMarkerDescription(desc string) (State, bool) {
	token, _, _ := strings.Cut(desc, ":")
	state, exist := markerStates[strings.TrimSpace(token)]

	return state, exist
}
