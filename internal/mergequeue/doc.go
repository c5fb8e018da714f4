// Package mergequeue implements the reconciliation core of landlord.
//
// One invocation of landlord performs one reconciliation run. A run derives
// the merge queue from a snapshot of the monitored repository's open pull
// requests, selects the most actionable entry and advances it by at most one
// state transition. Besides informational writes like comments, labels and
// the state marker itself, a run dispatches at most one mutating action
// against the Git hosting service. If anything goes wrong the run aborts
// without writing a new state marker and the next run repeats the attempt.
//
// The lifecycle of a queue entry is:
//
//	UNREVIEWED/DISCUSSING -> APPROVED -> PENDING -> TESTED -> landed & closed
//
// with the side states DISAPPROVED, FAILED and ERROR. Entries in a side
// state stay in the queue and re-enter the main path when a reviewer posts a
// fresh approval.
//
// State is not kept between runs in the process. The authoritative record of
// an entry's state is a commit status (the "state marker") on the entry's
// head commit, written with a configurable status context. The creation time
// of the marker doubles as the cutoff for classifying review comments: only
// comments posted after the latest marker can change the entry's direction.
//
// The main components are the queue builder, the transition engine, the
// dispatcher and the runner. The queue builder turns the snapshot into
// ranked queue entries. The transition engine is pure, it computes for one
// entry the next state, the action to dispatch and the texts to publish. The
// dispatcher executes a decision, it performs the action, posts the comment
// and persists the marker last. The runner wires all of it together with the
// clients for the Git hosting service and the CI server.
package mergequeue
