package mergequeue

import (
	"sort"

	"github.com/simplesurance/landlord/internal/githubclt"
)

// actionable reports whether the entry's next transition can fire with the
// facts that are already in the snapshot. Entries that only wait on an
// external event, like a finishing build or the hosting service computing
// mergeability, are not actionable.
func (e *QueueEntry) actionable() bool {
	switch e.State {
	case StateUnreviewed, StateDiscussing:
		return e.review.Verdict != VerdictNone

	case StateDisapproved, StateFailed, StateError:
		return e.review.Verdict == VerdictApprove

	case StateApproved:
		return e.Mergeable != githubclt.MergeableStateUnknown

	case StatePending:
		// whether the entry can advance depends on the builders, the
		// CI server is only queried for the selected entry
		return false

	case StateTested:
		return true
	}

	return false
}

// sortEntries orders entries most actionable first. Actionable entries come
// before waiting ones, then riper states before earlier ones, then higher
// priority, then lower pull request number. The order is total, two runs
// over the same snapshot select the same entry.
func sortEntries(entries []*QueueEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return moreRipe(entries[i], entries[j])
	})
}

func moreRipe(a, b *QueueEntry) bool {
	if a.actionable() != b.actionable() {
		return a.actionable()
	}

	if a.State.ripeness() != b.State.ripeness() {
		return a.State.ripeness() > b.State.ripeness()
	}

	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}

	return a.Number < b.Number
}
