package mergequeue

import (
	"fmt"
	"strings"

	"github.com/simplesurance/landlord/internal/buildbot"
	"github.com/simplesurance/landlord/internal/cfg"
	"github.com/simplesurance/landlord/internal/githubclt"
)

// ActionKind is the mutating action of a transition.
type ActionKind string

const (
	// ActionNone transitions update at most the state marker.
	ActionNone ActionKind = "none"
	// ActionStageMerge resets the test ref to master and merges the
	// entry's head into it.
	ActionStageMerge ActionKind = "stage-merge"
	// ActionLand fast-forwards master to the tested candidate and closes
	// the pull request.
	ActionLand ActionKind = "land"
)

// BuildFacts describes the staged merge candidate of an entry.
type BuildFacts struct {
	// CandidateSHA is the merge commit on the test ref that merges the
	// entry's head with master, empty when the test ref holds no such
	// commit.
	CandidateSHA string
	// Results holds one result per configured builder for CandidateSHA.
	Results []*buildbot.BuildResult
}

// Decision is the transition that the engine computed for one entry.
type Decision struct {
	Entry *QueueEntry

	// NextState is the state that the dispatcher persists after the
	// action succeeded. It is empty for no-ops and for ActionLand, which
	// removes the entry from the queue instead of re-marking it.
	NextState State
	Action    ActionKind

	// CandidateSHA is the merge commit that ActionLand fast-forwards
	// master to.
	CandidateSHA string

	// Comment is posted on the pull request before the action runs,
	// empty posts nothing.
	Comment string
	// Detail is the human readable part of the new marker description.
	Detail string
	// TargetURL is attached to the state marker, empty omits it.
	TargetURL string

	// NoopReason says why nothing is dispatched, it is only set when the
	// decision is a no-op.
	NoopReason string
}

// IsNoop reports whether the decision changes nothing externally.
func (d *Decision) IsNoop() bool {
	return d.NextState == "" && d.Action == ActionNone
}

// Engine computes state transitions for queue entries. It is pure, all
// facts are passed in and it never talks to external services.
type Engine struct {
	repoCfg *cfg.RepoConfig
}

func NewEngine(repoCfg *cfg.RepoConfig) *Engine {
	return &Engine{repoCfg: repoCfg}
}

// Transition computes the next transition for entry. facts must be non-nil
// for entries in StatePending and StateTested, other states ignore it.
func (e *Engine) Transition(entry *QueueEntry, facts *BuildFacts) *Decision {
	switch entry.State {
	case StateUnreviewed, StateDiscussing:
		return e.reviewTransition(entry)

	case StateDisapproved, StateFailed, StateError:
		if entry.review.Verdict == VerdictApprove {
			return e.approveDecision(entry)
		}

		return noop(entry, "waiting for a fresh approval")

	case StateApproved:
		return e.approvedTransition(entry)

	case StatePending:
		return e.pendingTransition(entry, facts)

	case StateTested:
		return e.testedTransition(entry, facts)
	}

	return noop(entry, fmt.Sprintf("state %s has no transitions", entry.State))
}

func (e *Engine) reviewTransition(entry *QueueEntry) *Decision {
	switch entry.review.Verdict {
	case VerdictApprove:
		return e.approveDecision(entry)

	case VerdictDisapprove:
		return &Decision{
			Entry:     entry,
			NextState: StateDisapproved,
			Action:    ActionNone,
			Detail:    "by " + entry.review.Reviewer,
		}
	}

	return noop(entry, "waiting for a review")
}

func (e *Engine) approveDecision(entry *QueueEntry) *Decision {
	return &Decision{
		Entry:     entry,
		NextState: StateApproved,
		Action:    ActionNone,
		Detail:    "by " + entry.review.Reviewer,
	}
}

func (e *Engine) approvedTransition(entry *QueueEntry) *Decision {
	switch entry.Mergeable {
	case githubclt.MergeableStateMergeable:
		return &Decision{
			Entry:     entry,
			NextState: StatePending,
			Action:    ActionStageMerge,
			Detail:    "testing merge candidate",
		}

	case githubclt.MergeableStateConflicting:
		return &Decision{
			Entry:     entry,
			NextState: StateError,
			Action:    ActionNone,
			Comment: fmt.Sprintf(
				"landlord: merging %s into %s failed, the branch conflicts with %s and must be rebased",
				entry.shortDesc(), e.repoCfg.TestRef, e.repoCfg.MasterRef,
			),
			Detail: "merge conflict",
		}
	}

	return noop(entry, "mergeability is not computed yet")
}

func (e *Engine) pendingTransition(entry *QueueEntry, facts *BuildFacts) *Decision {
	if facts == nil {
		return noop(entry, "candidate facts are missing")
	}

	if facts.CandidateSHA == "" {
		return e.restageDecision(entry)
	}

	failures, inProgress := summarizeBuilds(facts.Results)

	switch {
	case len(failures) > 0:
		return &Decision{
			Entry:     entry,
			NextState: StateFailed,
			Action:    ActionNone,
			Comment:   "landlord: some tests failed:\n" + buildURLList(failures),
			Detail:    "some builders failed",
			TargetURL: failures[0].URL,
		}

	case inProgress:
		return noop(entry, "waiting for builders to finish")
	}

	return &Decision{
		Entry:     entry,
		NextState: StateTested,
		Action:    ActionNone,
		Detail:    "all builders passed candidate " + shortSHA(facts.CandidateSHA),
	}
}

func (e *Engine) testedTransition(entry *QueueEntry, facts *BuildFacts) *Decision {
	if facts == nil {
		return noop(entry, "candidate facts are missing")
	}

	if facts.CandidateSHA == "" {
		return e.restageDecision(entry)
	}

	return &Decision{
		Entry:        entry,
		Action:       ActionLand,
		CandidateSHA: facts.CandidateSHA,
		Comment: fmt.Sprintf(
			"landlord: fast-forwarding %s to %s = %s",
			e.repoCfg.MasterRef, e.repoCfg.TestRef, shortSHA(facts.CandidateSHA),
		),
	}
}

// restageDecision re-stages the merge candidate of an entry whose candidate
// vanished from the test ref, usually after a manual push.
func (e *Engine) restageDecision(entry *QueueEntry) *Decision {
	return &Decision{
		Entry:     entry,
		NextState: StatePending,
		Action:    ActionStageMerge,
		Comment: fmt.Sprintf(
			"landlord: no active merge of candidate %s found, likely manual push to %s, restaging",
			shortSHA(entry.HeadSHA), e.repoCfg.MasterRef,
		),
		Detail: "testing merge candidate",
	}
}

// MergeConflictDecision is the fallback transition for an entry whose
// staging merge failed because the branches cannot be merged.
func (e *Engine) MergeConflictDecision(entry *QueueEntry, cause error) *Decision {
	return &Decision{
		Entry:     entry,
		NextState: StateError,
		Action:    ActionNone,
		Comment: fmt.Sprintf(
			"landlord: merging %s into %s failed:\n```%s```",
			entry.shortDesc(), e.repoCfg.TestRef, cause.Error(),
		),
		Detail: "merge failed",
	}
}

// FastForwardFailedDecision is the fallback transition for an entry whose
// landing failed because master could not be fast-forwarded to the tested
// candidate.
func (e *Engine) FastForwardFailedDecision(entry *QueueEntry, candidateSHA string, cause error) *Decision {
	return &Decision{
		Entry:     entry,
		NextState: StateError,
		Action:    ActionNone,
		Comment: fmt.Sprintf(
			"landlord: fast-forwarding %s to %s = %s failed:\n```%s```",
			e.repoCfg.MasterRef, e.repoCfg.TestRef, shortSHA(candidateSHA), cause.Error(),
		),
		Detail: "fast-forward failed",
	}
}

func noop(entry *QueueEntry, reason string) *Decision {
	return &Decision{Entry: entry, Action: ActionNone, NoopReason: reason}
}

// summarizeBuilds splits the builder results into failures and a flag that
// reports whether a builder has not delivered a final result yet.
func summarizeBuilds(results []*buildbot.BuildResult) (failures []*buildbot.BuildResult, inProgress bool) {
	for _, result := range results {
		switch result.Outcome {
		case buildbot.OutcomeFailure:
			failures = append(failures, result)

		case buildbot.OutcomeSuccess:

		default:
			inProgress = true
		}
	}

	return failures, inProgress
}

func buildURLList(results []*buildbot.BuildResult) string {
	urls := make([]string, 0, len(results))

	for _, result := range results {
		urls = append(urls, result.URL)
	}

	return strings.Join(urls, "\n")
}
