package mergequeue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesurance/landlord/internal/buildbot"
	"github.com/simplesurance/landlord/internal/githubclt"
)

const testCandidateSHA = "ffffffffffffffffffffffffffffffffffffffff"

func newTestEngine() *Engine {
	return NewEngine(newTestRepoCfg())
}

func TestTransitionApprovalAdvancesToApproved(t *testing.T) {
	engine := newTestEngine()

	for _, state := range []State{StateUnreviewed, StateDiscussing} {
		t.Run(string(state), func(t *testing.T) {
			entry := withVerdict(newTestEntry(42, state), VerdictApprove)

			decision := engine.Transition(entry, nil)

			require.False(t, decision.IsNoop())
			assert.Equal(t, StateApproved, decision.NextState)
			assert.Equal(t, ActionNone, decision.Action)
			assert.Empty(t, decision.Comment, "an approval only writes the state marker")
			assert.Equal(t, "by "+reviewer, decision.Detail)
		})
	}
}

func TestTransitionDisapprovalParksEntry(t *testing.T) {
	engine := newTestEngine()
	entry := withVerdict(newTestEntry(42, StateDiscussing), VerdictDisapprove)

	decision := engine.Transition(entry, nil)

	assert.Equal(t, StateDisapproved, decision.NextState)
	assert.Equal(t, ActionNone, decision.Action)
	assert.Empty(t, decision.Comment)
	assert.Equal(t, "by "+reviewer, decision.Detail)
}

func TestTransitionWithoutVerdictIsNoop(t *testing.T) {
	engine := newTestEngine()

	for _, state := range []State{StateUnreviewed, StateDiscussing} {
		decision := engine.Transition(newTestEntry(42, state), nil)

		assert.Truef(t, decision.IsNoop(), "state %s without verdict must be a no-op", state)
		assert.NotEmpty(t, decision.NoopReason)
	}
}

func TestTransitionSideStatesNeedFreshApproval(t *testing.T) {
	engine := newTestEngine()

	for _, state := range []State{StateDisapproved, StateFailed, StateError} {
		t.Run(string(state), func(t *testing.T) {
			decision := engine.Transition(newTestEntry(42, state), nil)
			assert.True(t, decision.IsNoop())

			decision = engine.Transition(withVerdict(newTestEntry(42, state), VerdictDisapprove), nil)
			assert.True(t, decision.IsNoop(), "a repeated disapproval must not re-arm the entry")

			decision = engine.Transition(withVerdict(newTestEntry(42, state), VerdictApprove), nil)
			assert.Equal(t, StateApproved, decision.NextState)
			assert.Equal(t, ActionNone, decision.Action)
		})
	}
}

func TestTransitionApprovedStagesMergeCandidate(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateApproved)

	decision := engine.Transition(entry, nil)

	assert.Equal(t, StatePending, decision.NextState)
	assert.Equal(t, ActionStageMerge, decision.Action)
	assert.Empty(t, decision.Comment, "the dispatcher reports the staged candidate itself")
}

func TestTransitionApprovedConflictRecordsError(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateApproved)
	entry.Mergeable = githubclt.MergeableStateConflicting

	decision := engine.Transition(entry, nil)

	assert.Equal(t, StateError, decision.NextState)
	assert.Equal(t, ActionNone, decision.Action)
	assert.Contains(t, decision.Comment, "must be rebased")
	assert.Contains(t, decision.Comment, entry.shortDesc())
}

func TestTransitionApprovedWaitsForMergeability(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateApproved)
	entry.Mergeable = githubclt.MergeableStateUnknown

	decision := engine.Transition(entry, nil)

	assert.True(t, decision.IsNoop())
}

func TestTransitionPendingBuilderResults(t *testing.T) {
	engine := newTestEngine()

	success := &buildbot.BuildResult{Builder: "builder-linux", Outcome: buildbot.OutcomeSuccess, URL: "http://localhost:8010/builders/builder-linux/builds/3"}
	otherSuccess := &buildbot.BuildResult{Builder: "builder-win", Outcome: buildbot.OutcomeSuccess, URL: "http://localhost:8010/builders/builder-win/builds/7"}
	failure := &buildbot.BuildResult{Builder: "builder-win", Outcome: buildbot.OutcomeFailure, URL: "http://localhost:8010/builders/builder-win/builds/7"}
	inProgress := &buildbot.BuildResult{Builder: "builder-win", Outcome: buildbot.OutcomeInProgress}
	absent := &buildbot.BuildResult{Builder: "builder-win", Outcome: buildbot.OutcomeAbsent}

	testcases := []struct {
		name      string
		results   []*buildbot.BuildResult
		nextState State
		noop      bool
	}{
		{name: "all builders passed", results: []*buildbot.BuildResult{success, otherSuccess}, nextState: StateTested},
		{name: "one builder failed", results: []*buildbot.BuildResult{success, failure}, nextState: StateFailed},
		{name: "one builder still building", results: []*buildbot.BuildResult{success, inProgress}, noop: true},
		{name: "one builder without a build", results: []*buildbot.BuildResult{success, absent}, noop: true},
		{name: "failure wins over unfinished builders", results: []*buildbot.BuildResult{inProgress, failure}, nextState: StateFailed},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			entry := newTestEntry(42, StatePending)

			decision := engine.Transition(entry, &BuildFacts{CandidateSHA: testCandidateSHA, Results: tc.results})

			if tc.noop {
				assert.True(t, decision.IsNoop())
				return
			}

			require.Equal(t, tc.nextState, decision.NextState)
			assert.Equal(t, ActionNone, decision.Action)

			if tc.nextState == StateFailed {
				assert.Contains(t, decision.Comment, "some tests failed")
				assert.Contains(t, decision.Comment, failure.URL)
				assert.Equal(t, failure.URL, decision.TargetURL)
				return
			}

			assert.Empty(t, decision.Comment, "passing all builders only writes the state marker")
			assert.Contains(t, decision.Detail, shortSHA(testCandidateSHA))
		})
	}
}

func TestTransitionPendingLostCandidateRestages(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StatePending)

	decision := engine.Transition(entry, &BuildFacts{})

	assert.Equal(t, StatePending, decision.NextState)
	assert.Equal(t, ActionStageMerge, decision.Action)
	assert.Contains(t, decision.Comment, "no active merge of candidate "+shortSHA(entry.HeadSHA))
	assert.Contains(t, decision.Comment, "manual push to master")
}

func TestTransitionPendingWithoutFactsIsNoop(t *testing.T) {
	engine := newTestEngine()

	decision := engine.Transition(newTestEntry(42, StatePending), nil)

	assert.True(t, decision.IsNoop())
}

func TestTransitionTestedLands(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateTested)

	decision := engine.Transition(entry, &BuildFacts{CandidateSHA: testCandidateSHA})

	require.Equal(t, ActionLand, decision.Action)
	assert.Empty(t, decision.NextState, "landing closes the pull request instead of re-marking it")
	assert.Equal(t, testCandidateSHA, decision.CandidateSHA)
	assert.Contains(t, decision.Comment, "fast-forwarding master to auto")
	assert.Contains(t, decision.Comment, shortSHA(testCandidateSHA))
}

func TestTransitionTestedLostCandidateRestages(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateTested)

	decision := engine.Transition(entry, &BuildFacts{})

	assert.Equal(t, StatePending, decision.NextState)
	assert.Equal(t, ActionStageMerge, decision.Action)
	assert.Contains(t, decision.Comment, "no active merge of candidate")
}

func TestMergeConflictDecision(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateApproved)

	decision := engine.MergeConflictDecision(entry, errors.New("merge conflict"))

	assert.Equal(t, StateError, decision.NextState)
	assert.Equal(t, ActionNone, decision.Action)
	assert.Contains(t, decision.Comment, entry.shortDesc())
	assert.Contains(t, decision.Comment, "```merge conflict```")
}

func TestFastForwardFailedDecision(t *testing.T) {
	engine := newTestEngine()
	entry := newTestEntry(42, StateTested)

	decision := engine.FastForwardFailedDecision(entry, testCandidateSHA, errors.New("not a fast-forward"))

	assert.Equal(t, StateError, decision.NextState)
	assert.Equal(t, ActionNone, decision.Action)
	assert.Contains(t, decision.Comment, "fast-forwarding master to auto")
	assert.Contains(t, decision.Comment, "```not a fast-forward```")
}

func TestTransitionIsDeterministic(t *testing.T) {
	engine := newTestEngine()
	entry := withVerdict(newTestEntry(42, StateUnreviewed), VerdictApprove)

	first := engine.Transition(entry, nil)
	second := engine.Transition(entry, nil)

	assert.Equal(t, first, second)
}
