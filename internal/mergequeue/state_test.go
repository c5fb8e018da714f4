package mergequeue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesurance/landlord/internal/githubclt"
)

func TestMarkerDescriptionRoundTrip(t *testing.T) {
	for _, state := range allStates {
		if !state.persisted() {
			continue
		}

		t.Run(string(state), func(t *testing.T) {
			parsed, ok := parseMarkerDescription(markerDescription(state, "some detail"))
			require.True(t, ok)
			assert.Equal(t, state, parsed)

			parsed, ok = parseMarkerDescription(markerDescription(state, ""))
			require.True(t, ok)
			assert.Equal(t, state, parsed)
		})
	}
}

func TestMarkerDescriptionFormat(t *testing.T) {
	assert.Equal(t, "approved: by "+reviewer, markerDescription(StateApproved, "by "+reviewer))
	assert.Equal(t, "tested", markerDescription(StateTested, ""))
}

func TestParseMarkerDescriptionRejectsUnknownTokens(t *testing.T) {
	descriptions := []string{
		"",
		"bogus",
		"bogus: detail",
		// the derived states are never persisted
		"unreviewed",
		"discussing: chatter",
	}

	for _, desc := range descriptions {
		_, ok := parseMarkerDescription(desc)
		assert.Falsef(t, ok, "description %q must not parse", desc)
	}
}

func TestParseMarkerDescriptionToleratesPadding(t *testing.T) {
	state, ok := parseMarkerDescription("approved : by somebody")
	require.True(t, ok)
	assert.Equal(t, StateApproved, state)
}

func TestStatusStateProjection(t *testing.T) {
	assert.Equal(t, githubclt.StatusStateSuccess, StateTested.statusState())
	assert.Equal(t, githubclt.StatusStateFailure, StateDisapproved.statusState())
	assert.Equal(t, githubclt.StatusStateFailure, StateFailed.statusState())
	assert.Equal(t, githubclt.StatusStateError, StateError.statusState())
	assert.Equal(t, githubclt.StatusStatePending, StateApproved.statusState())
	assert.Equal(t, githubclt.StatusStatePending, StatePending.statusState())
}

func TestFailureStates(t *testing.T) {
	assert.True(t, StateFailed.failure())
	assert.True(t, StateError.failure())

	assert.False(t, StateDisapproved.failure(), "a disapproval is a regular reviewer decision")
	assert.False(t, StateTested.failure())
	assert.False(t, StateUnreviewed.failure())
}

func TestMirrorLabel(t *testing.T) {
	assert.Equal(t, "landlord:approved", StateApproved.MirrorLabel())
	assert.Equal(t, "landlord:tested", StateTested.MirrorLabel())
}

func TestRipenessOrderIsTotal(t *testing.T) {
	seen := map[int]State{}

	for _, state := range allStates {
		rank := state.ripeness()

		require.GreaterOrEqual(t, rank, 0)

		other, exist := seen[rank]
		require.Falsef(t, exist, "states %s and %s have the same ripeness", other, state)

		seen[rank] = state
	}
}
