package mergequeue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/simplesurance/landlord/internal/buildbot"
	"github.com/simplesurance/landlord/internal/githubclt"
	"github.com/simplesurance/landlord/internal/landerr"
	"github.com/simplesurance/landlord/internal/mergequeue/mocks"
)

const testStagedSHA = "cccccccccccccccccccccccccccccccccccccccc"

func newRunnerForTest(t *testing.T, opts ...option) (*Runner, *mocks.MockGithubClient, *mocks.MockCIClient) {
	t.Helper()

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)
	ciClient := mocks.NewMockCIClient(mockctrl)

	opts = append([]option{WithFetchRetryTimeout(time.Second)}, opts...)

	runner := NewRunner(ghClient, ciClient, newTestRepoCfg(), testStatusContext, opts...)
	runner.retryer.backoffInitialInterval = 5 * time.Millisecond

	return runner, ghClient, ciClient
}

func mockQueueSnapshotCall(clt *mocks.MockGithubClient, prs []*githubclt.PullRequestSnapshot) *gomock.Call {
	return clt.EXPECT().
		QueueSnapshot(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo)).
		Return(prs, nil)
}

func mockRefSHACall(clt *mocks.MockGithubClient, ref, sha string) *gomock.Call {
	return clt.EXPECT().
		RefSHA(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(ref)).
		Return(sha, nil)
}

func mockCommitParentsCall(clt *mocks.MockGithubClient, sha string, parents []string) *gomock.Call {
	return clt.EXPECT().
		CommitParents(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(sha)).
		Return(parents, nil)
}

func mockBuilderResultCall(clt *mocks.MockCIClient, builder string, outcome buildbot.Outcome, url string) *gomock.Call {
	return clt.EXPECT().
		BuilderResult(gomock.Any(), gomock.Eq(builder), gomock.Any()).
		DoAndReturn(func(_ context.Context, builder, revision string) (*buildbot.BuildResult, error) {
			return &buildbot.BuildResult{Builder: builder, Ref: revision, Outcome: outcome, URL: url}, nil
		})
}

func TestRunEmptyQueue(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)
	mockQueueSnapshotCall(ghClient, nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeNoop, report.Outcome)
	assert.Nil(t, report.Entry)
	assert.Zero(t, report.QueueSize)
}

func TestRunApprovesFreshlyReviewedEntry(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	pr := newPRSnapshot(42, newComment(time.Minute, reviewer, "r+ nice work"))
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:approved")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStatePending), gomock.Eq(testStatusContext),
			gomock.Eq("approved: by "+reviewer), gomock.Eq(""),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeAction, report.Outcome)
	assert.Equal(t, StateApproved, report.Decision.NextState)
	assert.Equal(t, 1, report.QueueSize)
}

func TestRunDisapprovalIsARegularAction(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	pr := newPRSnapshot(42, newComment(time.Minute, reviewer, "r- needs another round"))
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:disapproved")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStateFailure), gomock.Eq(testStatusContext),
			gomock.Eq("disapproved: by "+reviewer), gomock.Eq(""),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeAction, report.Outcome,
		"a disapproval is a reviewer decision, not a failure of the run")
	assert.Equal(t, StateDisapproved, report.Decision.NextState)
}

func TestRunActsOnAtMostOneEntry(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	first := newPRSnapshot(3, newComment(time.Minute, reviewer, "r+"))
	second := newPRSnapshot(5, newComment(time.Minute, reviewer, "r+"))
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{second, first})

	// only the entry with the lower number is advanced
	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(3), gomock.Eq("landlord:approved")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(first.HeadSHA),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, RunOutcomeAction, report.Outcome)
	assert.Equal(t, 3, report.Entry.Number)
	assert.Equal(t, 2, report.QueueSize)
}

func TestRunPendingEntryBuildersPass(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, ciClient := newRunnerForTest(t)

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("pending: testing merge candidate", time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	mockRefSHACall(ghClient, "auto", testStagedSHA)
	mockRefSHACall(ghClient, "master", testMasterSHA)
	mockCommitParentsCall(ghClient, testStagedSHA, []string{testMasterSHA, pr.HeadSHA})

	mockBuilderResultCall(ciClient, "builder-linux", buildbot.OutcomeSuccess, "")
	mockBuilderResultCall(ciClient, "builder-win", buildbot.OutcomeSuccess, "")

	ghClient.EXPECT().
		RemoveLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:pending")).
		Return(nil)
	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:tested")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStateSuccess), gomock.Eq(testStatusContext),
			gomock.Eq("tested: all builders passed candidate cccccccc"), gomock.Eq(""),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeAction, report.Outcome)
	assert.Equal(t, StateTested, report.Decision.NextState)
}

func TestRunPendingEntryBuilderFails(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, ciClient := newRunnerForTest(t)

	const failureURL = "http://localhost:8010/builders/builder-win/builds/7"

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("pending: testing merge candidate", time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	mockRefSHACall(ghClient, "auto", testStagedSHA)
	mockRefSHACall(ghClient, "master", testMasterSHA)
	mockCommitParentsCall(ghClient, testStagedSHA, []string{pr.HeadSHA, testMasterSHA})

	mockBuilderResultCall(ciClient, "builder-linux", buildbot.OutcomeSuccess, "")
	mockBuilderResultCall(ciClient, "builder-win", buildbot.OutcomeFailure, failureURL)

	ghClient.EXPECT().
		CreateIssueComment(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42),
			gomock.Eq("landlord: some tests failed:\n"+failureURL),
		).
		Return(nil)
	ghClient.EXPECT().
		RemoveLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:pending")).
		Return(nil)
	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:failed")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStateFailure), gomock.Eq(testStatusContext),
			gomock.Eq("failed: some builders failed"), gomock.Eq(failureURL),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeFailureRecorded, report.Outcome)
	assert.Equal(t, StateFailed, report.Decision.NextState)
}

func TestRunPendingEntryStillBuilding(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, ciClient := newRunnerForTest(t)

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("pending: testing merge candidate", time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	mockRefSHACall(ghClient, "auto", testStagedSHA)
	mockRefSHACall(ghClient, "master", testMasterSHA)
	mockCommitParentsCall(ghClient, testStagedSHA, []string{testMasterSHA, pr.HeadSHA})

	mockBuilderResultCall(ciClient, "builder-linux", buildbot.OutcomeSuccess, "")
	mockBuilderResultCall(ciClient, "builder-win", buildbot.OutcomeInProgress, "")

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeNoop, report.Outcome)
	assert.NotEmpty(t, report.Decision.NoopReason)
}

func TestRunPendingEntryLostCandidateIsRestaged(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("pending: testing merge candidate", time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	// somebody pushed to the test ref, its head no longer merges the entry
	mockRefSHACall(ghClient, "auto", testStagedSHA)
	mockRefSHACall(ghClient, "master", testMasterSHA).Times(2)
	mockCommitParentsCall(ghClient, testStagedSHA, []string{testMasterSHA, "4444444444444444444444444444444444444444"})

	ghClient.EXPECT().
		CreateIssueComment(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42),
			gomock.Eq("landlord: no active merge of candidate "+shortSHA(pr.HeadSHA)+" found, likely manual push to master, restaging"),
		).
		Return(nil)

	ghClient.EXPECT().
		ForceSetRef(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq("auto"), gomock.Eq(testMasterSHA)).
		Return(nil)
	ghClient.EXPECT().
		MergeRef(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq("auto"), gomock.Eq(pr.HeadSHA), gomock.Any()).
		Return(testMergeSHA, nil)
	ghClient.EXPECT().
		CreateIssueComment(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Any()).
		Return(nil)

	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:pending")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStatePending), gomock.Eq(testStatusContext),
			gomock.Eq("pending: testing merge candidate"),
			gomock.Eq("https://github.com/testman/repo/commit/"+testMergeSHA),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeAction, report.Outcome)
	assert.Equal(t, StatePending, report.Decision.NextState)
}

func TestRunTestedEntryLands(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("tested: all builders passed candidate cccccccc", time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	mockRefSHACall(ghClient, "auto", testStagedSHA)
	mockRefSHACall(ghClient, "master", testMasterSHA)
	mockCommitParentsCall(ghClient, testStagedSHA, []string{testMasterSHA, pr.HeadSHA})

	landComment := ghClient.EXPECT().
		CreateIssueComment(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42),
			gomock.Eq("landlord: fast-forwarding master to auto = cccccccc"),
		).
		Return(nil)

	ffwd := ghClient.EXPECT().
		FastForwardRef(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq("master"), gomock.Eq(testStagedSHA)).
		Return(nil).
		After(landComment)

	ghClient.EXPECT().
		ClosePullRequest(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42)).
		Return(nil).
		After(ffwd)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeAction, report.Outcome)
	assert.Equal(t, ActionLand, report.Decision.Action)
	assert.Empty(t, report.Decision.NextState)
}

func TestRunTestedEntryFastForwardFailureIsRecorded(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("tested: all builders passed candidate cccccccc", time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	mockRefSHACall(ghClient, "auto", testStagedSHA)
	mockRefSHACall(ghClient, "master", testMasterSHA)
	mockCommitParentsCall(ghClient, testStagedSHA, []string{testMasterSHA, pr.HeadSHA})

	landComment := ghClient.EXPECT().
		CreateIssueComment(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42),
			gomock.Eq("landlord: fast-forwarding master to auto = cccccccc"),
		).
		Return(nil)

	// master moved since the candidate was built, ClosePullRequest must
	// never be called, the pull request stays open
	ffwd := ghClient.EXPECT().
		FastForwardRef(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq("master"), gomock.Eq(testStagedSHA)).
		Return(githubclt.ErrNotFastForward).
		After(landComment)

	var failureComment string
	ghClient.EXPECT().
		CreateIssueComment(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, comment string) error {
			failureComment = comment
			return nil
		}).
		After(ffwd)

	ghClient.EXPECT().
		RemoveLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:tested")).
		Return(nil)
	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:error")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStateError), gomock.Eq(testStatusContext),
			gomock.Eq("error: fast-forward failed"), gomock.Eq(""),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeFailureRecorded, report.Outcome)
	assert.Equal(t, StateError, report.Decision.NextState)
	assert.Contains(t, failureComment, "fast-forwarding master to auto")
	assert.Contains(t, failureComment, "failed")
}

func TestRunStageMergeConflictIsRecorded(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	pr := newPRSnapshot(42)
	pr.HeadStatuses = []*githubclt.CommitStatus{newMarker("approved: by "+reviewer, time.Hour)}
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	mockRefSHACall(ghClient, "master", testMasterSHA)
	ghClient.EXPECT().
		ForceSetRef(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq("auto"), gomock.Eq(testMasterSHA)).
		Return(nil)
	// GitHub considered the branch mergeable, the merge still failed
	ghClient.EXPECT().
		MergeRef(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq("auto"), gomock.Eq(pr.HeadSHA), gomock.Any()).
		Return("", githubclt.ErrMergeConflict)

	var failureComment string
	ghClient.EXPECT().
		CreateIssueComment(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, comment string) error {
			failureComment = comment
			return nil
		})

	ghClient.EXPECT().
		RemoveLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:approved")).
		Return(nil)
	ghClient.EXPECT().
		AddLabel(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(42), gomock.Eq("landlord:error")).
		Return(nil)
	ghClient.EXPECT().
		CreateCommitStatus(
			gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(pr.HeadSHA),
			gomock.Eq(githubclt.StatusStateError), gomock.Eq(testStatusContext),
			gomock.Eq("error: merge failed"), gomock.Eq(""),
		).
		Return(nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeFailureRecorded, report.Outcome)
	assert.Equal(t, StateError, report.Decision.NextState)
	assert.Contains(t, failureComment, "merging")
	assert.Contains(t, failureComment, "failed")
}

func TestRunSnapshotFetchIsRetried(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	gomock.InOrder(
		ghClient.EXPECT().
			QueueSnapshot(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo)).
			Return(nil, landerr.NewRetryableAnytimeError(errors.New("bad gateway"))),
		ghClient.EXPECT().
			QueueSnapshot(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo)).
			Return(nil, nil),
	)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunOutcomeNoop, report.Outcome)
}

func TestRunSnapshotFetchPermanentErrorAborts(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	runner, ghClient, _ := newRunnerForTest(t)

	ghClient.EXPECT().
		QueueSnapshot(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo)).
		Return(nil, errors.New("unauthorized"))

	report, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "fetching queue snapshot failed")
}

func TestRunWritesSnapshotFile(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	path := filepath.Join(t.TempDir(), "queue.json")
	runner, ghClient, _ := newRunnerForTest(t, WithSnapshotFile(path))

	pr := newPRSnapshot(7, newComment(time.Minute, "contributor", "please review"))
	mockQueueSnapshotCall(ghClient, []*githubclt.PullRequestSnapshot{pr})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunOutcomeNoop, report.Outcome)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)

	assert.Equal(t, float64(7), records[0]["num"])
	assert.Equal(t, "DISCUSSING", records[0]["state"])

	lastComment, ok := records[0]["last_comment"].([]any)
	require.True(t, ok, "last_comment must be a [timestamp, author, body] triple")
	require.Len(t, lastComment, 3)
	assert.Equal(t, "contributor", lastComment[1])
	assert.Equal(t, "please review", lastComment[2])
}

func TestRunWritesMetricsTextfile(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	path := filepath.Join(t.TempDir(), "landlord.prom")
	runner, ghClient, _ := newRunnerForTest(t, WithMetrics(NewRunMetrics(path)))

	mockQueueSnapshotCall(ghClient, nil)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "landlord_queue_entries")
	assert.Contains(t, content, `landlord_last_run_outcome{outcome="no-op"} 1`)
	assert.Contains(t, content, "landlord_run_duration_seconds")
}
