package mergequeue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/buildbot"
	"github.com/simplesurance/landlord/internal/cfg"
	"github.com/simplesurance/landlord/internal/githubclt"
	"github.com/simplesurance/landlord/internal/logfields"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go -source run.go

// GithubClient is the client for the Git hosting service that the runner and
// the dispatcher use.
type GithubClient interface {
	QueueSnapshot(ctx context.Context, owner, repo string) ([]*githubclt.PullRequestSnapshot, error)
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, state githubclt.StatusState, statusContext, description, targetURL string) error
	CreateIssueComment(ctx context.Context, owner, repo string, issueOrPRNr int, comment string) error
	AddLabel(ctx context.Context, owner, repo string, pullRequestOrIssueNumber int, label string) error
	RemoveLabel(ctx context.Context, owner, repo string, pullRequestOrIssueNumber int, label string) error
	ClosePullRequest(ctx context.Context, owner, repo string, number int) error
	RefSHA(ctx context.Context, owner, repo, ref string) (string, error)
	ForceSetRef(ctx context.Context, owner, repo, ref, sha string) error
	FastForwardRef(ctx context.Context, owner, repo, ref, sha string) error
	MergeRef(ctx context.Context, owner, repo, base, head, commitMessage string) (string, error)
	CommitParents(ctx context.Context, owner, repo, sha string) ([]string, error)
}

// CIClient is the client for the CI server.
type CIClient interface {
	BuilderResult(ctx context.Context, builder, revision string) (*buildbot.BuildResult, error)
}

// RunOutcome classifies what a reconciliation run did.
type RunOutcome string

const (
	// RunOutcomeAction: a transition was dispatched.
	RunOutcomeAction RunOutcome = "action-dispatched"
	// RunOutcomeNoop: nothing needed to change.
	RunOutcomeNoop RunOutcome = "no-op"
	// RunOutcomeFailureRecorded: the run moved the selected entry into a
	// failure state and recorded it.
	RunOutcomeFailureRecorded RunOutcome = "failure-recorded"
)

// RunReport summarizes one reconciliation run.
type RunReport struct {
	Outcome RunOutcome
	// Entry is the selected queue entry, nil when the queue was empty.
	Entry *QueueEntry
	// Decision is the dispatched or skipped transition, nil when the
	// queue was empty.
	Decision *Decision
	// QueueSize is the number of admitted queue entries.
	QueueSize int
}

const defaultFetchRetryTimeout = 2 * time.Minute

// Runner performs reconciliation runs against one monitored repository.
type Runner struct {
	ghClt         GithubClient
	ciClt         CIClient
	repoCfg       *cfg.RepoConfig
	statusContext string

	engine     *Engine
	dispatcher *Dispatcher
	retryer    *Retryer

	filter       *Filter
	snapshotFile string
	metrics      *RunMetrics

	logger *zap.Logger
}

type option func(*Runner)

// WithFilter drops queue entries that the jq filter query does not admit.
func WithFilter(filter *Filter) option {
	return func(r *Runner) {
		r.filter = filter
	}
}

// WithSnapshotFile writes the queue snapshot of every run to path.
func WithSnapshotFile(path string) option {
	return func(r *Runner) {
		r.snapshotFile = path
	}
}

// WithMetrics records queue and run metrics and writes them to a textfile
// after every run.
func WithMetrics(metrics *RunMetrics) option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// WithFetchRetryTimeout bounds for how long failed snapshot and CI fetches
// are retried.
func WithFetchRetryTimeout(timeout time.Duration) option {
	return func(r *Runner) {
		r.retryer = NewRetryer(timeout)
	}
}

func NewRunner(ghClt GithubClient, ciClt CIClient, repoCfg *cfg.RepoConfig, statusContext string, opts ...option) *Runner {
	runner := Runner{
		ghClt:         ghClt,
		ciClt:         ciClt,
		repoCfg:       repoCfg,
		statusContext: statusContext,
		engine:        NewEngine(repoCfg),
		dispatcher:    NewDispatcher(ghClt, repoCfg, statusContext),
		retryer:       NewRetryer(defaultFetchRetryTimeout),
		logger:        zap.L().Named("runner"),
	}

	for _, opt := range opts {
		opt(&runner)
	}

	return &runner
}

// Run performs one reconciliation run: it fetches the snapshot, builds the
// queue, selects the most actionable entry and advances it by at most one
// transition.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()

	report, err := r.run(ctx)

	if r.metrics != nil {
		r.metrics.RecordRun(report, time.Since(start))

		if werr := r.metrics.WriteTextfile(); werr != nil {
			r.logger.Warn(
				"writing metrics textfile failed",
				logfields.Event("metrics_write_failed"),
				zap.Error(werr),
			)
		}
	}

	return report, err
}

func (r *Runner) run(ctx context.Context) (*RunReport, error) {
	owner, repo := r.repoCfg.Owner, r.repoCfg.Repo

	var prs []*githubclt.PullRequestSnapshot

	err := r.retryer.Run(ctx, func(ctx context.Context) error {
		var err error
		prs, err = r.ghClt.QueueSnapshot(ctx, owner, repo)

		return err
	}, []zap.Field{
		logfields.Event("queue_snapshot_fetch"),
		logfields.RepositoryOwner(owner),
		logfields.Repository(repo),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching queue snapshot failed: %w", err)
	}

	queue := NewQueue(ctx, prs, r.repoCfg, r.statusContext, r.filter)

	if r.metrics != nil {
		r.metrics.RecordQueue(queue)
	}

	if r.snapshotFile != "" {
		if err := WriteSnapshotFile(r.snapshotFile, queue.SnapshotRecords()); err != nil {
			return nil, err
		}
	}

	entry := queue.Select()
	if entry == nil {
		r.logger.Info("queue is empty, nothing to do", logEventRunNoop)

		return &RunReport{Outcome: RunOutcomeNoop}, nil
	}

	logger := r.logger.With(entry.LogFields...)

	var facts *BuildFacts

	if entry.State == StatePending || entry.State == StateTested {
		facts, err = r.buildFacts(ctx, entry)
		if err != nil {
			return nil, err
		}
	}

	decision := r.engine.Transition(entry, facts)

	report := RunReport{
		Entry:     entry,
		Decision:  decision,
		QueueSize: len(queue.Entries),
	}

	if decision.IsNoop() {
		logger.Info(
			"nothing to do for the selected entry",
			logEventRunNoop,
			logFieldReason(decision.NoopReason),
		)

		report.Outcome = RunOutcomeNoop

		return &report, nil
	}

	decision, err = r.dispatch(ctx, decision)
	if err != nil {
		return nil, err
	}

	report.Decision = decision
	report.Outcome = RunOutcomeAction

	if decision.NextState.failure() {
		report.Outcome = RunOutcomeFailureRecorded
	}

	logger.Info(
		"run finished",
		logEventRunFinished,
		zap.String("run_outcome", string(report.Outcome)),
		zap.String("queue.new_state", string(decision.NextState)),
	)

	return &report, nil
}

// dispatch applies decision. When the action fails in an expected way, on a
// merge conflict or a lost fast-forward race, the failure is recorded on the
// entry via a fallback decision instead of failing the run.
func (r *Runner) dispatch(ctx context.Context, decision *Decision) (*Decision, error) {
	err := r.dispatcher.Apply(ctx, decision)
	if err == nil {
		return decision, nil
	}

	var fallback *Decision

	switch {
	case errors.Is(err, githubclt.ErrMergeConflict):
		fallback = r.engine.MergeConflictDecision(decision.Entry, err)

	case errors.Is(err, githubclt.ErrNotFastForward):
		fallback = r.engine.FastForwardFailedDecision(decision.Entry, decision.CandidateSHA, err)

	default:
		return nil, fmt.Errorf("dispatching transition failed: %w", err)
	}

	r.logger.Warn(
		"action failed, recording failure state",
		append([]zap.Field{logEventActionFailed, zap.Error(err)}, decision.Entry.LogFields...)...,
	)

	if err := r.dispatcher.Apply(ctx, fallback); err != nil {
		return nil, fmt.Errorf("recording failure state failed: %w", err)
	}

	return fallback, nil
}

// buildFacts collects the candidate facts for an entry whose merge candidate
// should be staged on the test ref: the merge commit that tests the entry's
// head and, for pending entries, one build result per configured builder.
func (r *Runner) buildFacts(ctx context.Context, entry *QueueEntry) (*BuildFacts, error) {
	var facts BuildFacts

	owner, repo := r.repoCfg.Owner, r.repoCfg.Repo

	err := r.retryer.Run(ctx, func(ctx context.Context) error {
		facts = BuildFacts{}

		testSHA, err := r.ghClt.RefSHA(ctx, owner, repo, r.repoCfg.TestRef)
		if err != nil {
			return err
		}

		masterSHA, err := r.ghClt.RefSHA(ctx, owner, repo, r.repoCfg.MasterRef)
		if err != nil {
			return err
		}

		parents, err := r.ghClt.CommitParents(ctx, owner, repo, testSHA)
		if err != nil {
			return err
		}

		if !isCandidateOf(parents, masterSHA, entry.HeadSHA) {
			return nil
		}

		facts.CandidateSHA = testSHA

		if entry.State != StatePending {
			return nil
		}

		for _, builder := range r.repoCfg.Builders {
			result, err := r.ciClt.BuilderResult(ctx, builder, testSHA)
			if err != nil {
				return err
			}

			facts.Results = append(facts.Results, result)
		}

		return nil
	}, append([]zap.Field{logfields.Event("candidate_facts_fetch")}, entry.LogFields...))
	if err != nil {
		return nil, fmt.Errorf("collecting candidate facts failed: %w", err)
	}

	return &facts, nil
}

// isCandidateOf reports whether a commit with the given parents is the merge
// commit that merges headSHA with the current master head.
func isCandidateOf(parents []string, masterSHA, headSHA string) bool {
	if len(parents) != 2 {
		return false
	}

	for i, parent := range parents {
		if parent == masterSHA {
			return parents[1-i] == headSHA
		}
	}

	return false
}
