package mergequeue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/cfg"
	"github.com/simplesurance/landlord/internal/logfields"
)

// Dispatcher executes transition decisions against the Git hosting service.
//
// The write order is fixed: the decision's comment is posted first, then the
// action runs, then the mirror labels are swapped and the state marker is
// written last. Because the marker comes last, a run that fails in between
// leaves the old state in place and the next run retries the transition.
type Dispatcher struct {
	clt           GithubClient
	repoCfg       *cfg.RepoConfig
	statusContext string
	logger        *zap.Logger
}

func NewDispatcher(clt GithubClient, repoCfg *cfg.RepoConfig, statusContext string) *Dispatcher {
	return &Dispatcher{
		clt:           clt,
		repoCfg:       repoCfg,
		statusContext: statusContext,
		logger:        zap.L().Named("dispatcher"),
	}
}

// Apply executes decision. No-op decisions write nothing.
func (d *Dispatcher) Apply(ctx context.Context, decision *Decision) error {
	if decision.IsNoop() {
		return nil
	}

	entry := decision.Entry
	logger := d.logger.With(entry.LogFields...)

	if decision.Comment != "" {
		err := d.clt.CreateIssueComment(ctx, d.repoCfg.Owner, d.repoCfg.Repo, entry.Number, decision.Comment)
		if err != nil {
			return fmt.Errorf("posting comment failed: %w", err)
		}

		logger.Info("comment posted", logEventCommentPosted)
	}

	targetURL := decision.TargetURL

	switch decision.Action {
	case ActionStageMerge:
		mergeSHA, err := d.stageMerge(ctx, entry, logger)
		if err != nil {
			return err
		}

		targetURL = d.commitURL(mergeSHA)

	case ActionLand:
		return d.land(ctx, decision, logger)
	}

	if decision.NextState != "" {
		d.swapMirrorLabels(ctx, entry, decision.NextState, logger)

		err := d.clt.CreateCommitStatus(
			ctx,
			d.repoCfg.Owner, d.repoCfg.Repo,
			entry.HeadSHA,
			decision.NextState.statusState(),
			d.statusContext,
			markerDescription(decision.NextState, decision.Detail),
			targetURL,
		)
		if err != nil {
			return fmt.Errorf("writing state marker failed: %w", err)
		}

		logger.Info(
			"state marker written",
			logEventStateChanged,
			zap.String("queue.new_state", string(decision.NextState)),
		)
	}

	return nil
}

// stageMerge resets the test ref to master and merges the entry's head into
// it. It returns the sha of the created merge commit.
func (d *Dispatcher) stageMerge(ctx context.Context, entry *QueueEntry, logger *zap.Logger) (string, error) {
	owner, repo := d.repoCfg.Owner, d.repoCfg.Repo

	masterSHA, err := d.clt.RefSHA(ctx, owner, repo, d.repoCfg.MasterRef)
	if err != nil {
		return "", fmt.Errorf("resolving %s failed: %w", d.repoCfg.MasterRef, err)
	}

	err = d.clt.ForceSetRef(ctx, owner, repo, d.repoCfg.TestRef, masterSHA)
	if err != nil {
		return "", fmt.Errorf("resetting %s to %s failed: %w", d.repoCfg.TestRef, d.repoCfg.MasterRef, err)
	}

	logger.Info(
		"test ref reset to master",
		logEventTestRefReset,
		logfields.Ref(d.repoCfg.TestRef),
		logfields.Commit(masterSHA),
	)

	mergeSHA, err := d.clt.MergeRef(ctx, owner, repo, d.repoCfg.TestRef, entry.HeadSHA, mergeCommitMessage(entry, d.repoCfg))
	if err != nil {
		return "", fmt.Errorf("merging %s into %s failed: %w", entry.shortDesc(), d.repoCfg.TestRef, err)
	}

	logger.Info(
		"merge candidate staged",
		logEventCandidateStaged,
		zap.String("git.merge_commit", mergeSHA),
	)

	err = d.clt.CreateIssueComment(
		ctx, owner, repo, entry.Number,
		fmt.Sprintf("landlord: merged %s into %s, testing candidate = %s",
			entry.shortDesc(), d.repoCfg.TestRef, shortSHA(mergeSHA)),
	)
	if err != nil {
		return "", fmt.Errorf("posting staging comment failed: %w", err)
	}

	return mergeSHA, nil
}

// land fast-forwards master to the tested candidate and closes the pull
// request. The entry leaves the queue by being closed, no marker is written.
func (d *Dispatcher) land(ctx context.Context, decision *Decision, logger *zap.Logger) error {
	owner, repo := d.repoCfg.Owner, d.repoCfg.Repo
	entry := decision.Entry

	err := d.clt.FastForwardRef(ctx, owner, repo, d.repoCfg.MasterRef, decision.CandidateSHA)
	if err != nil {
		return fmt.Errorf("fast-forwarding %s to %s failed: %w",
			d.repoCfg.MasterRef, shortSHA(decision.CandidateSHA), err)
	}

	logger.Info(
		"master fast-forwarded to candidate",
		logEventLanded,
		logfields.Ref(d.repoCfg.MasterRef),
		logfields.Commit(decision.CandidateSHA),
	)

	err = d.clt.ClosePullRequest(ctx, owner, repo, entry.Number)
	if err != nil {
		// the ref update may have closed the pull request already
		logger.Warn(
			"closing pull request failed, possibly auto-closed by the merge",
			logEventCloseFailed,
			zap.Error(err),
		)
	}

	return nil
}

// swapMirrorLabels replaces the mirror label of the entry's old state with
// the one of the new state. Mirror labels exist for humans browsing the pull
// request list, failures only log a warning and never fail the transition.
func (d *Dispatcher) swapMirrorLabels(ctx context.Context, entry *QueueEntry, next State, logger *zap.Logger) {
	owner, repo := d.repoCfg.Owner, d.repoCfg.Repo

	if entry.State.persisted() && entry.State != next {
		err := d.clt.RemoveLabel(ctx, owner, repo, entry.Number, entry.State.MirrorLabel())
		if err != nil {
			logger.Warn(
				"removing mirror label failed",
				logEventRemovingLabelFailed,
				logfields.Label(entry.State.MirrorLabel()),
				zap.Error(err),
			)
		}
	}

	err := d.clt.AddLabel(ctx, owner, repo, entry.Number, next.MirrorLabel())
	if err != nil {
		logger.Warn(
			"adding mirror label failed",
			logEventAddingLabelFailed,
			logfields.Label(next.MirrorLabel()),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) commitURL(sha string) string {
	return fmt.Sprintf("https://github.com/%s/%s/commit/%s", d.repoCfg.Owner, d.repoCfg.Repo, sha)
}

// mergeCommitMessage renders the commit message of a staged merge candidate.
func mergeCommitMessage(entry *QueueEntry, repoCfg *cfg.RepoConfig) string {
	approvers := strings.Join(approverLogins(entry.Comments, repoCfg.ReviewerSet()), ",")
	if approvers == "" {
		approvers = "unknown"
	}

	return fmt.Sprintf(
		"auto merge of #%d : %s/%s/%s, r=%s\n\n%s",
		entry.Number, entry.SourceOwner, entry.SourceRepo, entry.Ref, approvers, entry.Body,
	)
}
