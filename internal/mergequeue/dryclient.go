package mergequeue

import (
	"context"

	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/githubclt"
	"github.com/simplesurance/landlord/internal/logfields"
)

// simulatedMergeSHA is returned by the simulated merge, recognizable as fake
// in logs.
const simulatedMergeSHA = "0000000000000000000000000000000000000000"

// DryGithubClient is a GithubClient that changes nothing on the hosting
// service. Mutating operations are logged and always succeed, reads are
// forwarded to the wrapped client.
type DryGithubClient struct {
	clt    GithubClient
	logger *zap.Logger
}

func NewDryGithubClient(clt GithubClient) *DryGithubClient {
	return &DryGithubClient{
		clt:    clt,
		logger: zap.L().Named("dry_github_client"),
	}
}

func (c *DryGithubClient) QueueSnapshot(ctx context.Context, owner, repo string) ([]*githubclt.PullRequestSnapshot, error) {
	return c.clt.QueueSnapshot(ctx, owner, repo)
}

func (c *DryGithubClient) RefSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	return c.clt.RefSHA(ctx, owner, repo, ref)
}

func (c *DryGithubClient) CommitParents(ctx context.Context, owner, repo, sha string) ([]string, error) {
	return c.clt.CommitParents(ctx, owner, repo, sha)
}

func (c *DryGithubClient) CreateCommitStatus(_ context.Context, _, _, sha string, state githubclt.StatusState, _, description, _ string) error {
	c.logger.Info(
		"simulated writing commit status",
		logfields.Commit(sha),
		zap.String("github.status_state", string(state)),
		zap.String("github.status_description", description),
	)

	return nil
}

func (c *DryGithubClient) CreateIssueComment(_ context.Context, _, _ string, prNr int, comment string) error {
	c.logger.Info(
		"simulated posting comment",
		logfields.PullRequest(prNr),
		zap.String("github.comment", comment),
	)

	return nil
}

func (c *DryGithubClient) AddLabel(_ context.Context, _, _ string, prNr int, label string) error {
	c.logger.Info(
		"simulated adding label",
		logfields.PullRequest(prNr),
		logfields.Label(label),
	)

	return nil
}

func (c *DryGithubClient) RemoveLabel(_ context.Context, _, _ string, prNr int, label string) error {
	c.logger.Info(
		"simulated removing label",
		logfields.PullRequest(prNr),
		logfields.Label(label),
	)

	return nil
}

func (c *DryGithubClient) ClosePullRequest(_ context.Context, _, _ string, number int) error {
	c.logger.Info("simulated closing pull request", logfields.PullRequest(number))

	return nil
}

func (c *DryGithubClient) ForceSetRef(_ context.Context, _, _, ref, sha string) error {
	c.logger.Info(
		"simulated force-setting ref",
		logfields.Ref(ref),
		logfields.Commit(sha),
	)

	return nil
}

func (c *DryGithubClient) FastForwardRef(_ context.Context, _, _, ref, sha string) error {
	c.logger.Info(
		"simulated fast-forwarding ref",
		logfields.Ref(ref),
		logfields.Commit(sha),
	)

	return nil
}

func (c *DryGithubClient) MergeRef(_ context.Context, _, _, base, head, _ string) (string, error) {
	c.logger.Info(
		"simulated merging into ref",
		logfields.Ref(base),
		logfields.Commit(head),
	)

	return simulatedMergeSHA, nil
}
