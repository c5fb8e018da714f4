// Package githubclt provides the GitHub API client of landlord.
package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v43/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/simplesurance/landlord/internal/landerr"
	"github.com/simplesurance/landlord/internal/logfields"
)

const DefaultHTTPClientTimeout = time.Minute

const loggerName = "github_client"

// ErrMergeConflict is returned when two branches can not be merged
// automatically. It is a permanent condition that a human must resolve.
var ErrMergeConflict = errors.New("branches can not be merged")

// ErrNotFastForward is returned when a ref update was rejected because the
// target branch moved and the new commit is not a descendant of its head.
var ErrNotFastForward = errors.New("ref update is not a fast-forward")

// StatusState is the state value of a GitHub commit status.
type StatusState string

const (
	StatusStatePending StatusState = "pending"
	StatusStateSuccess StatusState = "success"
	StatusStateFailure StatusState = "failure"
	StatusStateError   StatusState = "error"
)

var apiTokenPrefixes = []string{"ghp_", "ghs_", "github_pat_"}

// New returns a GitHub API client that authenticates as the given service
// account. A token-shaped password is sent as OAuth2 bearer token, anything
// else via HTTP basic-auth. apiURL and graphQLURL override the default
// api.github.com endpoints, empty strings use the defaults. timeout bounds
// single HTTP requests, <=0 uses DefaultHTTPClientTimeout.
func New(user, pass, apiURL, graphQLURL string, timeout time.Duration) (*Client, error) {
	httpClient := newHTTPClient(user, pass, timeout)

	restClt := github.NewClient(httpClient)
	if apiURL != "" {
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parsing github api url failed: %w", err)
		}

		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}

		restClt.BaseURL = u
	}

	var graphQLClt *githubv4.Client
	if graphQLURL == "" {
		graphQLClt = githubv4.NewClient(httpClient)
	} else {
		graphQLClt = githubv4.NewEnterpriseClient(graphQLURL, httpClient)
	}

	return &Client{
		restClt:    restClt,
		graphQLClt: graphQLClt,
		logger:     zap.L().Named(loggerName),
	}, nil
}

func newHTTPClient(user, pass string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPClientTimeout
	}

	// the ratelimit transport sleeps and retries requests that github
	// rejected because of a secondary rate limit
	rateLimitClt := github_ratelimit.NewClient(nil)

	if isAPIToken(pass) {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: pass},
		)

		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, rateLimitClt)
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = timeout

		return tc
	}

	basicAuth := github.BasicAuthTransport{
		Username:  user,
		Password:  pass,
		Transport: rateLimitClt.Transport,
	}

	clt := basicAuth.Client()
	clt.Timeout = timeout

	return clt
}

func isAPIToken(pass string) bool {
	for _, prefix := range apiTokenPrefixes {
		if strings.HasPrefix(pass, prefix) {
			return true
		}
	}

	return false
}

// Client is a GitHub API client.
// All methods return a landerr.RetryableError when an operation can be
// retried. This can be e.g. the case when the API ratelimit is exceeded.
type Client struct {
	restClt    *github.Client
	graphQLClt *githubv4.Client
	logger     *zap.Logger
}

// CreateCommitStatus reports a status for a commit.
// Reporting the same status again succeeds and is a no-op on the GitHub side.
func (clt *Client) CreateCommitStatus(ctx context.Context, owner, repo, sha string, state StatusState, statusContext, description, targetURL string) error {
	status := github.RepoStatus{
		State:       github.String(string(state)),
		Context:     github.String(statusContext),
		Description: github.String(description),
	}

	if targetURL != "" {
		status.TargetURL = github.String(targetURL)
	}

	_, _, err := clt.restClt.Repositories.CreateStatus(ctx, owner, repo, sha, &status)
	return clt.wrapRetryableErrors(err)
}

// CreateIssueComment creates a comment in an issue or pull request.
func (clt *Client) CreateIssueComment(ctx context.Context, owner, repo string, issueOrPRNr int, comment string) error {
	_, _, err := clt.restClt.Issues.CreateComment(ctx, owner, repo, issueOrPRNr, &github.IssueComment{Body: &comment})
	return clt.wrapRetryableErrors(err)
}

// AddLabel adds a label to a pull request or issue.
func (clt *Client) AddLabel(ctx context.Context, owner, repo string, pullRequestOrIssueNumber int, label string) error {
	if label == "" {
		// github removes all labels when none is provided, fail
		// instead if an empty label value is passed because of a bug
		return errors.New("provided label is empty")
	}

	_, _, err := clt.restClt.Issues.AddLabelsToIssue(ctx, owner, repo, pullRequestOrIssueNumber, []string{label})
	return clt.wrapRetryableErrors(err)
}

// RemoveLabel removes a label from a pull request or issue.
// If the issue or PR does not have the label, the operation succeeds.
func (clt *Client) RemoveLabel(ctx context.Context, owner, repo string, pullRequestOrIssueNumber int, label string) error {
	_, err := clt.restClt.Issues.RemoveLabelForIssue(
		ctx,
		owner,
		repo,
		pullRequestOrIssueNumber,
		label,
	)
	if err != nil {
		var respErr *github.ErrorResponse
		if errors.As(err, &respErr) && respErr.Response.StatusCode == http.StatusNotFound {
			clt.logger.Debug("removing label returned a not found response, interpreting it as success",
				logfields.RepositoryOwner(owner),
				logfields.Repository(repo),
				logfields.PullRequest(pullRequestOrIssueNumber),
				logfields.Label(label),
				logfields.Event("github_remove_label_returned_not_found"),
				zap.Error(err),
			)

			return nil
		}

		return clt.wrapRetryableErrors(err)
	}

	return nil
}

// ClosePullRequest closes a pull request without merging it via the GitHub
// merge button. Closing an already closed pull request fails.
func (clt *Client) ClosePullRequest(ctx context.Context, owner, repo string, number int) error {
	_, _, err := clt.restClt.PullRequests.Edit(ctx, owner, repo, number, &github.PullRequest{
		State: github.String("closed"),
	})
	return clt.wrapRetryableErrors(err)
}

// RefSHA returns the commit that the branch ref currently points to.
func (clt *Client) RefSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	gitRef, _, err := clt.restClt.Git.GetRef(ctx, owner, repo, "heads/"+ref)
	if err != nil {
		return "", clt.wrapRetryableErrors(err)
	}

	sha := gitRef.GetObject().GetSHA()
	if sha == "" {
		return "", errors.New("github returned a ref object with an empty sha")
	}

	return sha, nil
}

// ForceSetRef makes the branch ref point to sha, discarding the commits it
// pointed to before.
func (clt *Client) ForceSetRef(ctx context.Context, owner, repo, ref, sha string) error {
	_, _, err := clt.restClt.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/" + ref),
		Object: &github.GitObject{SHA: github.String(sha)},
	}, true)

	return clt.wrapRetryableErrors(err)
}

// FastForwardRef advances the branch ref to sha without allowing history to
// be discarded. If ref moved and sha is not a descendant of its current
// head, an error wrapping ErrNotFastForward is returned.
func (clt *Client) FastForwardRef(ctx context.Context, owner, repo, ref, sha string) error {
	_, _, err := clt.restClt.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/" + ref),
		Object: &github.GitObject{SHA: github.String(sha)},
	}, false)
	if err != nil {
		var respErr *github.ErrorResponse
		if errors.As(err, &respErr) &&
			respErr.Response.StatusCode == http.StatusUnprocessableEntity &&
			strings.Contains(strings.ToLower(respErr.Message), "fast forward") {
			return fmt.Errorf("%w: %s", ErrNotFastForward, respErr.Message)
		}

		return clt.wrapRetryableErrors(err)
	}

	return nil
}

// MergeRef merges head into the branch base and returns the sha of the
// created merge commit. head can be a branch name or a commit sha.
// If the branches can not be merged automatically an error wrapping
// ErrMergeConflict is returned.
func (clt *Client) MergeRef(ctx context.Context, owner, repo, base, head, commitMessage string) (string, error) {
	commit, _, err := clt.restClt.Repositories.Merge(ctx, owner, repo, &github.RepositoryMergeRequest{
		Base:          github.String(base),
		Head:          github.String(head),
		CommitMessage: github.String(commitMessage),
	})
	if err != nil {
		var respErr *github.ErrorResponse
		if errors.As(err, &respErr) {
			switch respErr.Response.StatusCode {
			case http.StatusConflict, http.StatusNotFound, http.StatusUnprocessableEntity:
				return "", fmt.Errorf("%w: %s", ErrMergeConflict, respErr.Message)
			}
		}

		return "", clt.wrapRetryableErrors(err)
	}

	if commit.GetSHA() == "" {
		// github answers with 204 and an empty body when head is
		// already contained in base
		return "", fmt.Errorf("%w: merge did not create a commit, head is already contained in base", ErrMergeConflict)
	}

	return commit.GetSHA(), nil
}

// CommitParents returns the parent commit shas of a commit.
func (clt *Client) CommitParents(ctx context.Context, owner, repo, sha string) ([]string, error) {
	commit, _, err := clt.restClt.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, clt.wrapRetryableErrors(err)
	}

	result := make([]string, 0, len(commit.Parents))
	for _, parent := range commit.Parents {
		if parent.GetSHA() == "" {
			return nil, errors.New("github returned a parent commit with an empty sha")
		}

		result = append(result, parent.GetSHA())
	}

	return result, nil
}

func (clt *Client) wrapRetryableErrors(err error) error {
	switch v := err.(type) {
	case *github.RateLimitError:
		clt.logger.Info(
			"rate limit exceeded",
			logfields.Event("github_api_rate_limit_exceeded"),
			zap.Int("github_api_rate_limit", v.Rate.Limit),
			zap.Int("github_api_rate_limit_remaining", v.Rate.Remaining),
			zap.Time("github_api_rate_limit_reset_time", v.Rate.Reset.Time),
		)

		return landerr.NewRetryableError(err, v.Rate.Reset.Time)

	case *github.ErrorResponse:
		if v.Response.StatusCode >= 500 && v.Response.StatusCode < 600 {
			return landerr.NewRetryableAnytimeError(err)
		}
	}

	return err
}

var graphQlHTTPStatusErrRe = regexp.MustCompile(`^non-200 OK status code: ([0-9]+) .*`)

func (clt *Client) wrapGraphQLRetryableErrors(err error) error {
	matches := graphQlHTTPStatusErrRe.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return err
	}

	errcode, atoiErr := strconv.Atoi(matches[1])
	if atoiErr != nil {
		clt.logger.Info(
			"parsing http code from error string failed",
			zap.Error(atoiErr),
			zap.String("error_string", err.Error()),
			zap.String("http_errcode", matches[1]),
		)
		return err
	}

	if errcode >= 500 && errcode < 600 {
		return landerr.NewRetryableAnytimeError(err)
	}

	return err
}
