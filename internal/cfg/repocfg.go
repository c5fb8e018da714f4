package cfg

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

// RepoConfig describes the repository whose merge queue is managed.
// The schema is fixed, all keys are required.
type RepoConfig struct {
	// Owner and Repo identify the repository on the review service.
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	// Reviewers are the logins that are authorized to issue r+/r-
	// verdicts.
	Reviewers []string `json:"reviewers"`
	// Builders are the CI jobs that all must succeed before an entry
	// counts as tested.
	Builders []string `json:"builders"`
	// TestRef is the branch that merge candidates are staged on for
	// testing, MasterRef the mainline branch that is fast-forwarded after
	// a successful test run.
	TestRef   string `json:"test_ref"`
	MasterRef string `json:"master_ref"`
	// NBuilds bounds how many builds per builder are inspected when
	// looking for the result of a tested commit.
	NBuilds int `json:"nbuilds"`
	// BuildbotURL is the base URL of the Buildbot instance.
	BuildbotURL string `json:"buildbot"`
	// GithubUser and GithubPass are the service account credentials.
	// A token-shaped GithubPass is used as OAuth2 bearer token, anything
	// else as HTTP basic-auth password.
	GithubUser string `json:"gh_user"`
	GithubPass string `json:"gh_pass"`
}

var repoCfgKeys = []string{
	"owner", "repo", "reviewers", "builders",
	"test_ref", "master_ref", "nbuilds", "buildbot",
	"gh_user", "gh_pass",
}

// LoadRepoConfig reads and validates a repository configuration.
// A missing key, an empty value or an unparsable buildbot URL is an error.
func LoadRepoConfig(reader io.Reader) (*RepoConfig, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing json document failed: %w", err)
	}

	for _, key := range repoCfgKeys {
		if _, exist := raw[key]; !exist {
			return nil, fmt.Errorf("required key %q is missing", key)
		}
	}

	var result RepoConfig
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing json document failed: %w", err)
	}

	if err := result.validate(); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *RepoConfig) validate() error {
	for key, val := range map[string]string{
		"owner":      c.Owner,
		"repo":       c.Repo,
		"test_ref":   c.TestRef,
		"master_ref": c.MasterRef,
		"gh_user":    c.GithubUser,
		"gh_pass":    c.GithubPass,
	} {
		if val == "" {
			return fmt.Errorf("key %q must not be empty", key)
		}
	}

	if len(c.Reviewers) == 0 {
		return fmt.Errorf("key %q must list at least one login", "reviewers")
	}

	if len(c.Builders) == 0 {
		return fmt.Errorf("key %q must list at least one builder", "builders")
	}

	if c.NBuilds < 1 {
		return fmt.Errorf("key %q must be >=1, is %d", "nbuilds", c.NBuilds)
	}

	if _, err := url.ParseRequestURI(c.BuildbotURL); err != nil {
		return fmt.Errorf("key %q does not contain a valid URL: %w", "buildbot", err)
	}

	if c.TestRef == c.MasterRef {
		return fmt.Errorf("test_ref and master_ref must differ, both are %q", c.TestRef)
	}

	return nil
}

// ReviewerSet returns the reviewers as set for membership checks.
func (c *RepoConfig) ReviewerSet() map[string]struct{} {
	result := make(map[string]struct{}, len(c.Reviewers))

	for _, login := range c.Reviewers {
		result[login] = struct{}{}
	}

	return result
}

// IsReviewer returns true if login is authorized to issue verdicts.
func (c *RepoConfig) IsReviewer(login string) bool {
	for _, reviewer := range c.Reviewers {
		if reviewer == login {
			return true
		}
	}

	return false
}
