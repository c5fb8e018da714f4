// Package buildbot provides a client for the Buildbot JSON status API.
package buildbot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/landerr"
	"github.com/simplesurance/landlord/internal/logfields"
)

const loggerName = "buildbot_client"

// Outcome is the aggregated result of one builder for one revision.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeInProgress means a build for the revision exists but did not
	// report a final result yet.
	OutcomeInProgress Outcome = "in-progress"
	// OutcomeAbsent means the builder has no build for the revision in
	// its recent history.
	OutcomeAbsent Outcome = "absent"
)

// BuildResult is the result of one builder for one tested revision.
type BuildResult struct {
	Builder string
	// Ref is the revision that the build tested.
	Ref     string
	Outcome Outcome
	// Count is the number of builds in the inspected history window.
	Count int
	// URL points to the build detail page, it is empty when Outcome is
	// OutcomeAbsent.
	URL string
}

// Client reads build results from the Buildbot JSON API.
// Methods return a landerr.RetryableError when an operation can be retried.
type Client struct {
	baseURL    string
	nbuilds    int
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns a client for the Buildbot instance at baseURL.
// nbuilds bounds how many recent builds per builder are inspected.
func New(baseURL string, nbuilds int, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		nbuilds:    nbuilds,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.L().Named(loggerName),
	}
}

// build is one entry of the builds document. History slots that are not
// available are placeholder objects without properties.
type build struct {
	Number     int             `json:"number"`
	Results    *int            `json:"results"`
	Properties [][]interface{} `json:"properties"`
}

// revision returns the revision that the build tested, taken from its
// got_revision property. It is empty when the property is missing.
func (b *build) revision() string {
	var rev string

	for _, prop := range b.Properties {
		if len(prop) < 3 {
			continue
		}

		name, ok := prop[0].(string)
		if !ok || name != "got_revision" {
			continue
		}

		source, ok := prop[2].(string)
		if !ok || (source != "Source" && source != "Git") {
			continue
		}

		if val, ok := prop[1].(string); ok {
			rev = val
		}
	}

	return rev
}

func (b *build) outcome() Outcome {
	if b.Results == nil {
		return OutcomeInProgress
	}

	// 0 is success, 1 success with warnings, 2 failure, 4 an exception
	// in the build infrastructure. Other values (skipped, retried) carry
	// no final result.
	switch *b.Results {
	case 0, 1:
		return OutcomeSuccess
	case 2, 4:
		return OutcomeFailure
	default:
		return OutcomeInProgress
	}
}

// History is the recent build history of one builder, indexed by tested
// revision.
type History struct {
	builder string
	baseURL string
	count   int
	builds  map[string]*build
}

// BuilderHistory fetches the nbuilds most recent builds of builder.
func (clt *Client) BuilderHistory(ctx context.Context, builder string) (*History, error) {
	query := url.Values{}
	for i := 1; i <= clt.nbuilds; i++ {
		query.Add("select", strconv.Itoa(-i))
	}

	u := fmt.Sprintf("%s/json/builders/%s/builds?%s",
		clt.baseURL, url.PathEscape(builder), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := clt.httpClient.Do(req)
	if err != nil {
		return nil, landerr.NewRetryableAnytimeError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("buildbot answered request %q with status %d", u, resp.StatusCode)
		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			return nil, landerr.NewRetryableAnytimeError(err)
		}

		return nil, err
	}

	var doc map[string]*build
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding buildbot builds document failed: %w", err)
	}

	result := History{
		builder: builder,
		baseURL: clt.baseURL,
		builds:  make(map[string]*build, len(doc)),
	}

	for _, b := range doc {
		rev := b.revision()
		if rev == "" {
			continue
		}

		result.count++

		// a revision can have been built multiple times, e.g. after a
		// forced rebuild, the most recent build decides
		if existing, exist := result.builds[rev]; !exist || b.Number > existing.Number {
			result.builds[rev] = b
		}
	}

	clt.logger.Debug("loaded builder history",
		logfields.Event("buildbot_history_loaded"),
		logfields.Builder(builder),
		zap.Int("ci.build_count", result.count),
	)

	return &result, nil
}

// BuilderResult fetches the recent history of builder and returns its result
// for revision.
func (clt *Client) BuilderResult(ctx context.Context, builder, revision string) (*BuildResult, error) {
	history, err := clt.BuilderHistory(ctx, builder)
	if err != nil {
		return nil, err
	}

	return history.ResultFor(revision), nil
}

// ResultFor returns the builder's result for revision.
func (h *History) ResultFor(revision string) *BuildResult {
	result := BuildResult{
		Builder: h.builder,
		Ref:     revision,
		Outcome: OutcomeAbsent,
		Count:   h.count,
	}

	b, exist := h.builds[revision]
	if !exist {
		return &result
	}

	result.Outcome = b.outcome()
	result.URL = fmt.Sprintf("%s/builders/%s/builds/%d", h.baseURL, h.builder, b.Number)

	return &result
}
