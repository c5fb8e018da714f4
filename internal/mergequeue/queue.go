package mergequeue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/cfg"
	"github.com/simplesurance/landlord/internal/githubclt"
	"github.com/simplesurance/landlord/internal/logfields"
)

// Queue is the merge queue derived from one snapshot of the monitored
// repository, ordered most actionable entry first.
type Queue struct {
	Entries []*QueueEntry
}

// NewQueue builds the merge queue from the pull request snapshots.
//
// Snapshots that miss required fields or carry a state marker with an
// unparsable description are dropped and logged, a run never acts on an
// entry that it does not fully understand. When filter is non-nil, entries
// whose snapshot record the filter does not admit are dropped too.
func NewQueue(ctx context.Context, prs []*githubclt.PullRequestSnapshot, repoCfg *cfg.RepoConfig, statusContext string, filter *Filter) *Queue {
	logger := zap.L().Named("queue")
	reviewers := repoCfg.ReviewerSet()

	entries := make([]*QueueEntry, 0, len(prs))

	for _, pr := range prs {
		entry, err := newQueueEntry(pr, reviewers, statusContext)
		if err != nil {
			logger.Warn(
				"pull request excluded from queue",
				logfields.Event("queue_entry_invalid"),
				logfields.PullRequest(pr.Number),
				zap.Error(err),
			)

			continue
		}

		if filter != nil {
			admitted, err := filter.Admit(ctx, entry.snapshotRecord())
			if err != nil {
				logger.Warn(
					"pull request excluded from queue, filter query failed",
					logfields.Event("queue_filter_failed"),
					logfields.PullRequest(pr.Number),
					zap.Error(err),
				)

				continue
			}

			if !admitted {
				logger.Debug(
					"pull request not admitted by filter query",
					append([]zap.Field{logfields.Event("queue_entry_filtered")}, entry.LogFields...)...,
				)

				continue
			}
		}

		entries = append(entries, entry)
	}

	sortEntries(entries)

	return &Queue{Entries: entries}
}

func newQueueEntry(pr *githubclt.PullRequestSnapshot, reviewers map[string]struct{}, statusContext string) (*QueueEntry, error) {
	if pr.Number <= 0 {
		return nil, errors.New("pull request number is missing")
	}

	if pr.HeadSHA == "" {
		return nil, errors.New("head commit sha is missing")
	}

	if pr.SourceOwner == "" || pr.SourceRepo == "" || pr.HeadRef == "" {
		return nil, errors.New("source branch information is missing, source repository was probably deleted")
	}

	entry := QueueEntry{
		Number:        pr.Number,
		Title:         pr.Title,
		Body:          pr.Body,
		SourceOwner:   pr.SourceOwner,
		SourceRepo:    pr.SourceRepo,
		Ref:           pr.HeadRef,
		HeadSHA:       pr.HeadSHA,
		Mergeable:     pr.Mergeable,
		CommentsTotal: pr.CommentsTotal,
		Comments:      pr.Comments,
	}

	marker := newestMarker(pr.HeadStatuses, statusContext)

	switch {
	case marker != nil:
		state, ok := parseMarkerDescription(marker.Description)
		if !ok {
			return nil, fmt.Errorf("state marker has unparsable description: %q", marker.Description)
		}

		entry.State = state
		entry.StateChangedAt = marker.CreatedAt

	case pr.CommentsTotal > 0:
		entry.State = StateDiscussing

	default:
		entry.State = StateUnreviewed
	}

	entry.review = ClassifyVerdict(pr.Comments, reviewers, entry.StateChangedAt)
	entry.Priority = ParsePriority(pr.Comments, reviewers)
	entry.LogFields = entry.newLogFields()

	return &entry, nil
}

// newestMarker returns the newest commit status that has the marker context.
func newestMarker(statuses []*githubclt.CommitStatus, statusContext string) *githubclt.CommitStatus {
	var newest *githubclt.CommitStatus

	for _, status := range statuses {
		if status.Context != statusContext {
			continue
		}

		if newest == nil || status.CreatedAt.After(newest.CreatedAt) {
			newest = status
		}
	}

	return newest
}

// Select returns the entry that the run acts on, nil when the queue is
// empty.
func (q *Queue) Select() *QueueEntry {
	if len(q.Entries) == 0 {
		return nil
	}

	return q.Entries[0]
}

// SnapshotRecords returns the JSON records of all entries in queue order.
func (q *Queue) SnapshotRecords() []*SnapshotRecord {
	records := make([]*SnapshotRecord, 0, len(q.Entries))

	for _, entry := range q.Entries {
		records = append(records, entry.snapshotRecord())
	}

	return records
}

// sizesByState returns the number of entries per state.
func (q *Queue) sizesByState() map[State]int {
	result := make(map[State]int, len(q.Entries))

	for _, entry := range q.Entries {
		result[entry.State]++
	}

	return result
}
