package mergequeue

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/githubclt"
	"github.com/simplesurance/landlord/internal/logfields"
)

// QueueEntry is one open pull request in the merge queue.
type QueueEntry struct {
	Number int
	Title  string
	Body   string

	// SourceOwner, SourceRepo and Ref identify the branch that the pull
	// request wants to merge.
	SourceOwner string
	SourceRepo  string
	Ref         string
	HeadSHA     string

	State State
	// StateChangedAt is the creation time of the newest state marker. It
	// is the zero timestamp when State was derived without a marker.
	StateChangedAt time.Time

	Priority  int
	Mergeable githubclt.MergeableState

	// CommentsTotal is the comment count reported by the hosting service,
	// it can exceed len(Comments) when the comment window was truncated.
	CommentsTotal int
	Comments      []*githubclt.Comment

	LogFields []zap.Field

	review *Review
}

// Review returns the verdict classified from the entry's comment history.
func (e *QueueEntry) Review() *Review {
	return e.review
}

// shortDesc identifies the merged branch in comments, in the
// <owner>/<repo>/<ref> = <sha> notation of the pull request page.
func (e *QueueEntry) shortDesc() string {
	return fmt.Sprintf("%s/%s/%s = %s", e.SourceOwner, e.SourceRepo, e.Ref, shortSHA(e.HeadSHA))
}

func (e *QueueEntry) newLogFields() []zap.Field {
	return []zap.Field{
		logfields.PullRequest(e.Number),
		logfields.Commit(e.HeadSHA),
		logfields.State(string(e.State)),
		logfields.Priority(e.Priority),
	}
}

// shortSHA abbreviates sha to the length that the GitHub UI shows.
func shortSHA(sha string) string {
	if len(sha) <= 8 {
		return sha
	}

	return sha[:8]
}
