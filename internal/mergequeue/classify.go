package mergequeue

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/simplesurance/landlord/internal/githubclt"
)

// Verdict is a reviewer decision parsed from a comment.
type Verdict string

const (
	// VerdictNone means the comment history contains no verdict.
	VerdictNone       Verdict = "none"
	VerdictApprove    Verdict = "approve"
	VerdictDisapprove Verdict = "disapprove"
)

// Review is the classified verdict of a comment history.
type Review struct {
	Verdict Verdict
	// Reviewer is the login that issued the verdict, empty for
	// VerdictNone.
	Reviewer  string
	CreatedAt time.Time
}

// ClassifyVerdict returns the newest verdict that an authorized reviewer
// posted strictly after cutoff.
//
// A comment carries a verdict when its body starts with the token r+
// (approve) or r- (disapprove). Comments of users that are not in reviewers
// never carry a verdict, whatever their content. comments must be ordered
// oldest first.
func ClassifyVerdict(comments []*githubclt.Comment, reviewers map[string]struct{}, cutoff time.Time) *Review {
	for i := len(comments) - 1; i >= 0; i-- {
		comment := comments[i]

		if !comment.CreatedAt.After(cutoff) {
			break
		}

		if _, exist := reviewers[comment.Author]; !exist {
			continue
		}

		switch {
		case strings.HasPrefix(comment.Body, "r+"):
			return &Review{
				Verdict:   VerdictApprove,
				Reviewer:  comment.Author,
				CreatedAt: comment.CreatedAt,
			}

		case strings.HasPrefix(comment.Body, "r-"):
			return &Review{
				Verdict:   VerdictDisapprove,
				Reviewer:  comment.Author,
				CreatedAt: comment.CreatedAt,
			}
		}
	}

	return &Review{Verdict: VerdictNone}
}

var priorityRe = regexp.MustCompile(`\bp=(-?\d+)\b`)

// ParsePriority returns the highest priority that a reviewer assigned via a
// p=<n> comment. Entries without a priority comment have priority 0.
func ParsePriority(comments []*githubclt.Comment, reviewers map[string]struct{}) int {
	prio := 0

	for _, comment := range comments {
		if _, exist := reviewers[comment.Author]; !exist {
			continue
		}

		match := priorityRe.FindStringSubmatch(comment.Body)
		if match == nil {
			continue
		}

		val, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		if val > prio {
			prio = val
		}
	}

	return prio
}

// approverLogins returns the reviewers that approved the entry, in the order
// of their first approval. The whole comment window is scanned, approvals
// older than the newest state marker count too.
func approverLogins(comments []*githubclt.Comment, reviewers map[string]struct{}) []string {
	var logins []string

	seen := map[string]struct{}{}

	for _, comment := range comments {
		if _, exist := reviewers[comment.Author]; !exist {
			continue
		}

		if !strings.HasPrefix(comment.Body, "r+") {
			continue
		}

		if _, exist := seen[comment.Author]; exist {
			continue
		}

		seen[comment.Author] = struct{}{}
		logins = append(logins, comment.Author)
	}

	return logins
}
