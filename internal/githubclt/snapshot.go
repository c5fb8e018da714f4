package githubclt

import (
	"context"
	"time"

	"github.com/shurcooL/githubv4"
)

// MergeableState is GitHub's answer whether a pull request can be merged
// cleanly into its base branch.
type MergeableState string

const (
	MergeableStateMergeable   = MergeableState(githubv4.MergeableStateMergeable)
	MergeableStateConflicting = MergeableState(githubv4.MergeableStateConflicting)
	// MergeableStateUnknown means GitHub is still computing mergeability,
	// asking again later resolves it.
	MergeableStateUnknown = MergeableState(githubv4.MergeableStateUnknown)
)

// Comment is a pull request conversation comment.
type Comment struct {
	CreatedAt time.Time
	// Author is the login of the comment author, it is empty when the
	// account was deleted.
	Author string
	Body   string
}

// CommitStatus is a status that was reported for a commit.
type CommitStatus struct {
	Context     string
	State       githubv4.StatusState
	Description string
	CreatedAt   time.Time
}

// PullRequestSnapshot is the queue-relevant information of one open pull
// request, as of a single point in time.
type PullRequestSnapshot struct {
	Number  int
	Title   string
	Body    string
	Author  string
	HeadRef string
	HeadSHA string
	// SourceOwner and SourceRepo identify the repository that HeadRef
	// lives in. Both are empty when the source repository was deleted.
	SourceOwner string
	SourceRepo  string
	Mergeable   MergeableState
	// CommentsTotal is the full conversation length, Comments contains
	// only the snapshotCommentWindow most recent comments, ordered oldest
	// first.
	CommentsTotal int
	Comments      []*Comment
	// HeadStatuses are the commit statuses reported for HeadSHA.
	HeadStatuses []*CommitStatus
}

// snapshotCommentWindow bounds how many of the most recent comments per pull
// request are fetched. Verdict and priority commands older than this window
// are not seen.
const snapshotCommentWindow = 100

const snapshotPRPageSize = 50

// QueueSnapshot fetches all open pull requests of a repository together with
// their recent comments, mergeability and head commit statuses.
// The result is ordered by ascending pull request number.
func (clt *Client) QueueSnapshot(ctx context.Context, owner, repo string) ([]*PullRequestSnapshot, error) {
	type graphQLQueueSnapshot struct {
		Repository struct {
			PullRequests struct {
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage bool
				}
				Nodes []struct {
					Number      githubv4.Int
					Title       githubv4.String
					Body        githubv4.String
					HeadRefName githubv4.String
					HeadRefOid  githubv4.GitObjectID
					Mergeable   githubv4.MergeableState
					Author      struct {
						Login githubv4.String
					}
					HeadRepository struct {
						Name  githubv4.String
						Owner struct {
							Login githubv4.String
						}
					}
					Comments struct {
						TotalCount githubv4.Int
						Nodes      []struct {
							Author struct {
								Login githubv4.String
							}
							Body      githubv4.String
							CreatedAt githubv4.DateTime
						}
					} `graphql:"comments(last: $commentsLast)"`
					Commits struct {
						Nodes []struct {
							Commit struct {
								Status struct {
									Contexts []struct {
										Context     githubv4.String
										State       githubv4.StatusState
										Description githubv4.String
										CreatedAt   githubv4.DateTime
									}
								}
							}
						}
					} `graphql:"commits(last: 1)"`
				}
			} `graphql:"pullRequests(states: OPEN, first: $prsFirst, after: $prsAfter, orderBy: {field: CREATED_AT, direction: ASC})"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	vars := map[string]any{
		"owner":        githubv4.String(owner),
		"name":         githubv4.String(repo),
		"prsFirst":     githubv4.Int(snapshotPRPageSize),
		"prsAfter":     (*githubv4.String)(nil),
		"commentsLast": githubv4.Int(snapshotCommentWindow),
	}

	var result []*PullRequestSnapshot

	for {
		var q graphQLQueueSnapshot

		err := clt.graphQLClt.Query(ctx, &q, vars)
		if err != nil {
			return nil, clt.wrapGraphQLRetryableErrors(err)
		}

		for i := range q.Repository.PullRequests.Nodes {
			node := &q.Repository.PullRequests.Nodes[i]

			pr := PullRequestSnapshot{
				Number:        int(node.Number),
				Title:         string(node.Title),
				Body:          string(node.Body),
				Author:        string(node.Author.Login),
				HeadRef:       string(node.HeadRefName),
				HeadSHA:       string(node.HeadRefOid),
				SourceOwner:   string(node.HeadRepository.Owner.Login),
				SourceRepo:    string(node.HeadRepository.Name),
				Mergeable:     MergeableState(node.Mergeable),
				CommentsTotal: int(node.Comments.TotalCount),
			}

			for _, comment := range node.Comments.Nodes {
				pr.Comments = append(pr.Comments, &Comment{
					CreatedAt: comment.CreatedAt.Time,
					Author:    string(comment.Author.Login),
					Body:      string(comment.Body),
				})
			}

			for _, commitNode := range node.Commits.Nodes {
				for _, status := range commitNode.Commit.Status.Contexts {
					pr.HeadStatuses = append(pr.HeadStatuses, &CommitStatus{
						Context:     string(status.Context),
						State:       status.State,
						Description: string(status.Description),
						CreatedAt:   status.CreatedAt.Time,
					})
				}
			}

			result = append(result, &pr)
		}

		pageInfo := q.Repository.PullRequests.PageInfo
		if !pageInfo.HasNextPage {
			return result, nil
		}

		vars["prsAfter"] = pageInfo.EndCursor
	}
}
