package mergequeue

import (
	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/logfields"
)

var (
	logEventCommentPosted   = logfields.Event("github_comment_posted")
	logEventStateChanged    = logfields.Event("queue_state_changed")
	logEventTestRefReset    = logfields.Event("git_test_ref_reset")
	logEventCandidateStaged = logfields.Event("git_candidate_staged")
	logEventLanded          = logfields.Event("git_master_fast_forwarded")
	logEventCloseFailed     = logfields.Event("github_closing_pr_failed")
	logEventActionFailed    = logfields.Event("action_failed")

	logEventRemovingLabelFailed = logfields.Event("github_removing_label_failed")
	logEventAddingLabelFailed   = logfields.Event("github_adding_label_failed")

	logEventRunNoop     = logfields.Event("run_noop")
	logEventRunFinished = logfields.Event("run_finished")
)

func logFieldReason(reason string) zap.Field {
	return zap.String("reason", reason)
}
