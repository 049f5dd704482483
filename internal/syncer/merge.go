package syncer

import (
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

// MergeResult is the outcome of reconciling a local task with its remote
// counterpart.
type MergeResult struct {
	Task model.Task
	// RemoteWon reports that the remote side carried the newer modification.
	RemoteWon bool
	// CompletionForced reports that the merge set completion against the
	// newer side and bumped the modification time.
	CompletionForced bool
	// DeletionKept reports that the merge kept a deletion the newer side
	// did not carry and bumped the modification time.
	DeletionKept bool
}

// MergeGenerated reports whether the result contains a write neither side
// made.
func (r MergeResult) MergeGenerated() bool {
	return r.CompletionForced || r.DeletionKept
}

// MergeTask reconciles local with remote. The side modified last wins every
// synchronized field, ties keep local. Completion and deletion never revert:
// when the winner lacks one the other side has, the merged record takes it and
// its modification time moves past both inputs. The local key, the local
// stable id when present and local-only fields are preserved.
func MergeTask(local, remote model.Task, now time.Time) MergeResult {
	winner := local
	res := MergeResult{}
	if model.Millis(remote.UpdatedAt) > model.Millis(local.UpdatedAt) {
		winner = remote
		res.RemoteWon = true
	}

	merged := local
	merged.Date = winner.Date
	merged.Text = winner.Text
	merged.Completed = winner.Completed
	merged.CreatedAt = winner.CreatedAt
	merged.UpdatedAt = winner.UpdatedAt
	merged.DeletedAt = winner.DeletedAt
	if merged.UUID == "" {
		merged.UUID = remote.UUID
	}

	if (local.Completed || remote.Completed) && !winner.Completed {
		merged.Completed = true
		res.CompletionForced = true
	}
	if winner.DeletedAt == nil {
		if local.DeletedAt != nil {
			merged.DeletedAt = local.DeletedAt
			res.DeletionKept = true
		} else if remote.DeletedAt != nil {
			merged.DeletedAt = remote.DeletedAt
			res.DeletionKept = true
		}
	}
	if res.MergeGenerated() {
		merged.UpdatedAt = bump(now, local.UpdatedAt, remote.UpdatedAt)
	}
	res.Task = merged
	return res
}

// bump returns now, or one millisecond past the newest input when a skewed
// clock put an input ahead of now.
func bump(now time.Time, inputs ...time.Time) time.Time {
	out := model.Stamp(now)
	for _, in := range inputs {
		if model.Millis(in) >= model.Millis(out) {
			out = model.Stamp(in).Add(time.Millisecond)
		}
	}
	return out
}

// ShouldUpdate reports whether merged differs from local in any synchronized
// field and so needs writing.
func ShouldUpdate(local, merged model.Task) bool {
	return !local.SyncEqual(merged)
}

// MergeSummary applies a pulled summary row. Only a strictly newer remote row
// replaces the local one; the local key and owner are kept.
func MergeSummary(local, remote model.Summary) (model.Summary, bool) {
	if model.Millis(remote.UpdatedAt) <= model.Millis(local.UpdatedAt) {
		return local, false
	}
	merged := remote
	merged.ID = local.ID
	merged.UserID = local.UserID
	return merged, true
}
