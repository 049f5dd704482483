package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/daylog/internal/identity"
	"github.com/sandeepkv93/daylog/internal/model"
	"github.com/sandeepkv93/daylog/internal/storage"
)

// runCycle pushes local changes, pulls remote changes and advances the
// watermark. The new watermark is the cycle start, so writes made while the
// cycle runs stay eligible for the next push.
func (s *Session) runCycle(ctx context.Context) error {
	started := model.Stamp(s.now())

	s.mu.Lock()
	s.state = StateSyncing
	watermark := s.watermark
	remote := s.remote
	s.mu.Unlock()
	s.emitStatus(StatusText(StateSyncing, watermark))

	log := s.log.WithField("watermark", model.FormatTimestamp(watermark))
	if err := s.push(ctx, remote, watermark); err != nil {
		return s.fail(log, err)
	}
	dates, err := s.pull(ctx, remote, watermark)
	if err != nil {
		return s.fail(log, err)
	}

	next := watermark
	if started.After(next) {
		next = started
	}
	if err := s.store.SetMeta(ctx, model.MetaLastSyncAt, model.FormatTimestamp(next)); err != nil {
		return s.fail(log, fmt.Errorf("persist watermark: %w", err))
	}

	s.mu.Lock()
	s.watermark = next
	s.state = StateIdle
	s.lastErr = nil
	s.mu.Unlock()

	log.WithFields(logrus.Fields{
		"next":     model.FormatTimestamp(next),
		"dates":    len(dates),
		"duration": s.now().Sub(started).String(),
	}).Info("sync complete")
	s.emitStatus(StatusText(StateIdle, next))
	if len(dates) > 0 && s.onUpdate != nil {
		s.onUpdate(dates)
	}
	return nil
}

// fail moves the session to Error. Remote failures are absorbed; local
// store failures are returned to the caller.
func (s *Session) fail(log *logrus.Entry, err error) error {
	s.mu.Lock()
	s.state = StateError
	s.lastErr = err
	s.mu.Unlock()
	s.emitStatus(StatusText(StateError, time.Time{}))

	if errors.Is(err, ErrPush) || errors.Is(err, ErrPull) {
		log.WithError(err).Warn("sync failed, watermark kept")
		return nil
	}
	log.WithError(err).Error("sync failed on local store")
	return err
}

func (s *Session) push(ctx context.Context, remote Remote, watermark time.Time) error {
	tasks, err := s.store.TasksModifiedAfter(ctx, watermark)
	if err != nil {
		return fmt.Errorf("load modified tasks: %w", err)
	}
	if len(tasks) > 0 {
		if err := remote.UpsertTasks(ctx, tasks); err != nil {
			return fmt.Errorf("%w: tasks: %w", ErrPush, err)
		}
	}

	summaries, err := s.store.SummariesModifiedAfter(ctx, watermark)
	if err != nil {
		return fmt.Errorf("load modified summaries: %w", err)
	}
	if len(summaries) > 0 {
		if err := remote.UpsertSummaries(ctx, summaries); err != nil {
			return fmt.Errorf("%w: summaries: %w", ErrPush, err)
		}
	}

	s.log.WithFields(logrus.Fields{"tasks": len(tasks), "summaries": len(summaries)}).Debug("pushed")
	return nil
}

// pull fetches both remote collections before writing anything locally and
// returns the sorted set of dates it touched.
func (s *Session) pull(ctx context.Context, remote Remote, watermark time.Time) ([]string, error) {
	remoteTasks, err := remote.TasksModifiedAfter(ctx, watermark)
	if err != nil {
		return nil, fmt.Errorf("%w: tasks: %w", ErrPull, err)
	}
	remoteSummaries, err := remote.SummariesModifiedAfter(ctx, watermark)
	if err != nil {
		return nil, fmt.Errorf("%w: summaries: %w", ErrPull, err)
	}

	affected := make(map[string]struct{})
	if err := s.applyTasks(ctx, remoteTasks, affected); err != nil {
		return nil, err
	}
	if err := s.applySummaries(ctx, remoteSummaries, affected); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"tasks": len(remoteTasks), "summaries": len(remoteSummaries)}).Debug("pulled")
	dates := make([]string, 0, len(affected))
	for d := range affected {
		if d != "" {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *Session) applyTasks(ctx context.Context, remoteTasks []model.Task, affected map[string]struct{}) error {
	if len(remoteTasks) == 0 {
		return nil
	}
	locals, err := s.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load local tasks: %w", err)
	}
	idx := identity.NewIndex(locals)
	userID := s.UserID()

	for _, incoming := range remoteTasks {
		local, ok := idx.Resolve(incoming)
		if !ok {
			incoming.ID = 0
			incoming.UserID = userID
			id, err := s.store.AddTask(ctx, incoming)
			if err != nil {
				return fmt.Errorf("insert pulled task %s: %w", incoming.UUID, err)
			}
			incoming.ID = id
			idx.Put(incoming)
			affected[incoming.Date] = struct{}{}
			continue
		}

		res := MergeTask(local, incoming, s.now())
		if res.MergeGenerated() {
			s.log.WithFields(logrus.Fields{
				"event":             "WriteConflictResolved",
				"uuid":              res.Task.UUID,
				"remote_won":        res.RemoteWon,
				"completion_forced": res.CompletionForced,
				"deletion_kept":     res.DeletionKept,
			}).Info("merge overrode newer side")
		}
		if !ShouldUpdate(local, res.Task) {
			continue
		}
		if err := s.store.UpdateTask(ctx, res.Task); err != nil {
			return fmt.Errorf("update merged task %d: %w", res.Task.ID, err)
		}
		idx.Put(res.Task)
		affected[local.Date] = struct{}{}
		affected[res.Task.Date] = struct{}{}
	}
	return nil
}

func (s *Session) applySummaries(ctx context.Context, remoteSummaries []model.Summary, affected map[string]struct{}) error {
	userID := s.UserID()
	for _, incoming := range remoteSummaries {
		if incoming.UUID == "" {
			continue
		}
		local, err := s.store.SummaryByStableID(ctx, incoming.UUID)
		if errors.Is(err, storage.ErrNotFound) {
			incoming.ID = 0
			incoming.UserID = userID
			if _, err := s.store.AddSummary(ctx, incoming); err != nil {
				return fmt.Errorf("insert pulled summary %s: %w", incoming.UUID, err)
			}
			affected[incoming.Date] = struct{}{}
			continue
		}
		if err != nil {
			return fmt.Errorf("load summary %s: %w", incoming.UUID, err)
		}

		merged, changed := MergeSummary(local, incoming)
		if !changed {
			continue
		}
		if err := s.store.UpdateSummary(ctx, merged); err != nil {
			return fmt.Errorf("update summary %d: %w", merged.ID, err)
		}
		affected[local.Date] = struct{}{}
		affected[merged.Date] = struct{}{}
	}
	return nil
}
