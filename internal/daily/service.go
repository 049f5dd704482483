// Package daily implements the day-to-day operations on tasks, summaries and
// recurrence rules. Every mutation stamps the record and reports the change.
package daily

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/daylog/internal/identity"
	"github.com/sandeepkv93/daylog/internal/model"
	"github.com/sandeepkv93/daylog/internal/storage"
)

var (
	ErrEmptyText    = errors.New("daily: text is required")
	ErrInvalidTheme = errors.New("daily: invalid theme")
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ChangeNotifier is told about every local write.
type ChangeNotifier interface {
	NotifyChange()
}

type NotifierFunc func()

func (f NotifierFunc) NotifyChange() { f() }

type Service struct {
	repo   storage.Repository
	notify ChangeNotifier
	now    func() time.Time
	loc    *time.Location
	userID func() string
	log    *logrus.Entry
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithNotifier(n ChangeNotifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithUserID supplies the owner stamped on new records.
func WithUserID(fn func() string) Option {
	return func(s *Service) { s.userID = fn }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(repo storage.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		loc:    time.Local,
		userID: func() string { return "" },
		log:    logrus.NewEntry(logrus.StandardLogger()).WithField("component", "daily"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current local date.
func (s *Service) Today() string {
	return model.FormatDate(s.now().In(s.loc))
}

func (s *Service) stamp() time.Time {
	return model.Stamp(s.now())
}

func (s *Service) changed() {
	if s.notify != nil {
		s.notify.NotifyChange()
	}
}

func (s *Service) AddTask(ctx context.Context, date, text string, dueMinutes int) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	now := s.stamp()
	task := model.Task{
		UUID:       identity.NewStableID(),
		UserID:     s.userID(),
		Date:       date,
		Text:       text,
		DueMinutes: dueMinutes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	id, err := s.repo.AddTask(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("add task: %w", err)
	}
	task.ID = id
	s.changed()
	return task, nil
}

func (s *Service) ToggleTask(ctx context.Context, id int64) (model.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	task.Completed = !task.Completed
	task.UpdatedAt = s.stamp()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return model.Task{}, fmt.Errorf("toggle task %d: %w", id, err)
	}
	s.changed()
	return task, nil
}

// EditTask replaces the text. Unchanged text is not a write.
func (s *Service) EditTask(ctx context.Context, id int64, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.Text == text {
		return task, nil
	}
	task.Text = text
	task.UpdatedAt = s.stamp()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return model.Task{}, fmt.Errorf("edit task %d: %w", id, err)
	}
	s.changed()
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.SoftDeleteTask(ctx, id, s.stamp()); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.changed()
	return nil
}

// TasksForDate lists the visible tasks of date: incomplete first, then the
// most recently modified.
func (s *Service) TasksForDate(ctx context.Context, date string) ([]model.Task, error) {
	all, err := s.repo.TasksByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if !t.Deleted() {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return !out[i].Completed
		}
		return model.Millis(lastTouched(out[i])) > model.Millis(lastTouched(out[j]))
	})
	return out, nil
}

func lastTouched(t model.Task) time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// CarryOver copies the incomplete live tasks of from onto to. A task is
// carried at most once per target date.
func (s *Service) CarryOver(ctx context.Context, from, to string) (int, error) {
	source, err := s.repo.TasksByDate(ctx, from)
	if err != nil {
		return 0, err
	}
	target, err := s.repo.TasksByDate(ctx, to)
	if err != nil {
		return 0, err
	}
	carried := make(map[string]struct{}, len(target))
	for _, t := range target {
		if t.CarriedFrom != "" {
			carried[t.CarriedFrom] = struct{}{}
		}
	}

	now := s.stamp()
	count := 0
	for _, t := range source {
		if t.Deleted() || t.Completed {
			continue
		}
		if t.UUID == "" {
			t.UUID = identity.NewStableID()
			t.UpdatedAt = now
			if err := s.repo.UpdateTask(ctx, t); err != nil {
				return count, fmt.Errorf("assign stable id to task %d: %w", t.ID, err)
			}
		}
		if _, ok := carried[t.UUID]; ok {
			continue
		}
		copyOf := model.Task{
			UUID:        identity.NewStableID(),
			UserID:      s.userID(),
			Date:        to,
			Text:        t.Text,
			DueMinutes:  t.DueMinutes,
			CarriedFrom: t.UUID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.repo.AddTask(ctx, copyOf); err != nil {
			return count, fmt.Errorf("carry task %d: %w", t.ID, err)
		}
		carried[t.UUID] = struct{}{}
		count++
	}
	if count > 0 {
		s.log.WithFields(logrus.Fields{"from": from, "to": to, "tasks": count}).Info("carried over")
		s.changed()
	}
	return count, nil
}

// EnsureRecurrence creates the instances due on date for every live rule
// that matches it. Past dates are left alone and each rule yields at most
// one instance per date, even if that instance was later deleted.
func (s *Service) EnsureRecurrence(ctx context.Context, date string) (int, error) {
	if _, err := model.ParseDate(date, s.loc); err != nil {
		return 0, err
	}
	if date < s.Today() {
		return 0, nil
	}
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}
	tasks, err := s.repo.TasksByDate(ctx, date)
	if err != nil {
		return 0, err
	}
	existing := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if t.RuleID != 0 {
			existing[t.RuleID] = struct{}{}
		}
	}

	now := s.stamp()
	count := 0
	for _, r := range rules {
		if r.Deleted() || !r.Matches(date) {
			continue
		}
		if _, ok := existing[r.ID]; ok {
			continue
		}
		inst := model.Task{
			UUID:       identity.NewStableID(),
			UserID:     s.userID(),
			Date:       date,
			Text:       r.Text,
			DueMinutes: r.DueMinutes,
			RuleID:     r.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := s.repo.AddTask(ctx, inst); err != nil {
			return count, fmt.Errorf("instantiate rule %d: %w", r.ID, err)
		}
		existing[r.ID] = struct{}{}
		count++
	}
	if count > 0 {
		s.log.WithFields(logrus.Fields{"date": date, "tasks": count}).Debug("recurring tasks created")
		s.changed()
	}
	return count, nil
}

// OpenDay prepares date for display. Moving from yesterday to today also
// carries yesterday's unfinished work forward.
func (s *Service) OpenDay(ctx context.Context, previous, date string) error {
	today := s.Today()
	if previous != "" && date == today {
		yesterday, err := model.AddDays(today, -1)
		if err != nil {
			return err
		}
		if previous == yesterday {
			if _, err := s.CarryOver(ctx, previous, today); err != nil {
				return err
			}
		}
	}
	_, err := s.EnsureRecurrence(ctx, date)
	return err
}

// AddRule stores a new rule. A rule without a start date starts today.
func (s *Service) AddRule(ctx context.Context, rule model.RecurrenceRule) (model.RecurrenceRule, error) {
	rule.Text = strings.TrimSpace(rule.Text)
	if rule.StartDate == "" {
		rule.StartDate = s.Today()
	}
	if err := rule.Validate(); err != nil {
		return model.RecurrenceRule{}, err
	}
	now := s.stamp()
	rule.ID = 0
	rule.UUID = identity.NewStableID()
	rule.UserID = s.userID()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.DeletedAt = nil
	id, err := s.repo.AddRule(ctx, rule)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("add rule: %w", err)
	}
	rule.ID = id
	s.changed()
	return rule, nil
}

// ListRules returns the live rules in creation order.
func (s *Service) ListRules(ctx context.Context) ([]model.RecurrenceRule, error) {
	all, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.RecurrenceRule, 0, len(all))
	for _, r := range all {
		if !r.Deleted() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteRule soft-deletes the rule and its instances dated after today.
// Past and current instances stay.
func (s *Service) DeleteRule(ctx context.Context, id int64) (int, error) {
	now := s.stamp()
	if err := s.repo.SoftDeleteRule(ctx, id, now); err != nil {
		return 0, fmt.Errorf("delete rule %d: %w", id, err)
	}
	related, err := s.repo.TasksByRule(ctx, id)
	if err != nil {
		return 0, err
	}
	today := s.Today()
	removed := 0
	for _, t := range related {
		if t.Deleted() || t.Date <= today {
			continue
		}
		if err := s.repo.SoftDeleteTask(ctx, t.ID, now); err != nil {
			return removed, fmt.Errorf("delete instance %d: %w", t.ID, err)
		}
		removed++
	}
	s.changed()
	return removed, nil
}

// LatestSummary is the most recently modified live summary of date.
func (s *Service) LatestSummary(ctx context.Context, date string) (model.Summary, bool, error) {
	all, err := s.repo.SummariesByDate(ctx, date)
	if err != nil {
		return model.Summary{}, false, err
	}
	var latest model.Summary
	found := false
	for _, item := range all {
		if item.Deleted() {
			continue
		}
		if !found || model.Millis(item.UpdatedAt) > model.Millis(latest.UpdatedAt) ||
			(model.Millis(item.UpdatedAt) == model.Millis(latest.UpdatedAt) && item.ID > latest.ID) {
			latest = item
			found = true
		}
	}
	return latest, found, nil
}

// SaveSummary appends a new summary row for date. Empty text with a zero
// rating clears the date instead: every live row is soft-deleted. Saving the
// current content again is not a write.
func (s *Service) SaveSummary(ctx context.Context, date, text string, rating float64) (model.Summary, error) {
	text = strings.TrimSpace(text)
	if err := model.ValidateRating(rating); err != nil {
		return model.Summary{}, err
	}
	now := s.stamp()

	if (model.Summary{Text: text, Rating: rating}).Empty() {
		all, err := s.repo.SummariesByDate(ctx, date)
		if err != nil {
			return model.Summary{}, err
		}
		cleared := 0
		for _, item := range all {
			if item.Deleted() {
				continue
			}
			item.DeletedAt = &now
			item.UpdatedAt = now
			if err := s.repo.UpdateSummary(ctx, item); err != nil {
				return model.Summary{}, fmt.Errorf("clear summary %d: %w", item.ID, err)
			}
			cleared++
		}
		if cleared > 0 {
			s.changed()
		}
		return model.Summary{Date: date}, nil
	}

	latest, found, err := s.LatestSummary(ctx, date)
	if err != nil {
		return model.Summary{}, err
	}
	if found && latest.Text == text && latest.Rating == rating {
		return latest, nil
	}
	item := model.Summary{
		UUID:      identity.NewStableID(),
		UserID:    s.userID(),
		Date:      date,
		Text:      text,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return model.Summary{}, err
	}
	id, err := s.repo.AddSummary(ctx, item)
	if err != nil {
		return model.Summary{}, fmt.Errorf("save summary: %w", err)
	}
	item.ID = id
	s.changed()
	return item, nil
}

// MigrateMissingDates moves tasks without a date onto today.
func (s *Service) MigrateMissingDates(ctx context.Context) (int, error) {
	all, err := s.repo.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	now := s.stamp()
	today := s.Today()
	fixed := 0
	for _, t := range all {
		if t.Date != "" {
			continue
		}
		t.Date = today
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = lastTouched(t)
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = now
		}
		if err := s.repo.UpdateTask(ctx, t); err != nil {
			return fixed, fmt.Errorf("migrate task %d: %w", t.ID, err)
		}
		fixed++
	}
	if fixed > 0 {
		s.log.WithField("tasks", fixed).Info("assigned missing dates")
		s.changed()
	}
	return fixed, nil
}

// Theme returns the stored theme, light when unset.
func (s *Service) Theme(ctx context.Context) (string, error) {
	var theme string
	found, err := s.repo.GetMeta(ctx, model.MetaTheme, &theme)
	if err != nil {
		return "", err
	}
	if !found || theme == "" {
		return ThemeLight, nil
	}
	return theme, nil
}

func (s *Service) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return s.repo.SetMeta(ctx, model.MetaTheme, theme)
}
