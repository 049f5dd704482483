// Package syncer reconciles the local record store with the remote store.
//
// A Session runs at most one sync cycle at a time. Requests that arrive
// while a cycle is in flight collapse into a single follow-up cycle.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/daylog/internal/identity"
	"github.com/sandeepkv93/daylog/internal/model"
)

var (
	ErrPush = errors.New("syncer: push failed")
	ErrPull = errors.New("syncer: pull failed")
)

// LocalStore is the part of the local record store the engine needs.
type LocalStore interface {
	AddTask(ctx context.Context, in model.Task) (int64, error)
	UpdateTask(ctx context.Context, in model.Task) error
	ListTasks(ctx context.Context) ([]model.Task, error)
	TasksModifiedAfter(ctx context.Context, ts time.Time) ([]model.Task, error)

	AddSummary(ctx context.Context, in model.Summary) (int64, error)
	UpdateSummary(ctx context.Context, in model.Summary) error
	ListSummaries(ctx context.Context) ([]model.Summary, error)
	SummaryByStableID(ctx context.Context, uuid string) (model.Summary, error)
	SummariesModifiedAfter(ctx context.Context, ts time.Time) ([]model.Summary, error)

	ListRules(ctx context.Context) ([]model.RecurrenceRule, error)
	UpdateRule(ctx context.Context, in model.RecurrenceRule) error

	GetMeta(ctx context.Context, key string, dst any) (bool, error)
	SetMeta(ctx context.Context, key string, value any) error
}

// Remote is the remote store adapter.
type Remote interface {
	UpsertTasks(ctx context.Context, tasks []model.Task) error
	UpsertSummaries(ctx context.Context, summaries []model.Summary) error
	TasksModifiedAfter(ctx context.Context, ts time.Time) ([]model.Task, error)
	SummariesModifiedAfter(ctx context.Context, ts time.Time) ([]model.Summary, error)
}

// Connector builds the remote client. Any error disables sync for the
// session.
type Connector func(ctx context.Context) (Remote, error)

type InitResult struct {
	UserID string
	State  State
}

type Session struct {
	store    LocalStore
	connect  Connector
	log      *logrus.Entry
	now      func() time.Time
	onStatus func(string)
	onUpdate func([]string)

	trigger chan struct{}

	// initMu serializes Init so the remote is connected once.
	initMu sync.Mutex

	mu          sync.Mutex
	remote      Remote
	state       State
	initialized bool
	running     bool
	pending     bool
	latched     bool
	watermark   time.Time
	userID      string
	lastErr     error
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStatusHandler receives every status line change.
func WithStatusHandler(fn func(string)) Option {
	return func(s *Session) { s.onStatus = fn }
}

// WithUpdateHandler receives the dates touched by each completed pull.
func WithUpdateHandler(fn func([]string)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

func New(store LocalStore, connect Connector, opts ...Option) *Session {
	s := &Session{
		store:     store,
		connect:   connect,
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "sync"),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
		state:     StateIdle,
		watermark: model.Epoch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the watermark and user id, connects the remote and normalizes
// local records. A missing or unusable remote leaves the session Disabled
// without an error; only local store failures are returned.
func (s *Session) Init(ctx context.Context) (InitResult, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	if s.initialized {
		res := InitResult{UserID: s.userID, State: s.state}
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	watermark, err := s.loadWatermark(ctx)
	if err != nil {
		return InitResult{}, err
	}
	userID, err := s.loadUserID(ctx)
	if err != nil {
		return InitResult{}, err
	}

	var remote Remote
	if s.connect != nil {
		remote, err = s.connect(ctx)
	} else {
		err = errors.New("no connector")
	}
	if err != nil {
		s.log.WithError(err).Info("sync disabled")
		s.mu.Lock()
		s.state = StateDisabled
		s.watermark = watermark
		s.userID = userID
		s.initialized = true
		s.latched = false
		s.mu.Unlock()
		s.emitStatus(StatusText(StateDisabled, watermark))
		return InitResult{UserID: userID, State: StateDisabled}, nil
	}

	if err := s.normalize(ctx); err != nil {
		return InitResult{}, fmt.Errorf("normalize local records: %w", err)
	}

	s.mu.Lock()
	s.remote = remote
	s.state = StateIdle
	s.watermark = watermark
	s.userID = userID
	s.initialized = true
	flush := s.latched
	s.latched = false
	s.mu.Unlock()

	s.log.WithField("watermark", model.FormatTimestamp(watermark)).Info("sync ready")
	s.emitStatus(StatusText(StateIdle, watermark))
	if flush {
		s.Trigger()
	}
	return InitResult{UserID: userID, State: StateIdle}, nil
}

func (s *Session) loadWatermark(ctx context.Context) (time.Time, error) {
	var initialized bool
	if _, err := s.store.GetMeta(ctx, model.MetaSyncInitialized, &initialized); err != nil {
		return time.Time{}, fmt.Errorf("load %s: %w", model.MetaSyncInitialized, err)
	}
	if !initialized {
		// First run on this store: force a full pull.
		if err := s.store.SetMeta(ctx, model.MetaLastSyncAt, model.FormatTimestamp(model.Epoch)); err != nil {
			return time.Time{}, fmt.Errorf("reset watermark: %w", err)
		}
		if err := s.store.SetMeta(ctx, model.MetaSyncInitialized, true); err != nil {
			return time.Time{}, fmt.Errorf("mark sync initialized: %w", err)
		}
		return model.Epoch, nil
	}

	var raw string
	found, err := s.store.GetMeta(ctx, model.MetaLastSyncAt, &raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("load %s: %w", model.MetaLastSyncAt, err)
	}
	if !found || raw == "" {
		return model.Epoch, nil
	}
	ts, err := model.ParseTimestamp(raw)
	if err != nil {
		s.log.WithError(err).Warn("unreadable watermark, starting from epoch")
		return model.Epoch, nil
	}
	return ts, nil
}

func (s *Session) loadUserID(ctx context.Context) (string, error) {
	var id string
	if _, err := s.store.GetMeta(ctx, model.MetaUserID, &id); err != nil {
		return "", fmt.Errorf("load %s: %w", model.MetaUserID, err)
	}
	if id != "" {
		return id, nil
	}
	id = identity.NewStableID()
	if err := s.store.SetMeta(ctx, model.MetaUserID, id); err != nil {
		return "", fmt.Errorf("store %s: %w", model.MetaUserID, err)
	}
	return id, nil
}

// SyncNow runs a cycle, or queues one follow-up if a cycle is in flight.
// It is a no-op before Init and once the session is Disabled. Remote
// failures move the session to Error and are reported through LastError;
// the returned error is reserved for local store failures.
func (s *Session) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.initialized || s.state == StateDisabled {
		s.mu.Unlock()
		return nil
	}
	if s.running {
		s.pending = true
		s.mu.Unlock()
		s.log.Debug("sync in flight, follow-up queued")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// A started cycle always completes, and a queued follow-up runs even
	// when it failed. The first error is reported.
	ctx = context.WithoutCancel(ctx)
	var firstErr error
	for {
		if err := s.runCycle(ctx); err != nil && firstErr == nil {
			firstErr = err
		}

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return firstErr
		}
		s.pending = false
		s.mu.Unlock()
	}
}

// NotifyChange records that local data changed. Before Init the request is
// latched and replayed once the session is ready.
func (s *Session) NotifyChange() {
	s.mu.Lock()
	if !s.initialized {
		s.latched = true
		s.mu.Unlock()
		return
	}
	disabled := s.state == StateDisabled
	s.mu.Unlock()
	if !disabled {
		s.Trigger()
	}
}

// Trigger asks Run for a cycle. At most one request is buffered.
func (s *Session) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run serves Trigger requests until ctx is done.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			if err := s.SyncNow(ctx); err != nil {
				s.log.WithError(err).Error("sync cycle aborted by local store")
			}
		}
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Watermark() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// LastError is the failure of the most recent cycle, nil after a success.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Status is the current status line.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusText(s.state, s.watermark)
}

func (s *Session) emitStatus(text string) {
	if s.onStatus != nil {
		s.onStatus(text)
	}
}
