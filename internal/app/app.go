// Package app assembles the daylog runtime from configuration: local store,
// remote connector, sync session, daily service, scheduler and change
// signal.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/sandeepkv93/daylog/internal/config"
	"github.com/sandeepkv93/daylog/internal/daily"
	"github.com/sandeepkv93/daylog/internal/remote"
	"github.com/sandeepkv93/daylog/internal/scheduler"
	"github.com/sandeepkv93/daylog/internal/signal"
	"github.com/sandeepkv93/daylog/internal/storage"
	"github.com/sandeepkv93/daylog/internal/syncer"
)

const eventBuffer = 32

// Mode selects how local writes are announced.
type Mode int

const (
	// ModeInteractive keeps a session running and syncs in the background.
	ModeInteractive Mode = iota
	// ModeOneShot runs a single command and signals any running session.
	ModeOneShot
)

type Runtime struct {
	Config  *config.Config
	Log     *logrus.Logger
	Store   *storage.SQLiteRepository
	Session *syncer.Session
	Daily   *daily.Service
	Engine  *scheduler.Engine

	mode      Mode
	logCloser io.Closer
	statuses  chan string
	updates   chan []string

	mu     sync.Mutex
	remote *remote.PostgresStore
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open builds the runtime and initializes the sync session. A store that
// cannot be opened is fatal; a missing or unreachable remote only disables
// sync.
func Open(ctx context.Context, cfg *config.Config, mode Mode, logOut io.Writer) (*Runtime, error) {
	logger, closer, err := NewLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		Config:    cfg,
		Log:       logger,
		Engine:    scheduler.NewEngine(8),
		mode:      mode,
		logCloser: closer,
		statuses:  make(chan string, eventBuffer),
		updates:   make(chan []string, eventBuffer),
	}

	store, err := storage.OpenSQLite(ctx, cfg.Store.Path)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	r.Store = store

	r.Session = syncer.New(store, r.connect,
		syncer.WithLogger(r.component("sync")),
		syncer.WithStatusHandler(r.publishStatus),
		syncer.WithUpdateHandler(r.publishUpdate),
	)

	var notifier daily.ChangeNotifier = r.Session
	if mode == ModeOneShot {
		notifier = daily.NotifierFunc(r.touchSignal)
	}
	r.Daily = daily.NewService(store,
		daily.WithNotifier(notifier),
		daily.WithUserID(r.Session.UserID),
		daily.WithLogger(r.component("daily")),
	)

	if _, err := r.Session.Init(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("init sync: %w", err), r.Close())
	}
	if _, err := r.Daily.MigrateMissingDates(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrate task dates: %w", err), r.Close())
	}
	return r, nil
}

func (r *Runtime) component(name string) *logrus.Entry {
	return r.Log.WithField("component", name)
}

// connect is the session connector. The remote store is kept for Close.
func (r *Runtime) connect(ctx context.Context) (syncer.Remote, error) {
	store, err := remote.Open(ctx, r.Config.Remote, remote.WithLogger(r.component("remote")))
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.remote = store
	r.mu.Unlock()
	return store, nil
}

func (r *Runtime) touchSignal() {
	if err := signal.Touch(r.Config.Sync.SignalFile); err != nil {
		r.component("signal").WithError(err).Warn("touch change signal")
	}
}

// Statuses delivers sync status lines. Slow readers miss intermediate lines.
func (r *Runtime) Statuses() <-chan string {
	return r.statuses
}

// Updates delivers dates changed behind the user's back. An empty slice
// means the current view should be reloaded.
func (r *Runtime) Updates() <-chan []string {
	return r.updates
}

func (r *Runtime) publishStatus(s string) {
	select {
	case r.statuses <- s:
	default:
	}
}

func (r *Runtime) publishUpdate(dates []string) {
	select {
	case r.updates <- dates:
	default:
	}
}

// Start launches the background workers of an interactive session: the
// sync loop, the scheduler and the change-signal watcher.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return errors.New("app: already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	r.Engine.Start()
	if err := r.scheduleInitial(); err != nil {
		cancel()
		return err
	}

	r.wg.Add(3)
	go func() {
		defer r.wg.Done()
		r.Session.Run(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.consumeTriggers(ctx)
	}()
	go func() {
		defer r.wg.Done()
		w := signal.NewWatcher(r.Config.Sync.SignalFile, r.onSignal,
			signal.WithDebounce(r.Config.Sync.Debounce),
			signal.WithLogger(r.component("signal")),
		)
		if err := w.Run(ctx); err != nil {
			r.component("signal").WithError(err).Warn("change signal disabled")
		}
	}()
	return nil
}

// onSignal handles a write made by another daylog process.
func (r *Runtime) onSignal() {
	r.publishUpdate([]string{})
	r.Session.NotifyChange()
}

// Close stops workers and releases every resource, reporting all failures.
func (r *Runtime) Close() error {
	r.mu.Lock()
	cancel := r.cancel
	remoteStore := r.remote
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.Engine.Stop()
	r.wg.Wait()

	var err error
	if remoteStore != nil {
		err = multierr.Append(err, remoteStore.Close())
	}
	if r.Store != nil {
		err = multierr.Append(err, r.Store.Close())
	}
	if r.logCloser != nil {
		err = multierr.Append(err, r.logCloser.Close())
	}
	return err
}
