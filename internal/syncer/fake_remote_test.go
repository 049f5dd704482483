package syncer

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

// fakeRemote is an in-memory key-value table keyed by stable id with the same
// no-op-on-identical-row semantics as the PostgreSQL adapter.
type fakeRemote struct {
	mu        sync.Mutex
	tasks     map[string]model.Task
	summaries map[string]model.Summary
	pushes    int
	pulls     int
	failPush  error
	failPull  error

	beforePull func()

	gate        chan struct{}
	gateEntered chan struct{}
	gateOnce    sync.Once

	inFlight    int32
	maxInFlight int32
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tasks:     make(map[string]model.Task),
		summaries: make(map[string]model.Summary),
	}
}

func wireTask(t model.Task) model.Task {
	out := model.Task{
		UUID:      t.UUID,
		Date:      t.Date,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: model.Stamp(t.CreatedAt),
		UpdatedAt: model.Stamp(t.UpdatedAt),
	}
	if t.DeletedAt != nil {
		d := model.Stamp(*t.DeletedAt)
		out.DeletedAt = &d
	}
	return out
}

func (f *fakeRemote) enter() func() {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeRemote) UpsertTasks(_ context.Context, tasks []model.Task) error {
	defer f.enter()()
	if f.gate != nil {
		first := false
		f.gateOnce.Do(func() { first = true })
		if first {
			close(f.gateEntered)
			<-f.gate
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	if f.failPush != nil {
		return f.failPush
	}
	for _, t := range tasks {
		if t.UUID == "" {
			continue
		}
		row := wireTask(t)
		if cur, ok := f.tasks[t.UUID]; ok && cur.SyncEqual(row) {
			continue
		}
		f.tasks[t.UUID] = row
	}
	return nil
}

func (f *fakeRemote) UpsertSummaries(_ context.Context, summaries []model.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPush != nil {
		return f.failPush
	}
	for _, s := range summaries {
		if s.UUID == "" {
			continue
		}
		s.ID = 0
		s.UserID = ""
		f.summaries[s.UUID] = s
	}
	return nil
}

func (f *fakeRemote) TasksModifiedAfter(_ context.Context, ts time.Time) ([]model.Task, error) {
	defer f.enter()()
	f.mu.Lock()
	f.pulls++
	hook := f.beforePull
	failPull := f.failPull
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failPull != nil {
		return nil, failPull
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, 0)
	for _, t := range f.tasks {
		if model.Millis(t.UpdatedAt) > model.Millis(ts) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].UUID < out[j].UUID
	})
	return out, nil
}

func (f *fakeRemote) SummariesModifiedAfter(_ context.Context, ts time.Time) ([]model.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPull != nil {
		return nil, f.failPull
	}
	out := make([]model.Summary, 0)
	for _, s := range f.summaries {
		if model.Millis(s.UpdatedAt) > model.Millis(ts) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out, nil
}

func (f *fakeRemote) put(t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.UUID] = wireTask(t)
}

func (f *fakeRemote) get(uuid string) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[uuid]
	return t, ok
}

func (f *fakeRemote) snapshot() map[string]model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]model.Task, len(f.tasks))
	for k, v := range f.tasks {
		out[k] = v
	}
	return out
}

func (f *fakeRemote) setFailures(push, pull error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPush = push
	f.failPull = pull
}

func (f *fakeRemote) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}
