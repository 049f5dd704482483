// Package update holds the terminal UI state machine: one day's task list
// and summary, a command palette and the background sync status.
package update

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/daylog/internal/model"
	"github.com/sandeepkv93/daylog/internal/syncer"
)

// DayService is the part of the daily service the UI drives.
type DayService interface {
	Today() string
	TasksForDate(ctx context.Context, date string) ([]model.Task, error)
	AddTask(ctx context.Context, date, text string, dueMinutes int) (model.Task, error)
	ToggleTask(ctx context.Context, id int64) (model.Task, error)
	EditTask(ctx context.Context, id int64, text string) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	OpenDay(ctx context.Context, previous, date string) error
	LatestSummary(ctx context.Context, date string) (model.Summary, bool, error)
	SaveSummary(ctx context.Context, date, text string, rating float64) (model.Summary, error)
	AddRule(ctx context.Context, rule model.RecurrenceRule) (model.RecurrenceRule, error)
	ListRules(ctx context.Context) ([]model.RecurrenceRule, error)
	DeleteRule(ctx context.Context, id int64) (int, error)
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
}

// Syncer runs sync cycles on demand.
type Syncer interface {
	SyncNow(ctx context.Context) error
	Status() string
}

type Deps struct {
	Daily    DayService
	Sync     Syncer
	Statuses <-chan string
	Updates  <-chan []string
	Log      *logrus.Entry
}

type StatusBar struct {
	Text    string
	IsError bool
}

type Model struct {
	Date       string
	Tasks      []model.Task
	Cursor     int
	Summary    model.Summary
	HasSummary bool
	Rules      []model.RecurrenceRule
	Theme      string

	SyncStatus    string
	Status        StatusBar
	Notification  string
	LastError     error
	HelpVisible   bool
	PaletteActive bool
	Quitting      bool

	ctx          context.Context
	deps         Deps
	log          *logrus.Entry
	keys         keyMap
	commandInput textinput.Model
	syncSpinner  spinner.Model
	helpModel    help.Model
}

// Messages.

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// SyncStatusMsg carries a status line published by the sync session.
type SyncStatusMsg struct {
	Text string
}

// DatesChangedMsg reports dates changed outside the UI. No dates means
// everything may have changed.
type DatesChangedMsg struct {
	Dates []string
}

type SyncDoneMsg struct {
	Err error
}

// NewModel opens today and loads it. Yesterday's unfinished tasks are carried
// forward on the way in.
func NewModel(ctx context.Context, deps Deps) Model {
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	m := Model{
		ctx:  ctx,
		deps: deps,
		log:  log.WithField("component", "ui"),
		keys: defaultKeyMap(),
	}
	m.initBubbleComponents()

	if deps.Sync != nil {
		m.SyncStatus = deps.Sync.Status()
	}
	if theme, err := deps.Daily.Theme(ctx); err == nil {
		m.Theme = theme
	} else {
		m.fail(err)
	}

	today := deps.Daily.Today()
	previous := ""
	if y, err := model.AddDays(today, -1); err == nil {
		previous = y
	}
	m.openDate(previous, today)
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.log.WithError(err).Warn("ui action failed")
}

// openDate moves the view to date, preparing the day first.
func (m *Model) openDate(previous, date string) {
	if err := m.deps.Daily.OpenDay(m.ctx, previous, date); err != nil {
		m.fail(err)
	}
	m.Date = date
	m.Cursor = 0
	m.reload()
}

// reload rereads the current day from the store.
func (m *Model) reload() {
	tasks, err := m.deps.Daily.TasksForDate(m.ctx, m.Date)
	if err != nil {
		m.fail(err)
		return
	}
	m.Tasks = tasks
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}

	summary, ok, err := m.deps.Daily.LatestSummary(m.ctx, m.Date)
	if err != nil {
		m.fail(err)
		return
	}
	m.Summary, m.HasSummary = summary, ok
}

func (m Model) selected() (model.Task, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[m.Cursor], true
}

// taskAt resolves a 1-based list position.
func (m Model) taskAt(index int) (model.Task, error) {
	if index < 1 || index > len(m.Tasks) {
		return model.Task{}, fmt.Errorf("no task #%d on %s", index, m.Date)
	}
	return m.Tasks[index-1], nil
}

func (m Model) syncing() bool {
	return m.SyncStatus == string(syncer.StateSyncing)
}
