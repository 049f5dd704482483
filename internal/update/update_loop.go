package update

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/daylog/internal/model"
	"github.com/sandeepkv93/daylog/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForStatusCmd(m.deps.Statuses),
		waitForUpdatesCmd(m.deps.Updates),
	}
	if m.syncing() {
		cmds = append(cmds, m.syncSpinner.Tick)
	}
	return tea.Batch(cmds...)
}

func waitForStatusCmd(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return nil
		}
		return SyncStatusMsg{Text: text}
	}
}

func waitForUpdatesCmd(ch <-chan []string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		dates, ok := <-ch
		if !ok {
			return nil
		}
		return DatesChangedMsg{Dates: dates}
	}
}

func (m Model) syncCmd() tea.Cmd {
	if m.deps.Sync == nil {
		return nil
	}
	s, ctx := m.deps.Sync, m.ctx
	return func() tea.Msg {
		return SyncDoneMsg{Err: s.SyncNow(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.PaletteActive {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.syncing() {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SyncStatusMsg:
		wasSyncing := m.syncing()
		m.SyncStatus = typed.Text
		cmds := []tea.Cmd{waitForStatusCmd(m.deps.Statuses)}
		if m.syncing() && !wasSyncing {
			cmds = append(cmds, m.syncSpinner.Tick)
		}
		return m, tea.Batch(cmds...)
	case DatesChangedMsg:
		if len(typed.Dates) == 0 || slices.Contains(typed.Dates, m.Date) {
			m.reload()
		}
		return m, waitForUpdatesCmd(m.deps.Updates)
	case SyncDoneMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: "sync error: " + typed.Err.Error(), IsError: true}
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Palette):
		m.PaletteActive = true
		m.Notification = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
	case key.Matches(msg, m.keys.Help):
		m.HelpVisible = !m.HelpVisible
	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Cursor < len(m.Tasks)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.selected(); ok {
			if _, err := m.deps.Daily.ToggleTask(m.ctx, task.ID); err != nil {
				m.fail(err)
				break
			}
			m.reload()
		}
	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.selected(); ok {
			if err := m.deps.Daily.DeleteTask(m.ctx, task.ID); err != nil {
				m.fail(err)
				break
			}
			m.Status = StatusBar{Text: "deleted: " + task.Text}
			m.reload()
		}
	case key.Matches(msg, m.keys.Prev):
		m.shiftDate(-1)
	case key.Matches(msg, m.keys.Next):
		m.shiftDate(1)
	case key.Matches(msg, m.keys.Today):
		m.openDate(m.Date, m.deps.Daily.Today())
	case key.Matches(msg, m.keys.Sync):
		m.Status = StatusBar{Text: "sync requested"}
		return m, m.syncCmd()
	}
	return m, nil
}

func (m *Model) shiftDate(days int) {
	date, err := model.AddDays(m.Date, days)
	if err != nil {
		m.fail(err)
		return
	}
	m.openDate(m.Date, date)
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	today := m.deps.Daily.Today()

	items := make([]views.TaskItemData, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		items = append(items, views.TaskItemData{
			Text:       t.Text,
			Completed:  t.Completed,
			DueMinutes: t.DueMinutes,
			Recurring:  t.RuleID != 0,
			Carried:    t.CarriedFrom != "",
		})
	}
	left := views.RenderTaskPanel(views.TaskPanelData{
		Date:    m.Date,
		IsToday: m.Date == today,
		Items:   items,
		Cursor:  m.Cursor,
	})
	right := views.RenderSummaryPanel(views.SummaryPanelData{
		Present:  m.HasSummary,
		Rating:   m.Summary.Rating,
		Markdown: views.RenderMarkdown(m.Summary.Text, m.Theme),
	})
	if extra := m.renderHelpIfVisible(); extra != "" {
		right += "\n\n" + extra
	}

	syncLine := "sync: " + m.SyncStatus
	if m.syncing() {
		syncLine = fmt.Sprintf("sync: %s %s", m.syncSpinner.View(), m.SyncStatus)
	}
	statusLine := syncLine
	if m.Status.Text != "" {
		statusLine = fmt.Sprintf("%s | %s", syncLine, m.Status.Text)
	}

	footer := m.helpModel.View(m.helpKeys())
	if m.PaletteActive {
		footer = views.RenderCommandPalette(true, m.commandInput.View())
	}

	notification := ""
	if m.Notification != "" {
		notification = views.RenderNotification("info", m.Notification)
	}

	return views.RenderApp(views.AppData{
		Theme:        m.Theme,
		Header:       "daylog",
		LeftPane:     left,
		RightPane:    right,
		StatusLine:   statusLine,
		Footer:       footer,
		Notification: notification,
	})
}
