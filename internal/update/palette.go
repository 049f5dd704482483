package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/daylog/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.commandInput.CursorEnd()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) closePalette() {
	m.PaletteActive = false
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.commandInput.Value())
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if _, err := m.deps.Daily.AddTask(m.ctx, m.Date, a.Text, a.DueMinutes); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added: %s", a.Text)}, nil
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := m.taskAt(t.Index)
			if err != nil {
				return commands.Result{}, err
			}
			updated, err := m.deps.Daily.ToggleTask(m.ctx, task.ID)
			if err != nil {
				return commands.Result{}, err
			}
			if updated.Completed {
				return commands.Result{Message: fmt.Sprintf("completed: %s", updated.Text)}, nil
			}
			return commands.Result{Message: fmt.Sprintf("reopened: %s", updated.Text)}, nil
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := m.taskAt(t.Index)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.deps.Daily.DeleteTask(m.ctx, task.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted: %s", task.Text)}, nil
		},
		Edit: func(e commands.EditArgs) (commands.Result, error) {
			task, err := m.taskAt(e.Index)
			if err != nil {
				return commands.Result{}, err
			}
			if _, err := m.deps.Daily.EditTask(m.ctx, task.ID, e.Text); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("edited #%d", e.Index)}, nil
		},
		Date: func(d commands.DateArgs) (commands.Result, error) {
			date, err := d.Resolve(m.Date, m.deps.Daily.Today())
			if err != nil {
				return commands.Result{}, err
			}
			m.openDate(m.Date, date)
			return commands.Result{Message: "showing " + date}, nil
		},
		Summary: func(s commands.SummaryArgs) (commands.Result, error) {
			rating := 0.0
			if m.HasSummary {
				rating = m.Summary.Rating
			}
			if _, err := m.deps.Daily.SaveSummary(m.ctx, m.Date, s.Text, rating); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "summary saved"}, nil
		},
		Rate: func(r commands.RateArgs) (commands.Result, error) {
			text := ""
			if m.HasSummary {
				text = m.Summary.Text
			}
			if _, err := m.deps.Daily.SaveSummary(m.ctx, m.Date, text, r.Rating); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("rated %.1f", r.Rating)}, nil
		},
		Rule: m.handleRule,
		Sync: func() (commands.Result, error) {
			follow = m.syncCmd()
			return commands.Result{Message: "sync requested"}, nil
		},
		Theme: func(t commands.ThemeArgs) (commands.Result, error) {
			if err := m.deps.Daily.SetTheme(m.ctx, t.Theme); err != nil {
				return commands.Result{}, err
			}
			m.Theme = t.Theme
			return commands.Result{Message: "theme " + t.Theme}, nil
		},
	})
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.reload()
	return m, follow
}

// handleRule needs the model by pointer so a listing is kept for later
// deletes by position.
func (m *Model) handleRule(r commands.RuleArgs) (commands.Result, error) {
	switch r.Action {
	case commands.RuleAdd:
		rule, err := m.deps.Daily.AddRule(m.ctx, r.Rule)
		if err != nil {
			return commands.Result{}, err
		}
		if err := m.deps.Daily.OpenDay(m.ctx, "", m.Date); err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("rule added: %s (%s)", rule.Text, rule.Describe())}, nil
	case commands.RuleList:
		rules, err := m.deps.Daily.ListRules(m.ctx)
		if err != nil {
			return commands.Result{}, err
		}
		m.Rules = rules
		if len(rules) == 0 {
			m.Notification = ""
			return commands.Result{Message: "no rules"}, nil
		}
		lines := make([]string, 0, len(rules))
		for i, rule := range rules {
			lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, rule.Text, rule.Describe()))
		}
		m.Notification = strings.Join(lines, "\n")
		return commands.Result{Message: fmt.Sprintf("%d rule(s)", len(rules))}, nil
	case commands.RuleDelete:
		rules, err := m.deps.Daily.ListRules(m.ctx)
		if err != nil {
			return commands.Result{}, err
		}
		if r.Index < 1 || r.Index > len(rules) {
			return commands.Result{}, fmt.Errorf("no rule #%d", r.Index)
		}
		rule := rules[r.Index-1]
		removed, err := m.deps.Daily.DeleteRule(m.ctx, rule.ID)
		if err != nil {
			return commands.Result{}, err
		}
		m.Rules = append(rules[:r.Index-1:r.Index-1], rules[r.Index:]...)
		m.Notification = ""
		return commands.Result{Message: fmt.Sprintf("rule deleted: %s, %d upcoming task(s) removed", rule.Text, removed)}, nil
	default:
		return commands.Result{}, fmt.Errorf("unknown rule action %q", r.Action)
	}
}
