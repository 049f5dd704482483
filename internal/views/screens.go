package views

import (
	"fmt"
	"strings"
)

type TaskItemData struct {
	Text       string
	Completed  bool
	DueMinutes int
	Recurring  bool
	Carried    bool
}

type TaskPanelData struct {
	Date    string
	IsToday bool
	Items   []TaskItemData
	Cursor  int
}

type SummaryPanelData struct {
	Rating   float64
	Markdown string
	Present  bool
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderTaskPanel(data TaskPanelData) string {
	var b strings.Builder
	title := data.Date
	if data.IsToday {
		title += " (today)"
	}
	done := 0
	for _, item := range data.Items {
		if item.Completed {
			done++
		}
	}
	b.WriteString(fmt.Sprintf("%s  %d/%d done\n", title, done, len(data.Items)))
	if len(data.Items) == 0 {
		b.WriteString("  (no tasks)")
		return b.String()
	}
	for i, item := range data.Items {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		check := "[ ]"
		if item.Completed {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %d. %s %s", cursor, i+1, check, item.Text)
		var tags []string
		if item.DueMinutes > 0 {
			tags = append(tags, fmt.Sprintf("~%dm", item.DueMinutes))
		}
		if item.Recurring {
			tags = append(tags, "repeat")
		}
		if item.Carried {
			tags = append(tags, "carried")
		}
		if len(tags) > 0 {
			line += " (" + strings.Join(tags, ", ") + ")"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderSummaryPanel(data SummaryPanelData) string {
	if !data.Present {
		return "summary:\n(none yet, use /summary or /rate)"
	}
	rating := "unrated"
	if data.Rating > 0 {
		rating = fmt.Sprintf("%.1f/5", data.Rating)
	}
	return fmt.Sprintf("summary: %s\n%s", rating, data.Markdown)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}
