package views

import (
	"strings"
	"testing"
)

func TestRenderTaskPanel(t *testing.T) {
	out := RenderTaskPanel(TaskPanelData{
		Date:    "2026-02-09",
		IsToday: true,
		Cursor:  1,
		Items: []TaskItemData{
			{Text: "stretch", Recurring: true},
			{Text: "report", Completed: true, DueMinutes: 30, Carried: true},
		},
	})
	for _, want := range []string{
		"2026-02-09 (today)  1/2 done",
		"  1. [ ] stretch (repeat)",
		"> 2. [x] report (~30m, carried)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	empty := RenderTaskPanel(TaskPanelData{Date: "2026-02-10"})
	if !strings.Contains(empty, "(no tasks)") || strings.Contains(empty, "today") {
		t.Fatalf("unexpected empty panel: %q", empty)
	}
}

func TestRenderSummaryPanel(t *testing.T) {
	if out := RenderSummaryPanel(SummaryPanelData{}); !strings.Contains(out, "none yet") {
		t.Fatalf("unexpected placeholder: %q", out)
	}
	out := RenderSummaryPanel(SummaryPanelData{Present: true, Rating: 3.5, Markdown: "calm"})
	if !strings.HasPrefix(out, "summary: 3.5/5\ncalm") {
		t.Fatalf("unexpected summary panel: %q", out)
	}
	if out := RenderSummaryPanel(SummaryPanelData{Present: true}); !strings.Contains(out, "unrated") {
		t.Fatalf("expected unrated label, got %q", out)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if got := RenderMarkdown("   ", "dark"); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
	if got := RenderMarkdown("**done**", "light"); !strings.Contains(got, "done") {
		t.Fatalf("expected rendered text, got %q", got)
	}
}

func TestRenderAppIncludesSections(t *testing.T) {
	out := RenderApp(AppData{
		Header:       "daylog",
		LeftPane:     "left",
		RightPane:    "right",
		StatusLine:   "sync: Idle",
		Footer:       "q quit",
		Notification: RenderNotification("info", "1 rule(s)"),
	})
	for _, want := range []string{"daylog", "left", "right", "sync: Idle", "q quit", "[INFO] 1 rule(s)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in render", want)
		}
	}
}
