package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/daylog/internal/app"
	"github.com/sandeepkv93/daylog/internal/config"
	"github.com/sandeepkv93/daylog/internal/update"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "daylog",
		Short: "Daily task tracker with offline-first sync",
		Long: `daylog keeps a list of tasks per day, a short daily summary and
recurring tasks in a local database. When a remote PostgreSQL database is
configured, changes are synchronized in the background.

Run without arguments to open the terminal UI. Subcommands edit the same
database and wake up a running UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTUI,
	}
	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newDoneCmd(),
		newSummaryCmd(),
		newRuleCmd(),
		newThemeCmd(),
		newSyncCmd(),
		newStatusCmd(),
		newRemoteCmd(),
	)
	return root
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// Without a log file the terminal belongs to the UI.
	rt, err := app.Open(ctx, cfg, app.ModeInteractive, io.Discard)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.Start(ctx); err != nil {
		return err
	}

	m := update.NewModel(ctx, update.Deps{
		Daily:    rt.Daily,
		Sync:     rt.Session,
		Statuses: rt.Statuses(),
		Updates:  rt.Updates(),
		Log:      logrus.NewEntry(rt.Log),
	})
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return err
	}
	return nil
}
