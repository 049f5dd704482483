package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/daylog/internal/app"
	"github.com/sandeepkv93/daylog/internal/commands"
	"github.com/sandeepkv93/daylog/internal/config"
	"github.com/sandeepkv93/daylog/internal/model"
	"github.com/sandeepkv93/daylog/internal/remote"
)

// withRuntime opens a one-shot runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, fn func(rt *app.Runtime) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rt, err := app.Open(cmd.Context(), cfg, app.ModeOneShot, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(rt)
}

// resolveDate accepts the same forms as the palette's date command.
func resolveDate(rt *app.Runtime, value string) (string, error) {
	today := rt.Daily.Today()
	if value == "" {
		return today, nil
	}
	parsed, err := commands.Parse("date " + value)
	if err != nil {
		return "", err
	}
	return parsed.Date.Resolve(today, today)
}

func printTasks(w io.Writer, date string, tasks []model.Task) {
	fmt.Fprintf(w, "%s\n", date)
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  (no tasks)")
		return
	}
	for i, t := range tasks {
		check := " "
		if t.Completed {
			check = "x"
		}
		line := fmt.Sprintf("%d. [%s] %s", i+1, check, t.Text)
		if t.DueMinutes > 0 {
			line += fmt.Sprintf(" (~%dm)", t.DueMinutes)
		}
		fmt.Fprintln(w, line)
	}
}

func newAddCmd() *cobra.Command {
	var date string
	var due int
	c := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				d, err := resolveDate(rt, date)
				if err != nil {
					return err
				}
				task, err := rt.Daily.AddTask(cmd.Context(), d, strings.Join(args, " "), due)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %q to %s\n", task.Text, task.Date)
				return nil
			})
		},
	}
	c.Flags().StringVar(&date, "date", "", "Date: today, +N, -N or YYYY-MM-DD")
	c.Flags().IntVar(&due, "due", 0, "Estimated duration in minutes")
	return c
}

func newListCmd() *cobra.Command {
	var date string
	c := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				d, err := resolveDate(rt, date)
				if err != nil {
					return err
				}
				if err := rt.Daily.OpenDay(cmd.Context(), "", d); err != nil {
					return err
				}
				tasks, err := rt.Daily.TasksForDate(cmd.Context(), d)
				if err != nil {
					return err
				}
				printTasks(cmd.OutOrStdout(), d, tasks)
				if s, ok, err := rt.Daily.LatestSummary(cmd.Context(), d); err != nil {
					return err
				} else if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "summary (%.1f/5): %s\n", s.Rating, s.Text)
				}
				return nil
			})
		},
	}
	c.Flags().StringVar(&date, "date", "", "Date: today, +N, -N or YYYY-MM-DD")
	return c
}

func newDoneCmd() *cobra.Command {
	var date string
	c := &cobra.Command{
		Use:   "done <n>",
		Short: "Toggle completion of the n-th task in the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("done " + args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(rt *app.Runtime) error {
				d, err := resolveDate(rt, date)
				if err != nil {
					return err
				}
				tasks, err := rt.Daily.TasksForDate(cmd.Context(), d)
				if err != nil {
					return err
				}
				idx := parsed.Target.Index
				if idx > len(tasks) {
					return fmt.Errorf("no task #%d on %s", idx, d)
				}
				task, err := rt.Daily.ToggleTask(cmd.Context(), tasks[idx-1].ID)
				if err != nil {
					return err
				}
				state := "reopened"
				if task.Completed {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", state, task.Text)
				return nil
			})
		},
	}
	c.Flags().StringVar(&date, "date", "", "Date: today, +N, -N or YYYY-MM-DD")
	return c
}

func newSummaryCmd() *cobra.Command {
	var date string
	var rating float64
	c := &cobra.Command{
		Use:   "summary [text]",
		Short: "Write the summary of a day; no text and no rating clears it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.ValidateRating(rating); err != nil {
				return err
			}
			return withRuntime(cmd, func(rt *app.Runtime) error {
				d, err := resolveDate(rt, date)
				if err != nil {
					return err
				}
				s, err := rt.Daily.SaveSummary(cmd.Context(), d, strings.Join(args, " "), rating)
				if err != nil {
					return err
				}
				if s.Empty() {
					fmt.Fprintf(cmd.OutOrStdout(), "cleared summary of %s\n", d)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved summary of %s\n", d)
				return nil
			})
		},
	}
	c.Flags().StringVar(&date, "date", "", "Date: today, +N, -N or YYYY-MM-DD")
	c.Flags().Float64Var(&rating, "rating", 0, "Rating from 0 to 5 in steps of 0.5")
	return c
}

func newRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rule <list | del n | daily|workday|weekly D,D|monthly D|yearly M-D|every N unit> [text]",
		Short: "Manage recurring tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("rule " + strings.Join(args, " "))
			if err != nil {
				return err
			}
			r := parsed.Rule
			return withRuntime(cmd, func(rt *app.Runtime) error {
				ctx, out := cmd.Context(), cmd.OutOrStdout()
				switch r.Action {
				case commands.RuleAdd:
					rule, err := rt.Daily.AddRule(ctx, r.Rule)
					if err != nil {
						return err
					}
					if err := rt.Daily.OpenDay(ctx, "", rt.Daily.Today()); err != nil {
						return err
					}
					fmt.Fprintf(out, "rule added: %s (%s)\n", rule.Text, rule.Describe())
				case commands.RuleList:
					rules, err := rt.Daily.ListRules(ctx)
					if err != nil {
						return err
					}
					for i, rule := range rules {
						fmt.Fprintf(out, "%d. %s (%s)\n", i+1, rule.Text, rule.Describe())
					}
				case commands.RuleDelete:
					rules, err := rt.Daily.ListRules(ctx)
					if err != nil {
						return err
					}
					if r.Index > len(rules) {
						return fmt.Errorf("no rule #%d", r.Index)
					}
					removed, err := rt.Daily.DeleteRule(ctx, rules[r.Index-1].ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "rule deleted, %d upcoming task(s) removed\n", removed)
				}
				return nil
			})
		},
	}
}

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show or set the UI theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				if len(args) == 1 {
					if err := rt.Daily.SetTheme(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				theme, err := rt.Daily.Theme(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), theme)
				return nil
			})
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the remote database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				err := rt.Session.SyncNow(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), rt.Session.Status())
				return err
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state and identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "status:    %s\n", rt.Session.Status())
				fmt.Fprintf(out, "user:      %s\n", rt.Session.UserID())
				fmt.Fprintf(out, "watermark: %s\n", model.FormatTimestamp(rt.Session.Watermark()))
				fmt.Fprintf(out, "database:  %s\n", rt.Config.Store.Path)
				if err := rt.Session.LastError(); err != nil {
					fmt.Fprintf(out, "error:     %v\n", err)
				}
				return nil
			})
		},
	}
}

func newRemoteCmd() *cobra.Command {
	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Remote database administration",
	}
	remoteCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the remote schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.RemoteEnabled() {
				return errors.New("no remote configured (set DAYLOG_REMOTE_DSN)")
			}
			if err := remote.Migrate(cmd.Context(), cfg.Remote.DSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "remote schema up to date")
			return nil
		},
	})
	return remoteCmd
}
