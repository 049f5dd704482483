package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeDone    Type = "done"
	TypeDelete  Type = "del"
	TypeEdit    Type = "edit"
	TypeDate    Type = "date"
	TypeSummary Type = "summary"
	TypeRate    Type = "rate"
	TypeRule    Type = "rule"
	TypeSync    Type = "sync"
	TypeTheme   Type = "theme"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Text       string
	DueMinutes int
}

// TargetArgs points at a task by its 1-based position in the visible list.
type TargetArgs struct {
	Index int
}

type EditArgs struct {
	Index int
	Text  string
}

// DateArgs selects a date either absolutely or relative to the current one.
type DateArgs struct {
	Date   string
	Today  bool
	Offset int
}

type SummaryArgs struct {
	Text string
}

type RateArgs struct {
	Rating float64
}

type RuleAction string

const (
	RuleAdd    RuleAction = "add"
	RuleList   RuleAction = "list"
	RuleDelete RuleAction = "delete"
)

type RuleArgs struct {
	Action RuleAction
	Rule   model.RecurrenceRule
	Index  int
}

type ThemeArgs struct {
	Theme string
}

type Command struct {
	Type    Type
	Raw     string
	Add     *AddArgs
	Target  *TargetArgs
	Edit    *EditArgs
	Date    *DateArgs
	Summary *SummaryArgs
	Rate    *RateArgs
	Rule    *RuleArgs
	Theme   *ThemeArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseTarget(input, TypeDone, args)
	case TypeDelete, "delete", "rm":
		return parseTarget(input, TypeDelete, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeDate:
		return parseDate(input, args)
	case TypeSummary:
		return Command{Type: TypeSummary, Raw: input, Summary: &SummaryArgs{Text: strings.Join(args, " ")}}, nil
	case TypeRate:
		return parseRate(input, args)
	case TypeRule:
		return parseRule(input, args)
	case TypeSync:
		return Command{Type: TypeSync, Raw: input}, nil
	case TypeTheme:
		if len(args) != 1 {
			return Command{}, invalid("theme requires light or dark")
		}
		return Command{Type: TypeTheme, Raw: input, Theme: &ThemeArgs{Theme: strings.ToLower(args[0])}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd reads `add <text> [~<minutes>m]`.
func parseAdd(raw string, args []string) (Command, error) {
	due := 0
	if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "~") {
		minutes, err := parseMinutes(args[n-1])
		if err != nil {
			return Command{}, err
		}
		due = minutes
		args = args[:n-1]
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Command{}, invalid("add requires task text")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Text: text, DueMinutes: due}}, nil
}

func parseMinutes(token string) (int, error) {
	v := strings.TrimSuffix(strings.TrimPrefix(token, "~"), "m")
	minutes, err := strconv.Atoi(v)
	if err != nil || minutes < 0 {
		return 0, invalid("duration must look like ~30m, got %q", token)
	}
	return minutes, nil
}

func parseIndex(name string, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, invalid("%s requires a task number, got %q", name, v)
	}
	return n, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires a task number", typ)
	}
	n, err := parseIndex(string(typ), args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{Index: n}}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("edit requires a task number and text")
	}
	n, err := parseIndex("edit", args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Index: n, Text: strings.Join(args[1:], " ")}}, nil
}

// parseDate reads `date <YYYY-MM-DD|today|+N|-N>`.
func parseDate(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("date requires YYYY-MM-DD, today, +N or -N")
	}
	v := strings.ToLower(args[0])
	switch {
	case v == "today":
		return Command{Type: TypeDate, Raw: raw, Date: &DateArgs{Today: true}}, nil
	case strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-"):
		n, err := strconv.Atoi(v)
		if err != nil {
			return Command{}, invalid("invalid day offset %q", v)
		}
		return Command{Type: TypeDate, Raw: raw, Date: &DateArgs{Offset: n}}, nil
	default:
		if _, err := model.ParseDate(v, time.UTC); err != nil {
			return Command{}, invalid("invalid date %q", v)
		}
		return Command{Type: TypeDate, Raw: raw, Date: &DateArgs{Date: v}}, nil
	}
}

// Resolve turns the arguments into a date given the current and today's
// dates.
func (d DateArgs) Resolve(current, today string) (string, error) {
	switch {
	case d.Today:
		return today, nil
	case d.Date != "":
		return d.Date, nil
	default:
		return model.AddDays(current, d.Offset)
	}
}

func parseRate(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("rate requires a value from 0 to 5")
	}
	r, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return Command{}, invalid("invalid rating %q", args[0])
	}
	if err := model.ValidateRating(r); err != nil {
		return Command{}, invalid("rating must be 0 to 5 in half steps")
	}
	return Command{Type: TypeRate, Raw: raw, Rate: &RateArgs{Rating: r}}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseRule reads one of
//
//	rule list
//	rule del <n>
//	rule daily|workday <text>
//	rule weekly mon,wed <text>
//	rule monthly <day> <text>
//	rule yearly <month>-<day> <text>
//	rule every <n> day|week|month|year <text>
func parseRule(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("rule requires a type")
	}
	kind := strings.ToLower(args[0])
	rest := args[1:]
	out := Command{Type: TypeRule, Raw: raw}

	need := func(n int, usage string) error {
		if len(rest) < n {
			return invalid("usage: rule %s", usage)
		}
		return nil
	}

	var rule model.RecurrenceRule
	switch kind {
	case "list", "ls":
		out.Rule = &RuleArgs{Action: RuleList}
		return out, nil
	case "del", "delete", "rm":
		if err := need(1, "del <n>"); err != nil {
			return Command{}, err
		}
		n, err := parseIndex("rule del", rest[0])
		if err != nil {
			return Command{}, err
		}
		out.Rule = &RuleArgs{Action: RuleDelete, Index: n}
		return out, nil
	case "daily", "workday":
		if err := need(1, kind+" <text>"); err != nil {
			return Command{}, err
		}
		rule.Type = model.RecurrenceType(kind)
	case "weekly":
		if err := need(2, "weekly mon,wed <text>"); err != nil {
			return Command{}, err
		}
		for _, name := range strings.Split(strings.ToLower(rest[0]), ",") {
			day, ok := weekdayNames[name]
			if !ok {
				return Command{}, invalid("unknown weekday %q", name)
			}
			rule.Weekdays = append(rule.Weekdays, day)
		}
		rule.Type = model.RecurrenceWeekly
		rest = rest[1:]
	case "monthly":
		if err := need(2, "monthly <day> <text>"); err != nil {
			return Command{}, err
		}
		day, err := strconv.Atoi(rest[0])
		if err != nil {
			return Command{}, invalid("invalid day of month %q", rest[0])
		}
		rule.Type = model.RecurrenceMonthly
		rule.Day = day
		rest = rest[1:]
	case "yearly":
		if err := need(2, "yearly <month>-<day> <text>"); err != nil {
			return Command{}, err
		}
		month, day, ok := strings.Cut(rest[0], "-")
		m, errM := strconv.Atoi(month)
		d, errD := strconv.Atoi(day)
		if !ok || errM != nil || errD != nil {
			return Command{}, invalid("invalid month-day %q", rest[0])
		}
		rule.Type = model.RecurrenceYearly
		rule.Month = time.Month(m)
		rule.Day = d
		rest = rest[1:]
	case "every", "custom":
		if err := need(3, "every <n> day|week|month|year <text>"); err != nil {
			return Command{}, err
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return Command{}, invalid("invalid interval %q", rest[0])
		}
		rule.Type = model.RecurrenceCustom
		rule.Interval = n
		rule.Unit = model.IntervalUnit(strings.TrimSuffix(strings.ToLower(rest[1]), "s"))
		rest = rest[2:]
	default:
		return Command{}, invalid("unknown rule type %q", kind)
	}

	if n := len(rest); n > 0 && strings.HasPrefix(rest[n-1], "~") {
		minutes, err := parseMinutes(rest[n-1])
		if err != nil {
			return Command{}, err
		}
		rule.DueMinutes = minutes
		rest = rest[:n-1]
	}
	rule.Text = strings.TrimSpace(strings.Join(rest, " "))
	if rule.Text == "" {
		return Command{}, invalid("rule requires task text")
	}
	out.Rule = &RuleArgs{Action: RuleAdd, Rule: rule}
	return out, nil
}
