package commands

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/Tioit-Wang/fk.todo/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// TaskCmd implements the mustdo task command group.
type TaskCmd struct {
	flags *Flags

	// add flags
	addTitle       string
	addProject     string
	addDue         string
	addImportant   bool
	addNotes       string
	addTags        []string
	addQuadrant    uint64
	addRemind      string
	addRemindAt    string
	addRepeat      string
	addWorkdayOnly bool
	addRepeatDays  []int64
	addRepeatDay   int64
	addRepeatMonth int64

	// ls flags
	lsProject string
	lsAll     bool

	// edit flags
	editTitle     string
	editProject   string
	editDue       string
	editImportant bool
	editNotes     string

	// snooze flags
	snoozeUntil string
	snoozeFor   string
}

// NewTaskCmd creates a new task command.
func NewTaskCmd(flags *Flags) *TaskCmd {
	return &TaskCmd{flags: flags}
}

// Register adds the task command group to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Manage tasks",
		Description: `Task commands for creating, listing, and completing tasks.

Examples:
  mustdo task add --title "Buy milk" --due "2026-09-01 18:00"
  mustdo task ls --project inbox
  mustdo task complete <id>
  mustdo task snooze <id> --for 10m`,
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.lsCmd(),
			cmd.editCmd(),
			cmd.completeCmd(),
			cmd.rmCmd(),
			cmd.snoozeCmd(),
			cmd.dismissCmd(),
			cmd.swapCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create a task",
		UsageText: "mustdo task add --title <title> [options]",
		Description: `Creates a task. Without --project the task lands in the inbox.

Reminder kinds:
  none    no reminder (default)
  normal  fires 10 minutes before the due time unless --remind-at is set
  forced  fires at the due time and repeats until dismissed

Examples:
  mustdo task add --title "Buy milk"
  mustdo task add --title "Standup" --due "2026-09-01 09:30" --remind normal
  mustdo task add --title "Water plants" --repeat daily --workday-only`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "task title",
				Required:    true,
				Destination: &cmd.addTitle,
			},
			&cli.StringFlag{
				Name:        "project",
				Aliases:     []string{"p"},
				Usage:       "project id (defaults to inbox)",
				Destination: &cmd.addProject,
			},
			&cli.StringFlag{
				Name:        "due",
				Usage:       "due time (RFC3339, \"2006-01-02 15:04\", or epoch seconds)",
				Destination: &cmd.addDue,
			},
			&cli.BoolFlag{
				Name:        "important",
				Aliases:     []string{"i"},
				Usage:       "mark the task important",
				Destination: &cmd.addImportant,
			},
			&cli.StringFlag{
				Name:        "notes",
				Usage:       "free-form notes",
				Destination: &cmd.addNotes,
			},
			&cli.StringSliceFlag{
				Name:        "tag",
				Usage:       "tag (repeatable)",
				Destination: &cmd.addTags,
			},
			&cli.UintFlag{
				Name:        "quadrant",
				Usage:       "eisenhower quadrant (0-4)",
				Destination: &cmd.addQuadrant,
			},
			&cli.StringFlag{
				Name:        "remind",
				Usage:       "reminder kind (none, normal, forced)",
				Value:       string(task.ReminderNone),
				Destination: &cmd.addRemind,
			},
			&cli.StringFlag{
				Name:        "remind-at",
				Usage:       "explicit reminder time, overrides the default lead",
				Destination: &cmd.addRemindAt,
			},
			&cli.StringFlag{
				Name:        "repeat",
				Usage:       "repeat rule (none, daily, weekly, monthly, yearly)",
				Value:       string(task.RepeatNone),
				Destination: &cmd.addRepeat,
			},
			&cli.BoolFlag{
				Name:        "workday-only",
				Usage:       "daily repeat skips weekends",
				Destination: &cmd.addWorkdayOnly,
			},
			&cli.IntSliceFlag{
				Name:        "repeat-days",
				Usage:       "weekly repeat weekdays, Monday=1 .. Sunday=7 (repeatable)",
				Destination: &cmd.addRepeatDays,
			},
			&cli.IntFlag{
				Name:        "repeat-day",
				Usage:       "day of month for monthly/yearly repeats",
				Destination: &cmd.addRepeatDay,
			},
			&cli.IntFlag{
				Name:        "repeat-month",
				Usage:       "month for yearly repeats (1-12)",
				Destination: &cmd.addRepeatMonth,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *TaskCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Aliases:   []string{"list"},
		Usage:     "List tasks",
		UsageText: "mustdo task ls [--project <id>] [--all]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "project",
				Aliases:     []string{"p"},
				Usage:       "only tasks in this project",
				Destination: &cmd.lsProject,
			},
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "include completed tasks",
				Destination: &cmd.lsAll,
			},
		},
		Action: cmd.runLs,
	}
}

func (cmd *TaskCmd) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change fields of an existing task",
		UsageText: "mustdo task edit <id> [options]",
		Description: `Only the flags given are changed; everything else keeps its
current value.

Examples:
  mustdo task edit abc123 --title "Buy oat milk"
  mustdo task edit abc123 --due "2026-09-02 18:00" --important`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "new title",
				Destination: &cmd.editTitle,
			},
			&cli.StringFlag{
				Name:        "project",
				Aliases:     []string{"p"},
				Usage:       "move to this project",
				Destination: &cmd.editProject,
			},
			&cli.StringFlag{
				Name:        "due",
				Usage:       "new due time",
				Destination: &cmd.editDue,
			},
			&cli.BoolFlag{
				Name:        "important",
				Aliases:     []string{"i"},
				Usage:       "set or clear the important flag",
				Destination: &cmd.editImportant,
			},
			&cli.StringFlag{
				Name:        "notes",
				Usage:       "replace the notes (empty string clears them)",
				Destination: &cmd.editNotes,
			},
		},
		Action: cmd.runEdit,
	}
}

func (cmd *TaskCmd) runEdit(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo task edit <id> [options]")
	}

	t, err := cmd.flags.Service.Task(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("edit task: %w", err)
	}

	if c.IsSet("title") {
		t.Title = cmd.editTitle
	}
	if c.IsSet("project") {
		t.ProjectID = cmd.editProject
	}
	if c.IsSet("due") {
		due, err := parseTimestamp(cmd.editDue)
		if err != nil {
			return fmt.Errorf("--due: %w", err)
		}
		t.DueAt = due
	}
	if c.IsSet("important") {
		t.Important = cmd.editImportant
	}
	if c.IsSet("notes") {
		if cmd.editNotes == "" {
			t.Notes = nil
		} else {
			notes := cmd.editNotes
			t.Notes = &notes
		}
	}

	updated, err := cmd.flags.Service.UpdateTask(t)
	if err != nil {
		return fmt.Errorf("edit task: %w", err)
	}

	return writeResult(c, iojson.Ok(updated))
}

func (cmd *TaskCmd) completeCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Aliases:   []string{"done"},
		Usage:     "Complete a task",
		UsageText: "mustdo task complete <id>",
		Description: `Marks a task completed. A repeating task spawns its next
occurrence with a fresh reminder.`,
		Action: cmd.runComplete,
	}
}

func (cmd *TaskCmd) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove one or more tasks",
		UsageText: "mustdo task rm <id> [<id>...]",
		Action:    cmd.runRm,
	}
}

func (cmd *TaskCmd) snoozeCmd() *cli.Command {
	return &cli.Command{
		Name:      "snooze",
		Usage:     "Push a task's reminder to a later time",
		UsageText: "mustdo task snooze <id> (--until <time> | --for <duration>)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "until",
				Usage:       "absolute snooze target",
				Destination: &cmd.snoozeUntil,
			},
			&cli.StringFlag{
				Name:        "for",
				Usage:       "snooze duration from now, e.g. 10m",
				Destination: &cmd.snoozeFor,
			},
		},
		Action: cmd.runSnooze,
	}
}

func (cmd *TaskCmd) dismissCmd() *cli.Command {
	return &cli.Command{
		Name:      "dismiss",
		Usage:     "Permanently silence a forced reminder",
		UsageText: "mustdo task dismiss <id>",
		Action:    cmd.runDismiss,
	}
}

func (cmd *TaskCmd) swapCmd() *cli.Command {
	return &cli.Command{
		Name:      "swap",
		Usage:     "Exchange the manual sort position of two tasks",
		UsageText: "mustdo task swap <id> <id>",
		Action:    cmd.runSwap,
	}
}

func (cmd *TaskCmd) runAdd(ctx context.Context, c *cli.Command) error {
	quadrant, err := parseQuadrant(uint(cmd.addQuadrant))
	if err != nil {
		return err
	}

	t := task.Task{
		Title:     cmd.addTitle,
		ProjectID: cmd.addProject,
		Important: cmd.addImportant,
		Tags:      cmd.addTags,
		Quadrant:  quadrant,
		Reminder:  task.DefaultReminderConfig(),
		Repeat:    task.NoRepeat(),
	}

	if cmd.addNotes != "" {
		notes := cmd.addNotes
		t.Notes = &notes
	}

	if cmd.addDue != "" {
		due, err := parseTimestamp(cmd.addDue)
		if err != nil {
			return fmt.Errorf("--due: %w", err)
		}
		t.DueAt = due
	}

	kind := task.ReminderKind(cmd.addRemind)
	switch kind {
	case task.ReminderNone, task.ReminderNormal, task.ReminderForced:
		t.Reminder.Kind = kind
	default:
		return fmt.Errorf("invalid reminder kind %q: must be one of none, normal, forced", cmd.addRemind)
	}
	if cmd.addRemindAt != "" {
		at, err := parseTimestamp(cmd.addRemindAt)
		if err != nil {
			return fmt.Errorf("--remind-at: %w", err)
		}
		t.Reminder.RemindAt = &at
	}

	rule, err := cmd.repeatRule()
	if err != nil {
		return err
	}
	t.Repeat = rule

	created, err := cmd.flags.Service.CreateTask(t)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return writeResult(c, iojson.Ok(created))
}

// parseQuadrant validates the eisenhower quadrant flag; 0 means unset.
func parseQuadrant(v uint) (uint8, error) {
	if v > 4 {
		return 0, fmt.Errorf("invalid quadrant %d: must be between 0 and 4", v)
	}
	return uint8(v), nil
}

func (cmd *TaskCmd) repeatRule() (task.RepeatRule, error) {
	switch task.RepeatType(cmd.addRepeat) {
	case task.RepeatNone:
		return task.NoRepeat(), nil
	case task.RepeatDaily:
		return task.RepeatRule{Type: task.RepeatDaily, WorkdayOnly: cmd.addWorkdayOnly}, nil
	case task.RepeatWeekly:
		days := make([]int, len(cmd.addRepeatDays))
		for i, d := range cmd.addRepeatDays {
			days[i] = int(d)
		}
		return task.RepeatRule{Type: task.RepeatWeekly, Days: days}, nil
	case task.RepeatMonthly:
		return task.RepeatRule{Type: task.RepeatMonthly, Day: int(cmd.addRepeatDay)}, nil
	case task.RepeatYearly:
		return task.RepeatRule{Type: task.RepeatYearly, Month: int(cmd.addRepeatMonth), Day: int(cmd.addRepeatDay)}, nil
	default:
		return task.RepeatRule{}, fmt.Errorf("invalid repeat rule %q: must be one of none, daily, weekly, monthly, yearly", cmd.addRepeat)
	}
}

func (cmd *TaskCmd) runLs(ctx context.Context, c *cli.Command) error {
	tasks := cmd.flags.Service.Tasks()

	filtered := tasks[:0]
	for _, t := range tasks {
		if !cmd.lsAll && t.Completed {
			continue
		}
		if cmd.lsProject != "" && t.ProjectID != cmd.lsProject {
			continue
		}
		filtered = append(filtered, t)
	}

	slices.SortStableFunc(filtered, func(a, b task.Task) int {
		if a.SortOrder != b.SortOrder {
			if a.SortOrder < b.SortOrder {
				return -1
			}
			return 1
		}
		return 0
	})

	return writeResult(c, iojson.Ok(filtered))
}

func (cmd *TaskCmd) runComplete(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo task complete <id>")
	}

	completed, successor, err := cmd.flags.Service.CompleteTask(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{
		"completed": completed,
		"successor": successor,
	}))
}

func (cmd *TaskCmd) runRm(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo task rm <id> [<id>...]")
	}

	ids := c.Args().Slice()
	if len(ids) == 1 {
		if err := cmd.flags.Service.DeleteTask(ids[0]); err != nil {
			return fmt.Errorf("remove task: %w", err)
		}
	} else if err := cmd.flags.Service.DeleteTasks(ids); err != nil {
		return fmt.Errorf("remove tasks: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"removed": ids}))
}

func (cmd *TaskCmd) runSnooze(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo task snooze <id> (--until <time> | --for <duration>)")
	}

	until, err := cmd.snoozeTarget()
	if err != nil {
		return err
	}

	snoozed, err := cmd.flags.Service.SnoozeTask(c.Args().Get(0), until)
	if err != nil {
		return fmt.Errorf("snooze task: %w", err)
	}

	return writeResult(c, iojson.Ok(snoozed))
}

func (cmd *TaskCmd) snoozeTarget() (int64, error) {
	switch {
	case cmd.snoozeUntil != "" && cmd.snoozeFor != "":
		return 0, fmt.Errorf("--until and --for are mutually exclusive")
	case cmd.snoozeUntil != "":
		until, err := parseTimestamp(cmd.snoozeUntil)
		if err != nil {
			return 0, fmt.Errorf("--until: %w", err)
		}
		return until, nil
	case cmd.snoozeFor != "":
		d, err := time.ParseDuration(cmd.snoozeFor)
		if err != nil {
			return 0, fmt.Errorf("--for: %w", err)
		}
		return time.Now().Add(d).Unix(), nil
	default:
		return 0, fmt.Errorf("one of --until or --for is required")
	}
}

func (cmd *TaskCmd) runDismiss(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo task dismiss <id>")
	}

	dismissed, err := cmd.flags.Service.DismissForced(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("dismiss reminder: %w", err)
	}

	return writeResult(c, iojson.Ok(dismissed))
}

func (cmd *TaskCmd) runSwap(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: mustdo task swap <id> <id>")
	}

	first, second := c.Args().Get(0), c.Args().Get(1)
	if err := cmd.flags.Service.SwapTaskOrder(first, second); err != nil {
		return fmt.Errorf("swap tasks: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"swapped": []string{first, second}}))
}
