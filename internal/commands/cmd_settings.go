package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/Tioit-Wang/fk.todo/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// SettingsCmd implements the mustdo settings command group.
type SettingsCmd struct {
	flags *Flags
}

// NewSettingsCmd creates a new settings command.
func NewSettingsCmd(flags *Flags) *SettingsCmd {
	return &SettingsCmd{flags: flags}
}

// Register adds the settings command group to the application.
func (cmd *SettingsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "settings",
		Usage: "Show or change application settings",
		Description: `Settings are stored next to the task data and survive restarts.

Keys:
  theme                   light or dark
  language                auto, zh, or en
  sound_enabled           true or false
  backup_schedule         none, daily, weekly, or monthly
  reminder_interval_sec   cadence for repeating normal reminders (0 = single-shot)
  reminder_max_times      cap on repeat fires (0 = unlimited)

Examples:
  mustdo settings show
  mustdo settings set backup_schedule weekly
  mustdo settings set reminder_interval_sec 300`,
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current settings",
				Action: cmd.runShow,
			},
			{
				Name:      "set",
				Usage:     "Set one settings key",
				UsageText: "mustdo settings set <key> <value>",
				Action:    cmd.runSet,
			},
		},
	})

	return app
}

func (cmd *SettingsCmd) runShow(ctx context.Context, c *cli.Command) error {
	return writeResult(c, iojson.Ok(cmd.flags.Service.Settings()))
}

func (cmd *SettingsCmd) runSet(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: mustdo settings set <key> <value>")
	}

	key, value := c.Args().Get(0), c.Args().Get(1)
	settings := cmd.flags.Service.Settings()

	if err := applySetting(&settings, key, value); err != nil {
		return err
	}

	updated, err := cmd.flags.Service.UpdateSettings(settings)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	return writeResult(c, iojson.Ok(updated))
}

func applySetting(settings *task.Settings, key, value string) error {
	switch key {
	case "theme":
		settings.Theme = value
	case "language":
		settings.Language = value
	case "sound_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("sound_enabled: %w", err)
		}
		settings.SoundEnabled = enabled
	case "backup_schedule":
		schedule := task.BackupSchedule(value)
		switch schedule {
		case task.BackupNone, task.BackupDaily, task.BackupWeekly, task.BackupMonthly:
			settings.BackupSchedule = schedule
		default:
			return fmt.Errorf("invalid backup_schedule %q: must be one of none, daily, weekly, monthly", value)
		}
	case "reminder_interval_sec":
		sec, err := strconv.ParseInt(value, 10, 64)
		if err != nil || sec < 0 {
			return fmt.Errorf("reminder_interval_sec must be a non-negative integer")
		}
		settings.ReminderRepeatIntervalSec = sec
	case "reminder_max_times":
		times, err := strconv.ParseInt(value, 10, 64)
		if err != nil || times < 0 {
			return fmt.Errorf("reminder_max_times must be a non-negative integer")
		}
		settings.ReminderRepeatMaxTimes = times
	default:
		return fmt.Errorf("unknown settings key %q", key)
	}
	return nil
}
