package commands

import (
	"context"
	"fmt"

	"github.com/Tioit-Wang/fk.todo/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// BackupCmd implements the mustdo backup command group.
type BackupCmd struct {
	flags *Flags
}

// NewBackupCmd creates a new backup command.
func NewBackupCmd(flags *Flags) *BackupCmd {
	return &BackupCmd{flags: flags}
}

// Register adds the backup command group to the application.
func (cmd *BackupCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "backup",
		Usage: "Manage task data backups",
		Description: `Backups snapshot the task document into a rotation of dated
files; the five most recent are kept. Automatic backups follow the
backup_schedule setting, these commands operate on demand.

Examples:
  mustdo backup create
  mustdo backup ls
  mustdo backup restore data-2026-08-26.json
  mustdo backup import /path/to/export.json`,
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Snapshot the current task data",
				Action: cmd.runCreate,
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List backups, newest first",
				Action:  cmd.runLs,
			},
			{
				Name:      "rm",
				Usage:     "Delete a backup",
				UsageText: "mustdo backup rm <name>",
				Action:    cmd.runRm,
			},
			{
				Name:      "restore",
				Usage:     "Replace the live data with a backup",
				UsageText: "mustdo backup restore <name>",
				Action:    cmd.runRestore,
			},
			{
				Name:      "import",
				Usage:     "Replace the live data with an external export",
				UsageText: "mustdo backup import <path>",
				Action:    cmd.runImport,
			},
		},
	})

	return app
}

func (cmd *BackupCmd) runCreate(ctx context.Context, c *cli.Command) error {
	name, err := cmd.flags.Service.CreateBackup()
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"created": name}))
}

func (cmd *BackupCmd) runLs(ctx context.Context, c *cli.Command) error {
	backups, err := cmd.flags.Service.ListBackups()
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}

	return writeResult(c, iojson.Ok(backups))
}

func (cmd *BackupCmd) runRm(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo backup rm <name>")
	}

	name := c.Args().Get(0)
	if err := cmd.flags.Service.DeleteBackup(name); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"removed": name}))
}

func (cmd *BackupCmd) runRestore(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo backup restore <name>")
	}

	name := c.Args().Get(0)
	if err := cmd.flags.Service.RestoreBackup(name); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"restored": name}))
}

func (cmd *BackupCmd) runImport(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo backup import <path>")
	}

	path := c.Args().Get(0)
	if err := cmd.flags.Service.ImportData(path); err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"imported": path}))
}
