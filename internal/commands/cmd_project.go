package commands

import (
	"context"
	"fmt"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/Tioit-Wang/fk.todo/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// ProjectCmd implements the mustdo project command group.
type ProjectCmd struct {
	flags *Flags

	// add flags
	addName   string
	addPinned bool

	// rename flags
	renameName string
}

// NewProjectCmd creates a new project command.
func NewProjectCmd(flags *Flags) *ProjectCmd {
	return &ProjectCmd{flags: flags}
}

// Register adds the project command group to the application.
func (cmd *ProjectCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "project",
		Usage: "Manage projects",
		Description: `Project commands. Every task belongs to exactly one project;
the built-in inbox receives tasks whose project is removed.

Examples:
  mustdo project add --name "Chores"
  mustdo project ls
  mustdo project rm <id>`,
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.lsCmd(),
			cmd.renameCmd(),
			cmd.rmCmd(),
			cmd.swapCmd(),
		},
	})

	return app
}

func (cmd *ProjectCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create a project",
		UsageText: "mustdo project add --name <name> [--pinned]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "project name",
				Required:    true,
				Destination: &cmd.addName,
			},
			&cli.BoolFlag{
				Name:        "pinned",
				Usage:       "pin the project",
				Destination: &cmd.addPinned,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *ProjectCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List projects",
		Action:  cmd.runLs,
	}
}

func (cmd *ProjectCmd) renameCmd() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a project",
		UsageText: "mustdo project rename <id> --name <name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "new project name",
				Required:    true,
				Destination: &cmd.renameName,
			},
		},
		Action: cmd.runRename,
	}
}

func (cmd *ProjectCmd) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove a project, moving its tasks to the inbox",
		UsageText: "mustdo project rm <id>",
		Action:    cmd.runRm,
	}
}

func (cmd *ProjectCmd) swapCmd() *cli.Command {
	return &cli.Command{
		Name:      "swap",
		Usage:     "Exchange the manual sort position of two projects",
		UsageText: "mustdo project swap <id> <id>",
		Action:    cmd.runSwap,
	}
}

func (cmd *ProjectCmd) runAdd(ctx context.Context, c *cli.Command) error {
	created, err := cmd.flags.Service.CreateProject(task.Project{
		Name:   cmd.addName,
		Pinned: cmd.addPinned,
	})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return writeResult(c, iojson.Ok(created))
}

func (cmd *ProjectCmd) runLs(ctx context.Context, c *cli.Command) error {
	return writeResult(c, iojson.Ok(cmd.flags.Service.Projects()))
}

func (cmd *ProjectCmd) runRename(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo project rename <id> --name <name>")
	}

	id := c.Args().Get(0)
	project, err := cmd.flags.Service.Project(id)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}

	project.Name = cmd.renameName
	updated, err := cmd.flags.Service.UpdateProject(project)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}

	return writeResult(c, iojson.Ok(updated))
}

func (cmd *ProjectCmd) runRm(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: mustdo project rm <id>")
	}

	id := c.Args().Get(0)
	if err := cmd.flags.Service.DeleteProject(id); err != nil {
		return fmt.Errorf("remove project: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"removed": id}))
}

func (cmd *ProjectCmd) runSwap(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: mustdo project swap <id> <id>")
	}

	first, second := c.Args().Get(0), c.Args().Get(1)
	if err := cmd.flags.Service.SwapProjectOrder(first, second); err != nil {
		return fmt.Errorf("swap projects: %w", err)
	}

	return writeResult(c, iojson.Ok(map[string]any{"swapped": []string{first, second}}))
}
