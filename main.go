package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/Tioit-Wang/fk.todo/internal/commands"
	"github.com/Tioit-Wang/fk.todo/internal/core/config"
	"github.com/Tioit-Wang/fk.todo/internal/core/eventbus"
	"github.com/Tioit-Wang/fk.todo/internal/mustdo"
	"github.com/Tioit-Wang/fk.todo/internal/storage/jsonfile"
	"github.com/Tioit-Wang/fk.todo/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "mustdo",
		Usage:     "Task manager with recurring tasks and reminders",
		UsageText: "mustdo [global options] command [command options]",
		Description: `Mustdo keeps tasks, projects, and reminders in plain JSON files.

Tasks can repeat on daily, weekly, monthly, or yearly rules; reminders
fire ahead of the due time and can be snoozed or, for forced reminders,
dismissed for good. Every command emits a single JSON envelope so the
output is easy to script against.

Run 'mustdo task add --title "..."' to create your first task.
Run 'mustdo watch' to start the reminder scan loop.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MUSTDO_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("MUSTDO_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MUSTDO_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("MUSTDO_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Flags and MUSTDO_* env beat the config file for logging.
			logLevel := flags.LogLevel
			if !c.IsSet("log-level") && cfg.LogLevel != "" {
				logLevel = cfg.LogLevel
			}
			logFile := flags.LogFile
			if !c.IsSet("log-file") && cfg.LogFile != "" {
				logFile = cfg.LogFile
			}

			if err := os.MkdirAll(flags.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data directory: %w", err)
			}

			// Always log to a file; stdout is reserved for command output.
			logger, closer, err := logutils.New(logLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			storage := jsonfile.New(cfg.DataDir)
			store, err := mustdo.Load(storage, log.With().Str("component", "boot").Logger())
			if err != nil {
				return ctx, fmt.Errorf("load state: %w", err)
			}

			bus := eventbus.New(64)
			eventbus.RegisterDebugLogger(bus, log.With().Str("component", "eventbus").Logger())

			flags.Storage = storage
			flags.Bus = bus
			flags.Service = mustdo.NewService(store, storage, bus, log.With().Str("component", "mustdo").Logger())

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewTaskCmd(flags).Register(app)
	app = commands.NewProjectCmd(flags).Register(app)
	app = commands.NewSettingsCmd(flags).Register(app)
	app = commands.NewBackupCmd(flags).Register(app)
	app = commands.NewWatchCmd(flags).Register(app)

	if err := app.Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
