package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Tioit-Wang/fk.todo/internal/core/eventbus"
	"github.com/Tioit-Wang/fk.todo/internal/mustdo"
	"github.com/Tioit-Wang/fk.todo/internal/storage/jsonfile"
	"github.com/Tioit-Wang/fk.todo/pkg/iojson"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// WatchCmd implements the mustdo watch command: a long-running reminder
// scan loop that also follows external changes to the data files.
type WatchCmd struct {
	flags *Flags
}

// NewWatchCmd creates a new watch command.
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "watch",
		Usage: "Run the reminder scan loop",
		Description: `Scans for due reminders once per tick interval and emits one
JSON envelope per fired reminder on stdout. External edits to the data
files are picked up while running. Stop with Ctrl-C.

Examples:
  mustdo watch`,
		Action: cmd.runWatch,
	})

	return app
}

func (cmd *WatchCmd) runWatch(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := cmd.flags.Bus
	go bus.Start(ctx)

	// Every fired reminder goes to stdout as its own envelope so callers
	// can pipe the stream.
	bus.SubscribeReminderFired(func(p eventbus.ReminderFiredPayload) {
		_ = iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, iojson.Ok(map[string]any{
			"reminder": p.Task,
			"fired_at": p.FiredAt,
		}))
	})

	watcher, err := jsonfile.NewWatcher(cmd.flags.Storage)
	if err != nil {
		log.Warn().Err(err).Msg("file watcher unavailable, external edits will not be picked up")
	} else {
		defer watcher.Close() //nolint:errcheck
		go cmd.followChanges(ctx, watcher)
	}

	ticker := mustdo.NewTicker(cmd.flags.Service, cmd.flags.Config.TickInterval(), log.With().Str("component", "ticker").Logger())
	return ticker.Start(ctx)
}

func (cmd *WatchCmd) followChanges(ctx context.Context, watcher *jsonfile.Watcher) {
	for event := range watcher.Watch(ctx) {
		log.Debug().Str("file", event.File).Msg("data file changed, reloading")
		if err := cmd.flags.Service.Reload(); err != nil {
			log.Warn().Err(err).Msg("reload after external change failed")
		}
	}
}
