package mustdo

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Ticker drives the reminder scan loop on a fixed cadence. Each tick runs
// Service.Tick with the current instant; tick failures are logged and the
// loop keeps going.
type Ticker struct {
	service  *Service
	interval time.Duration
	log      zerolog.Logger

	c       *cron.Cron
	entryID cron.EntryID
}

// NewTicker creates a stopped ticker. Call Start to begin scanning.
func NewTicker(service *Service, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		service:  service,
		interval: interval,
		log:      logger,
	}
}

// Start schedules the scan job and runs it until ctx is cancelled.
// Overlapping runs are skipped rather than queued, so a slow persist
// cannot pile up ticks behind it.
func (tk *Ticker) Start(ctx context.Context) error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	tk.c = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	spec := fmt.Sprintf("@every %s", tk.interval)
	entryID, err := tk.c.AddFunc(spec, tk.tick)
	if err != nil {
		return fmt.Errorf("schedule reminder scan: %w", err)
	}
	tk.entryID = entryID

	tk.c.Start()
	tk.log.Info().Dur("interval", tk.interval).Msg("reminder scan started")

	<-ctx.Done()
	<-tk.c.Stop().Done()
	tk.log.Info().Msg("reminder scan stopped")
	return nil
}

func (tk *Ticker) tick() {
	now := time.Now().Unix()
	fired, err := tk.service.Tick(now)
	if err != nil {
		tk.log.Error().Err(err).Msg("reminder tick failed")
		return
	}
	for _, t := range fired {
		tk.log.Info().
			Str("task_id", t.ID).
			Str("title", t.Title).
			Str("kind", string(t.Reminder.Kind)).
			Msg("reminder due")
	}
}
