package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"offblog/internal/writer"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	syncTimeout           = 2 * time.Minute
)

// Syncer is the job the scheduler runs.
type Syncer interface {
	Sync(ctx context.Context) writer.SyncReport
}

type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	spec   string
	syncer Syncer
	log    *slog.Logger
}

func New(ctx context.Context, spec string, syncer Syncer, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:    ctx,
		cron:   c,
		spec:   spec,
		syncer: syncer,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.syncLocalPosts); err != nil {
		return fmt.Errorf("add sync job %q: %w", s.spec, err)
	}

	s.cron.Start()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) syncLocalPosts() {
	ctx, cancel := context.WithTimeout(s.ctx, syncTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	report := s.syncer.Sync(ctx)
	if report.Pending == 0 {
		s.log.DebugContext(ctx, "No local posts to sync")
		return
	}

	s.log.InfoContext(ctx, "Local posts sync is finished",
		"pending", report.Pending,
		"synced", report.Synced,
		"failed", report.Failed,
		"offline", report.Offline)
}
