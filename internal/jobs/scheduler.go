package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"photorank/internal/service"
)

// Scheduler runs the maintenance passes on fixed schedules: the duplicate
// session sweep nightly, stats reconciliation hourly. Both are idempotent
// and safe alongside live traffic, so overlap with request handling needs
// no coordination.
type Scheduler struct {
	cron        *cron.Cron
	maintenance *service.MaintenanceService
	log         zerolog.Logger
}

func NewScheduler(maintenance *service.MaintenanceService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		maintenance: maintenance,
		log:         log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 30 3 * * *", s.runDedupe); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 * * * *", s.runReconcile); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs to finish, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runDedupe() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.maintenance.DedupeSessions(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled dedupe failed")
	}
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.maintenance.ReconcileStats(ctx, 500); err != nil {
		s.log.Error().Err(err).Msg("scheduled reconciliation failed")
	}
}
