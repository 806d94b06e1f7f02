package sync

import (
	"context"
	"sync"
	"time"

	"github.com/brkops/painel-holmes/pkg/logger"
)

// Scheduler triggers a sync run on a fixed interval. Runs already in
// flight are skipped, never queued.
type Scheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	service  *Service
	interval time.Duration
	logger   *logger.Logger
	wg       sync.WaitGroup
}

// NewScheduler creates a new sync scheduler.
func NewScheduler(ctx context.Context, service *Service, interval time.Duration, logger *logger.Logger) *Scheduler {
	schedCtx, schedCancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:      schedCtx,
		cancel:   schedCancel,
		service:  service,
		interval: interval,
		logger:   logger.Named("sync-scheduler"),
	}
}

// Start starts the periodic sync loop.
func (s *Scheduler) Start() {
	s.logger.Info("Starting sync scheduler", logger.Duration("interval", s.interval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("Sync scheduler stopped due to context cancellation")
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

// Stop stops the periodic sync loop and waits for it to exit. It does not
// interrupt a run already in flight.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping sync scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runOnce() {
	if s.service.IsRunning() {
		s.logger.Warn("Sync already in progress, skipping scheduled run")
		return
	}

	result := s.service.Run(s.ctx)
	if result.Success {
		s.logger.Info("Scheduled sync completed",
			logger.Int("records_processed", result.RecordsProcessed))
	} else {
		s.logger.Error("Scheduled sync failed", logger.String("message", result.Message))
	}
}
