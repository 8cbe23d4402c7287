package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// Reporter produces the periodic economy report.
type Reporter interface {
	GenerateDailyReport(ctx context.Context) (models.EconomyReport, string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		reporter: reporter,
		schedule: cfg.CronSchedule,
		logger:   logger,
	}, nil
}

// Start registers the report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyReport() {
	s.logger.Info("generating daily economy report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, summary, err := s.reporter.GenerateDailyReport(ctx)
	if err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}

	s.logger.Info("daily report ready", zap.String("summary", summary))
}
