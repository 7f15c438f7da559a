// Package jobs runs the background schedules: the nightly ticket
// expiry sweep and the pending-report auto verifier.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-rewards/internal/config"
	"github.com/spec-kit/transit-rewards/internal/service"
)

const verifierBatchSize = 100

// Scheduler owns the cron instance and the job wiring.
type Scheduler struct {
	cron     *cron.Cron
	rewards  *service.RewardService
	verifier *service.VerifierService
	cfg      config.JobsConfig
	logger   *zap.Logger
}

// NewScheduler creates the scheduler. verifier may be nil when the
// auto verifier is disabled.
func NewScheduler(rewards *service.RewardService, verifier *service.VerifierService, cfg config.JobsConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		rewards:  rewards,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers and launches the background jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.SweepCron, func() {
		count, err := s.rewards.SweepExpiredTickets(ctx, time.Now())
		if err != nil {
			s.logger.Error("ticket expiry sweep failed", zap.Error(err))
			return
		}
		s.logger.Info("ticket expiry sweep done", zap.Int64("expired", count))
	}); err != nil {
		return err
	}

	if s.cfg.VerifierEnabled && s.verifier != nil {
		spec := "@every " + s.cfg.VerifierInterval().String()
		if _, err := s.cron.AddFunc(spec, func() {
			resolved, err := s.verifier.VerifyPending(ctx, verifierBatchSize)
			if err != nil {
				s.logger.Error("report verification pass failed", zap.Error(err))
				return
			}
			if resolved > 0 {
				s.logger.Info("report verification pass done", zap.Int("resolved", resolved))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("sweep_cron", s.cfg.SweepCron),
		zap.Bool("verifier_enabled", s.cfg.VerifierEnabled))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
