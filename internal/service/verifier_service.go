package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/repository"
)

// VerifierService resolves pending reports against the published
// route schedules. A delay claim holds up when the scheduled arrival
// plus the claimed delay has passed and the bus still has not
// arrived; it fails when the bus did arrive. Reports missing route,
// station or delay are left for a moderator.
type VerifierService struct {
	reports repository.ReportRepository
	routes  repository.RouteRepository
	rewards *RewardService
	logger  *zap.Logger
	now     func() time.Time
}

// NewVerifierService constructs the service.
func NewVerifierService(reports repository.ReportRepository, routes repository.RouteRepository, rewards *RewardService, logger *zap.Logger) *VerifierService {
	return &VerifierService{
		reports: reports,
		routes:  routes,
		rewards: rewards,
		logger:  logger,
		now:     time.Now,
	}
}

// VerifyPending examines up to limit pending reports and verifies or
// rejects the ones the schedule can decide. Returns how many were
// resolved. Credits flow through the same transactional path as a
// moderator verdict, so counters stay exact.
func (v *VerifierService) VerifyPending(ctx context.Context, limit int) (int, error) {
	pending, err := v.reports.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range pending {
		report := &pending[i]
		outcome, err := v.judge(ctx, report)
		if err != nil {
			v.logger.Warn("verifier skipped report", zap.String("report_id", report.ID), zap.Error(err))
			continue
		}

		switch outcome {
		case verdictVerified:
			if _, err := v.rewards.VerifyReport(ctx, report.ID); err != nil {
				v.logger.Error("verifier credit failed", zap.String("report_id", report.ID), zap.Error(err))
				continue
			}
			resolved++
		case verdictRejected:
			if _, err := v.rewards.RejectReport(ctx, report.ID); err != nil {
				v.logger.Error("verifier reject failed", zap.String("report_id", report.ID), zap.Error(err))
				continue
			}
			resolved++
		case verdictUndecided:
		}
	}
	return resolved, nil
}

type verdict int

const (
	verdictUndecided verdict = iota
	verdictVerified
	verdictRejected
)

func (v *VerifierService) judge(ctx context.Context, report *domain.Report) (verdict, error) {
	if report.RouteID == nil || report.StationID == nil || report.DelayMinutes == nil {
		return verdictUndecided, nil
	}

	route, err := v.routes.GetByID(ctx, *report.RouteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return verdictUndecided, nil
		}
		return verdictUndecided, err
	}

	for _, station := range route.Stations {
		if station.StationID != *report.StationID {
			continue
		}
		expected := station.ArrivalTime.Add(time.Duration(*report.DelayMinutes) * time.Minute)
		if station.ActualArrival != nil {
			// Bus already arrived; the claimed delay did not hold.
			return verdictRejected, nil
		}
		if !expected.After(v.now()) {
			return verdictVerified, nil
		}
		// Not enough time has passed to judge the claim yet.
		return verdictUndecided, nil
	}
	return verdictUndecided, nil
}
