package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/events"
	"github.com/spec-kit/transit-rewards/internal/repository"
	apperrors "github.com/spec-kit/transit-rewards/pkg/util"
)

// ReportService coordinates delay-report intake and listing. The
// verification reaction itself lives in RewardService.
type ReportService struct {
	reports    repository.ReportRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewReportService constructs the service.
func NewReportService(reports repository.ReportRepository, users repository.UserRepository, dispatcher events.Dispatcher) *ReportService {
	return &ReportService{reports: reports, users: users, dispatcher: dispatcher}
}

// ReportCreateInput describes report creation payload.
type ReportCreateInput struct {
	UserID       string
	RouteID      *string
	StationID    *string
	DelayMinutes *int
	BusNumber    *string
	Issue        string
}

// CreateReport records a new pending report for a user.
func (s *ReportService) CreateReport(ctx context.Context, input ReportCreateInput) (*domain.Report, error) {
	if strings.TrimSpace(input.Issue) == "" {
		return nil, apperrors.NewValidationError("issue is required", nil)
	}
	if input.DelayMinutes != nil && *input.DelayMinutes < 0 {
		return nil, apperrors.NewValidationError("delay must be non-negative", nil)
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	report := &domain.Report{
		UserID:       input.UserID,
		RouteID:      input.RouteID,
		StationID:    input.StationID,
		DelayMinutes: input.DelayMinutes,
		BusNumber:    input.BusNumber,
		Issue:        strings.TrimSpace(input.Issue),
		Status:       domain.ReportStatusPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventReportCreated,
			UserID:    report.UserID,
			Timestamp: time.Now(),
			Payload: events.ReportCreatedPayload{
				ReportID:  report.ID,
				RouteID:   report.RouteID,
				StationID: report.StationID,
				Issue:     report.Issue,
			},
		})
	}
	return report, nil
}

// ListUserReports returns a user's reports, optionally filtered by status.
func (s *ReportService) ListUserReports(ctx context.Context, userID string, status *domain.ReportStatus) ([]domain.Report, error) {
	if status != nil {
		switch *status {
		case domain.ReportStatusPending, domain.ReportStatusVerified, domain.ReportStatusRejected:
		default:
			return nil, apperrors.NewValidationError("unknown status filter", map[string]any{"status": *status})
		}
	}
	return s.reports.ListByUser(ctx, userID, status)
}
