package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/events"
	"github.com/spec-kit/transit-rewards/internal/progression"
	"github.com/spec-kit/transit-rewards/internal/repository"
	apperrors "github.com/spec-kit/transit-rewards/pkg/util"
)

// TxBeginner opens database transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RewardService runs the progression engine: it reacts to report
// verifications, issues and activates reward tickets, and expires
// them. Every mutation is a single short transaction.
type RewardService struct {
	db         TxBeginner
	users      repository.UserRepository
	reports    repository.ReportRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// RewardDependencies bundles collaborators for the reward service.
type RewardDependencies struct {
	DB         TxBeginner
	UserRepo   repository.UserRepository
	ReportRepo repository.ReportRepository
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewRewardService constructs the service.
func NewRewardService(deps RewardDependencies) *RewardService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RewardService{
		db:         deps.DB,
		users:      deps.UserRepo,
		reports:    deps.ReportRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// CreditResult describes the outcome of a verification.
type CreditResult struct {
	Report   *domain.Report
	User     *domain.User
	Credited bool
	OldLevel int
	NewLevel int
	Tickets  []domain.Ticket
}

// VerifyReport marks a report verified and credits its author: the
// verified-report counter and points go up by one, the level is
// recomputed, and one available ticket is created per level boundary
// crossed. Re-verifying an already-verified report is a no-op; the
// counter moves at most once per report. The status write, the
// counter update and the ticket inserts commit or roll back together.
func (s *RewardService) VerifyReport(ctx context.Context, reportID string) (*CreditResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	report, transitioned, err := s.reports.MarkVerified(ctx, tx, reportID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &CreditResult{Report: report, Credited: false}, nil
	}

	// Row lock on the user serializes concurrent credits.
	user, err := s.users.LockForCredit(ctx, tx, report.UserID)
	if err != nil {
		return nil, err
	}

	oldLevel := user.CurrentLevel
	user.TotalVerifiedReports++
	user.Points++
	user.CurrentLevel = progression.LevelFor(user.TotalVerifiedReports)

	var issued []domain.Ticket
	for _, grant := range progression.LevelUps(oldLevel, user.CurrentLevel) {
		ticket := domain.Ticket{
			UserID:      user.ID,
			Days:        grant.Days,
			EarnedLevel: grant.Level,
		}
		if err := s.tickets.Create(ctx, tx, &ticket); err != nil {
			return nil, err
		}
		issued = append(issued, ticket)
	}

	if err := s.users.SaveProgress(ctx, tx, user); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("report credited",
		zap.String("report_id", report.ID),
		zap.String("user_id", user.ID),
		zap.Int("total_verified", user.TotalVerifiedReports),
		zap.Int("level", user.CurrentLevel))

	s.publish(ctx, events.Event{
		Type:   events.EventReportVerified,
		UserID: user.ID,
		Payload: events.ReportVerifiedPayload{
			ReportID:      report.ID,
			TotalVerified: user.TotalVerifiedReports,
			Points:        user.Points,
		},
	})
	if user.CurrentLevel > oldLevel {
		payload := events.LevelUpPayload{OldLevel: oldLevel, NewLevel: user.CurrentLevel}
		for _, t := range issued {
			payload.Tickets = append(payload.Tickets, events.IssuedTicket{
				TicketID:    t.ID,
				EarnedLevel: t.EarnedLevel,
				Days:        t.Days,
			})
		}
		s.publish(ctx, events.Event{
			Type:    events.EventLevelUp,
			UserID:  user.ID,
			Payload: payload,
		})
	}

	return &CreditResult{
		Report:   report,
		User:     user,
		Credited: true,
		OldLevel: oldLevel,
		NewLevel: user.CurrentLevel,
		Tickets:  issued,
	}, nil
}

// RejectReport marks a pending report rejected. Verified reports keep
// their status and their credit.
func (s *RewardService) RejectReport(ctx context.Context, reportID string) (*domain.Report, error) {
	report, transitioned, err := s.reports.MarkRejected(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return nil, apperrors.NewConflict("report already verified", map[string]any{"report_id": reportID})
	}

	s.publish(ctx, events.Event{
		Type:    events.EventReportRejected,
		UserID:  report.UserID,
		Payload: events.ReportRejectedPayload{ReportID: report.ID},
	})
	return report, nil
}

// ActivateTicket starts an available ticket's clock: activation today,
// expiry today plus the ticket's day count. Anything other than an
// available ticket is a precondition failure; concurrent activations
// of the same ticket succeed exactly once.
func (s *RewardService) ActivateTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, activated, err := s.tickets.Activate(ctx, ticketID, s.now())
	if err != nil {
		return nil, err
	}
	if !activated {
		return nil, apperrors.NewConflict("ticket cannot be activated", map[string]any{
			"ticket_id": ticketID,
			"status":    ticket.Status,
		})
	}

	s.publish(ctx, events.Event{
		Type:   events.EventTicketActivated,
		UserID: ticket.UserID,
		Payload: events.TicketActivatedPayload{
			TicketID:      ticket.ID,
			Days:          ticket.Days,
			ActivatedDate: ticket.ActivatedDate,
			ExpiryDate:    ticket.ExpiryDate,
			Status:        ticket.Status,
		},
	})
	return ticket, nil
}

// SweepExpiredTickets expires every active ticket whose expiry date
// lies before asOf and returns the count. Running it again for the
// same date mutates nothing.
func (s *RewardService) SweepExpiredTickets(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := s.tickets.ExpireActive(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("expired tickets", zap.Int64("count", count), zap.Time("as_of", asOf))
		s.publish(ctx, events.Event{
			Type:    events.EventTicketsExpired,
			Payload: events.TicketsExpiredPayload{Count: count, AsOf: asOf},
		})
	}
	return count, nil
}

// ProgressView is the read-only progression snapshot for one user.
type ProgressView struct {
	UserID   string
	Snapshot progression.Snapshot
}

// GetProgress derives the display snapshot from the stored counters.
func (s *RewardService) GetProgress(ctx context.Context, userID string) (*ProgressView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProgressView{
		UserID:   user.ID,
		Snapshot: progression.SnapshotFor(user.TotalVerifiedReports),
	}, nil
}

// ListUserTickets returns the user's ticket ledger, newest first.
func (s *RewardService) ListUserTickets(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

func (s *RewardService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
