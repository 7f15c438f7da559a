package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/events"
	"github.com/spec-kit/transit-rewards/internal/repository"
	apperrors "github.com/spec-kit/transit-rewards/pkg/util"
)

// fakeDB emulates the per-user row lock with a single mutex: a
// transaction holds it from Begin until Commit or Rollback, which is
// exactly the serialization the FOR UPDATE path gives us per user.
type fakeDB struct {
	mu sync.Mutex
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.mu.Lock()
	return &fakeTx{db: db}, nil
}

type fakeTx struct {
	pgx.Tx
	db   *fakeDB
	done bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.db.mu.Unlock()
	}
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.db.mu.Unlock()
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = "user-" + strconv.Itoa(len(r.users)+1)
	user.CurrentLevel = 1
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) LockForCredit(ctx context.Context, tx repository.DBTX, id string) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) SaveProgress(ctx context.Context, tx repository.DBTX, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Points = user.Points
	stored.CurrentLevel = user.CurrentLevel
	stored.TotalVerifiedReports = user.TotalVerifiedReports
	return nil
}

func (r *fakeUserRepo) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CurrentLevel != result[j].CurrentLevel {
			return result[i].CurrentLevel > result[j].CurrentLevel
		}
		return result[i].TotalVerifiedReports > result[j].TotalVerifiedReports
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*domain.Report
}

func newFakeReportRepo(reports ...*domain.Report) *fakeReportRepo {
	repo := &fakeReportRepo{reports: map[string]*domain.Report{}}
	for _, rep := range reports {
		repo.reports[rep.ID] = rep
	}
	return repo
}

func (r *fakeReportRepo) Create(ctx context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = "report-" + strconv.Itoa(len(r.reports)+1)
	report.ReportedTime = time.Now()
	r.reports[report.ID] = report
	return nil
}

func (r *fakeReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *report
	return &copied, nil
}

func (r *fakeReportRepo) ListByUser(ctx context.Context, userID string, status *domain.ReportStatus) ([]domain.Report, error) {
	return nil, nil
}

func (r *fakeReportRepo) ListPending(ctx context.Context, limit int) ([]domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Report
	for _, report := range r.reports {
		if report.Status == domain.ReportStatusPending {
			result = append(result, *report)
		}
	}
	return result, nil
}

func (r *fakeReportRepo) MarkVerified(ctx context.Context, tx repository.DBTX, id string) (*domain.Report, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	if report.Status == domain.ReportStatusVerified {
		copied := *report
		return &copied, false, nil
	}
	now := time.Now()
	report.Status = domain.ReportStatusVerified
	report.VerifiedAt = &now
	copied := *report
	return &copied, true, nil
}

func (r *fakeReportRepo) MarkRejected(ctx context.Context, id string) (*domain.Report, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	if report.Status == domain.ReportStatusVerified {
		copied := *report
		return &copied, false, nil
	}
	report.Status = domain.ReportStatusRejected
	copied := *report
	return &copied, true, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Create(ctx context.Context, tx repository.DBTX, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = "ticket-" + strconv.Itoa(r.nextID)
	ticket.Status = domain.TicketStatusAvailable
	ticket.EarnedDate = time.Now()
	ticket.CreatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.UserID == userID {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) Activate(ctx context.Context, id string, day time.Time) (*domain.Ticket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	if ticket.Status != domain.TicketStatusAvailable {
		copied := *ticket
		return &copied, false, nil
	}
	expiry := day.AddDate(0, 0, ticket.Days)
	ticket.Status = domain.TicketStatusActive
	ticket.ActivatedDate = &day
	ticket.ExpiryDate = &expiry
	copied := *ticket
	return &copied, true, nil
}

func (r *fakeTicketRepo) ExpireActive(ctx context.Context, asOf time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Date comparison, like the SQL's ::date cast.
	day := asOf.Truncate(24 * time.Hour)
	var count int64
	for _, ticket := range r.tickets {
		if ticket.Status == domain.TicketStatusActive && ticket.ExpiryDate != nil && ticket.ExpiryDate.Before(day) {
			ticket.Status = domain.TicketStatusExpired
			count++
		}
	}
	return count, nil
}

func newTestService(users *fakeUserRepo, reports *fakeReportRepo, tickets *fakeTicketRepo, dispatcher events.Dispatcher) *RewardService {
	return NewRewardService(RewardDependencies{
		DB:         &fakeDB{},
		UserRepo:   users,
		ReportRepo: reports,
		TicketRepo: tickets,
		Dispatcher: dispatcher,
	})
}

func TestVerifyReportCreditsOnce(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo(&domain.User{ID: "u1", CurrentLevel: 1})
	reports := newFakeReportRepo(&domain.Report{ID: "r1", UserID: "u1", Status: domain.ReportStatusPending})
	svc := newTestService(users, reports, newFakeTicketRepo(), nil)

	result, err := svc.VerifyReport(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.Equal(t, 1, result.User.TotalVerifiedReports)
	assert.Equal(t, 1, result.User.Points)
	assert.Equal(t, 1, result.NewLevel)
	assert.Empty(t, result.Tickets)
	assert.Equal(t, domain.ReportStatusVerified, result.Report.Status)
	require.NotNil(t, result.Report.VerifiedAt)

	// a duplicate verification event must not move the counter
	result, err = svc.VerifyReport(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, result.Credited)

	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalVerifiedReports)
}

func TestVerifyReportMissing(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeReportRepo(), newFakeTicketRepo(), nil)
	_, err := svc.VerifyReport(context.Background(), "nope")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestVerifyReportLevelUpIssuesTicket(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo(&domain.User{ID: "u1", CurrentLevel: 1, TotalVerifiedReports: 9, Points: 9})
	reports := newFakeReportRepo(&domain.Report{ID: "r10", UserID: "u1", Status: domain.ReportStatusPending})
	tickets := newFakeTicketRepo()
	dispatcher := events.NewInMemoryDispatcher()

	var levelUps []events.LevelUpPayload
	dispatcher.Subscribe(events.EventLevelUp, func(_ context.Context, e events.Event) error {
		levelUps = append(levelUps, e.Payload.(events.LevelUpPayload))
		return nil
	})

	svc := newTestService(users, reports, tickets, dispatcher)

	result, err := svc.VerifyReport(ctx, "r10")
	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.Equal(t, 10, result.User.TotalVerifiedReports)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)
	require.Len(t, result.Tickets, 1)
	assert.Equal(t, 2, result.Tickets[0].Days)
	assert.Equal(t, 2, result.Tickets[0].EarnedLevel)
	assert.Equal(t, domain.TicketStatusAvailable, result.Tickets[0].Status)

	require.Len(t, levelUps, 1)
	assert.Equal(t, 2, levelUps[0].NewLevel)
	require.Len(t, levelUps[0].Tickets, 1)
}

func TestConcurrentVerifiesLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	const n = 25

	users := newFakeUserRepo(&domain.User{ID: "u1", CurrentLevel: 1})
	reports := newFakeReportRepo()
	for i := 0; i < n; i++ {
		id := "r" + strconv.Itoa(i)
		reports.reports[id] = &domain.Report{ID: id, UserID: "u1", Status: domain.ReportStatusPending}
	}
	tickets := newFakeTicketRepo()
	svc := newTestService(users, reports, tickets, nil)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.VerifyReport(ctx, "r"+strconv.Itoa(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, n, stored.TotalVerifiedReports)
	assert.Equal(t, 3, stored.CurrentLevel) // boundaries at 10 and 22

	issued, err := tickets.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, issued, 2)
}

func TestRejectReport(t *testing.T) {
	ctx := context.Background()
	reports := newFakeReportRepo(
		&domain.Report{ID: "pending", UserID: "u1", Status: domain.ReportStatusPending},
		&domain.Report{ID: "done", UserID: "u1", Status: domain.ReportStatusVerified},
	)
	svc := newTestService(newFakeUserRepo(), reports, newFakeTicketRepo(), nil)

	report, err := svc.RejectReport(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusRejected, report.Status)

	// a verified report keeps its credit
	_, err = svc.RejectReport(ctx, "done")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestActivateTicket(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tickets := newFakeTicketRepo(&domain.Ticket{ID: "t1", UserID: "u1", Days: 5, Status: domain.TicketStatusAvailable})

	svc := NewRewardService(RewardDependencies{
		DB:         &fakeDB{},
		UserRepo:   newFakeUserRepo(),
		ReportRepo: newFakeReportRepo(),
		TicketRepo: tickets,
		Now:        func() time.Time { return day },
	})

	ticket, err := svc.ActivateTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, ticket.Status)
	require.NotNil(t, ticket.ActivatedDate)
	require.NotNil(t, ticket.ExpiryDate)
	assert.Equal(t, day, *ticket.ActivatedDate)
	assert.Equal(t, day.AddDate(0, 0, 5), *ticket.ExpiryDate)

	// second activation is a precondition failure, not a mutation
	_, err = svc.ActivateTicket(ctx, "t1")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestActivateTicketExclusive(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo(&domain.Ticket{ID: "t1", UserID: "u1", Days: 3, Status: domain.TicketStatusAvailable})
	svc := newTestService(newFakeUserRepo(), newFakeReportRepo(), tickets, nil)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ActivateTicket(ctx, "t1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestSweepExpiredTicketsIdempotent(t *testing.T) {
	ctx := context.Background()
	// The nightly job runs shortly past midnight; a ticket expiring
	// today must survive until the next run.
	asOf := time.Date(2026, 3, 20, 0, 5, 0, 0, time.UTC)
	today := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	old := today.AddDate(0, 0, -2)
	future := today.AddDate(0, 0, 2)

	tickets := newFakeTicketRepo(
		&domain.Ticket{ID: "t1", UserID: "u1", Days: 5, Status: domain.TicketStatusActive, ExpiryDate: &old},
		&domain.Ticket{ID: "t2", UserID: "u1", Days: 5, Status: domain.TicketStatusActive, ExpiryDate: &future},
		&domain.Ticket{ID: "t3", UserID: "u1", Days: 5, Status: domain.TicketStatusAvailable},
		&domain.Ticket{ID: "t4", UserID: "u1", Days: 5, Status: domain.TicketStatusActive, ExpiryDate: &today},
	)
	svc := newTestService(newFakeUserRepo(), newFakeReportRepo(), tickets, nil)

	count, err := svc.SweepExpiredTickets(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	expired, err := tickets.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusExpired, expired.Status)

	onBoundary, err := tickets.GetByID(ctx, "t4")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, onBoundary.Status)

	count, err = svc.SweepExpiredTickets(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The morning after its expiry date the ticket goes.
	count, err = svc.SweepExpiredTickets(ctx, asOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetProgress(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo(&domain.User{ID: "u1", CurrentLevel: 1, TotalVerifiedReports: 9})
	svc := newTestService(users, newFakeReportRepo(), newFakeTicketRepo(), nil)

	view, err := svc.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Snapshot.Level)
	assert.Equal(t, 9, view.Snapshot.Progress)
	assert.InDelta(t, 90.0, view.Snapshot.ProgressPercentage, 0.001)
	assert.Equal(t, 1, view.Snapshot.ReportsToNext)
}
