package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// ReportRepository encapsulates delay-report persistence.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	ListByUser(ctx context.Context, userID string, status *domain.ReportStatus) ([]domain.Report, error)
	ListPending(ctx context.Context, limit int) ([]domain.Report, error)
	// MarkVerified flips the report to verified unless it already is.
	// The returned bool is true only when this call performed the
	// transition; a second invocation for the same report is a no-op.
	// Runs on the caller's transaction so the credit commits or rolls
	// back together with the status write.
	MarkVerified(ctx context.Context, tx DBTX, id string) (*domain.Report, bool, error)
	// MarkRejected flips a non-verified report to rejected. Verified
	// reports stay verified; their credit is permanent.
	MarkRejected(ctx context.Context, id string) (*domain.Report, bool, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const reportColumns = `id, user_id, route_id, station_id, delay_minutes, bus_number, issue, status, reported_time, verified_at`

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	const query = `
        INSERT INTO reports (user_id, route_id, station_id, delay_minutes, bus_number, issue, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, reported_time`

	if report.Status == "" {
		report.Status = domain.ReportStatusPending
	}
	return r.pool.QueryRow(ctx, query,
		report.UserID,
		report.RouteID,
		report.StationID,
		report.DelayMinutes,
		report.BusNumber,
		report.Issue,
		report.Status,
	).Scan(&report.ID, &report.ReportedTime)
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	const query = `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	return scanReportRow(r.pool.QueryRow(ctx, query, id))
}

func (r *reportRepository) ListByUser(ctx context.Context, userID string, status *domain.ReportStatus) ([]domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE user_id=$1`
	args := []any{userID}
	if status != nil {
		args = append(args, *status)
		query += ` AND status=$2`
	}
	query += ` ORDER BY reported_time DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *reportRepository) ListPending(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT ` + reportColumns + `
        FROM reports WHERE status='pending'
        ORDER BY reported_time ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *reportRepository) MarkVerified(ctx context.Context, tx DBTX, id string) (*domain.Report, bool, error) {
	const query = `
        UPDATE reports SET status='verified', verified_at=NOW()
        WHERE id=$1 AND status <> 'verified'
        RETURNING ` + reportColumns

	report, err := scanReportRow(tx.QueryRow(ctx, query, id))
	if err == nil {
		return report, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Either the report does not exist or it was already verified.
	const fallback = `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	report, err = scanReportRow(tx.QueryRow(ctx, fallback, id))
	if err != nil {
		return nil, false, err
	}
	return report, false, nil
}

func (r *reportRepository) MarkRejected(ctx context.Context, id string) (*domain.Report, bool, error) {
	const query = `
        UPDATE reports SET status='rejected'
        WHERE id=$1 AND status <> 'verified'
        RETURNING ` + reportColumns

	report, err := scanReportRow(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return report, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	const fallback = `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	report, err = scanReportRow(r.pool.QueryRow(ctx, fallback, id))
	if err != nil {
		return nil, false, err
	}
	return report, false, nil
}

func scanReportRow(row pgx.Row) (*domain.Report, error) {
	var report domain.Report
	if err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.RouteID,
		&report.StationID,
		&report.DelayMinutes,
		&report.BusNumber,
		&report.Issue,
		&report.Status,
		&report.ReportedTime,
		&report.VerifiedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

func scanReports(rows pgx.Rows) ([]domain.Report, error) {
	var result []domain.Report
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(
			&report.ID,
			&report.UserID,
			&report.RouteID,
			&report.StationID,
			&report.DelayMinutes,
			&report.BusNumber,
			&report.Issue,
			&report.Status,
			&report.ReportedTime,
			&report.VerifiedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
