package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// TicketRepository encapsulates reward-ticket persistence.
type TicketRepository interface {
	// Create inserts a freshly earned ticket. Takes the caller's
	// transaction so issuance commits together with the level write.
	Create(ctx context.Context, tx DBTX, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	// Activate stamps activation and expiry dates on an available
	// ticket. The bool is false when the ticket exists but is not
	// available; the row-level conditional update makes concurrent
	// activations first-committer-wins.
	Activate(ctx context.Context, id string, day time.Time) (*domain.Ticket, bool, error)
	// ExpireActive flips every active ticket whose expiry date is
	// before asOf. Returns the number of rows mutated.
	ExpireActive(ctx context.Context, asOf time.Time) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, user_id, days, earned_level, earned_date, activated_date, expiry_date, status, created_at`

func (r *ticketRepository) Create(ctx context.Context, tx DBTX, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, days, earned_level, status)
        VALUES ($1,$2,$3,'available')
        RETURNING id, earned_date, status, created_at`

	return tx.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Days,
		ticket.EarnedLevel,
	).Scan(&ticket.ID, &ticket.EarnedDate, &ticket.Status, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicketRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE user_id=$1
        ORDER BY earned_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.Days,
			&ticket.EarnedLevel,
			&ticket.EarnedDate,
			&ticket.ActivatedDate,
			&ticket.ExpiryDate,
			&ticket.Status,
			&ticket.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Activate(ctx context.Context, id string, day time.Time) (*domain.Ticket, bool, error) {
	const query = `
        UPDATE tickets SET status='active', activated_date=$2, expiry_date=$2::date + days
        WHERE id=$1 AND status='available'
        RETURNING ` + ticketColumns

	ticket, err := scanTicketRow(r.pool.QueryRow(ctx, query, id, day))
	if err == nil {
		return ticket, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Lost the race or the ticket is past activation; report which.
	ticket, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return ticket, false, nil
}

func (r *ticketRepository) ExpireActive(ctx context.Context, asOf time.Time) (int64, error) {
	// expiry_date is a DATE; cast the parameter so a ticket stays
	// usable through its expiry date instead of expiring at midnight.
	const query = `
        UPDATE tickets SET status='expired'
        WHERE status='active' AND expiry_date < $1::date`

	cmd, err := r.pool.Exec(ctx, query, asOf)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Days,
		&ticket.EarnedLevel,
		&ticket.EarnedDate,
		&ticket.ActivatedDate,
		&ticket.ExpiryDate,
		&ticket.Status,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
