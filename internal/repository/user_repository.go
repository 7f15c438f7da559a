package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// UserRepository defines persistence access for commuters and their
// progression counters.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// LockForCredit loads the user's row under FOR UPDATE so that
	// concurrent credits for the same user serialize. Must be called
	// on an open transaction.
	LockForCredit(ctx context.Context, tx DBTX, id string) (*domain.User, error)
	// SaveProgress persists the counters mutated by a credit. Runs on
	// the same transaction that holds the row lock.
	SaveProgress(ctx context.Context, tx DBTX, user *domain.User) error
	Leaderboard(ctx context.Context, limit int) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, points, current_level, total_verified_reports, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, points, current_level, total_verified_reports)
        VALUES ($1, 0, 1, 0)
        RETURNING id, points, current_level, total_verified_reports, created_at, updated_at`

	return r.pool.QueryRow(ctx, query, user.Email).Scan(
		&user.ID,
		&user.Points,
		&user.CurrentLevel,
		&user.TotalVerifiedReports,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) LockForCredit(ctx context.Context, tx DBTX, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1 FOR UPDATE`
	return scanUser(tx.QueryRow(ctx, query, id))
}

func (r *userRepository) SaveProgress(ctx context.Context, tx DBTX, user *domain.User) error {
	const query = `
        UPDATE users SET points=$1, current_level=$2, total_verified_reports=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := tx.Exec(ctx, query,
		user.Points,
		user.CurrentLevel,
		user.TotalVerifiedReports,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT ` + userColumns + `
        FROM users
        ORDER BY current_level DESC, total_verified_reports DESC
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Points,
			&user.CurrentLevel,
			&user.TotalVerifiedReports,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Points,
		&user.CurrentLevel,
		&user.TotalVerifiedReports,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
