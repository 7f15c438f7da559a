package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// RouteRepository reads published bus schedules. Routes are seeded by
// the transit data import and are never written by this service.
type RouteRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Route, error)
}

type routeRepository struct {
	pool *pgxpool.Pool
}

// NewRouteRepository instantiates repository.
func NewRouteRepository(pool *pgxpool.Pool) RouteRepository {
	return &routeRepository{pool: pool}
}

func (r *routeRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	const query = `SELECT id, name, stations FROM routes WHERE id=$1`

	var route domain.Route
	var stations []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&route.ID, &route.Name, &stations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stations, &route.Stations); err != nil {
		return nil, err
	}
	return &route, nil
}
