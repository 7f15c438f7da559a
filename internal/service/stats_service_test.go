package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

func TestLeaderboardOrdering(t *testing.T) {
	users := newFakeUserRepo(
		&domain.User{ID: "a", Email: "a@example.com", CurrentLevel: 2, TotalVerifiedReports: 15, Points: 15},
		&domain.User{ID: "b", Email: "b@example.com", CurrentLevel: 3, TotalVerifiedReports: 25, Points: 25},
		&domain.User{ID: "c", Email: "c@example.com", CurrentLevel: 2, TotalVerifiedReports: 20, Points: 20},
	)
	svc := NewStatsService(users, nil, zap.NewNop())

	entries, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].UserID)
	assert.Equal(t, "c", entries[1].UserID)
	assert.Equal(t, "a", entries[2].UserID)
}

func TestLeaderboardLimitClamped(t *testing.T) {
	users := newFakeUserRepo(
		&domain.User{ID: "a", Email: "a@example.com", CurrentLevel: 1},
		&domain.User{ID: "b", Email: "b@example.com", CurrentLevel: 2},
	)
	svc := NewStatsService(users, nil, zap.NewNop())

	entries, err := svc.Leaderboard(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].UserID)
}
