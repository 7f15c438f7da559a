package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/repository"
)

const (
	leaderboardCacheKey = "stats:leaderboard"
	leaderboardCacheTTL = 30 * time.Second
)

// LeaderboardEntry is one row of the public ranking.
type LeaderboardEntry struct {
	UserID               string `json:"user_id"`
	Email                string `json:"email"`
	CurrentLevel         int    `json:"current_level"`
	TotalVerifiedReports int    `json:"total_verified_reports"`
	Points               int    `json:"points"`
}

// StatsService serves the leaderboard with a short-lived Redis cache
// in front of Postgres. Leaderboard reads tolerate staleness; a cache
// miss or Redis outage falls through to the database.
type StatsService struct {
	users  repository.UserRepository
	cache  *redis.Client
	logger *zap.Logger
}

// NewStatsService constructs the service. cache may be nil.
func NewStatsService(users repository.UserRepository, cache *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{users: users, cache: cache, logger: logger}
}

// Leaderboard returns the top users ordered by level then verified
// report count.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if cached := s.fromCache(ctx, limit); cached != nil {
		return cached, nil
	}

	users, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, leaderboardEntry(u))
	}
	s.toCache(ctx, limit, entries)
	return entries, nil
}

func (s *StatsService) fromCache(ctx context.Context, limit int) []LeaderboardEntry {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(limit)).Bytes()
	if err != nil {
		return nil
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

func (s *StatsService) toCache(ctx context.Context, limit int, entries []LeaderboardEntry) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(limit), raw, leaderboardCacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Debug("leaderboard cache write failed", zap.Error(err))
	}
}

func cacheKey(limit int) string {
	return leaderboardCacheKey + ":" + strconv.Itoa(limit)
}

func leaderboardEntry(u domain.User) LeaderboardEntry {
	return LeaderboardEntry{
		UserID:               u.ID,
		Email:                u.Email,
		CurrentLevel:         u.CurrentLevel,
		TotalVerifiedReports: u.TotalVerifiedReports,
		Points:               u.Points,
	}
}
