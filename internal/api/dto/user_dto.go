package dto

import (
	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/service"
)

// RegisterUserRequest payload.
type RegisterUserRequest struct {
	Email string `json:"email"`
}

// UserResponse exposes account and progression counters.
type UserResponse struct {
	ID                   string `json:"id"`
	Email                string `json:"email"`
	Points               int    `json:"points"`
	CurrentLevel         int    `json:"current_level"`
	TotalVerifiedReports int    `json:"total_verified_reports"`
}

// FromUser maps the domain aggregate to its response shape.
func FromUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:                   user.ID,
		Email:                user.Email,
		Points:               user.Points,
		CurrentLevel:         user.CurrentLevel,
		TotalVerifiedReports: user.TotalVerifiedReports,
	}
}

// ProgressResponse is the detailed progression view for one user.
type ProgressResponse struct {
	UserID               string  `json:"user_id"`
	CurrentLevel         int     `json:"current_level"`
	TotalVerifiedReports int     `json:"total_verified_reports"`
	ReportsForLevel      int     `json:"reports_for_current_level"`
	CurrentProgress      int     `json:"current_progress"`
	ProgressPercentage   float64 `json:"progress_percentage"`
	RewardDays           int     `json:"reward_days"`
	ReportsToNextTicket  int     `json:"reports_to_next_ticket"`
}

// FromProgress maps the progression snapshot to its response shape.
func FromProgress(view *service.ProgressView) ProgressResponse {
	return ProgressResponse{
		UserID:               view.UserID,
		CurrentLevel:         view.Snapshot.Level,
		TotalVerifiedReports: view.Snapshot.TotalVerified,
		ReportsForLevel:      view.Snapshot.ReportsForLevel,
		CurrentProgress:      view.Snapshot.Progress,
		ProgressPercentage:   view.Snapshot.ProgressPercentage,
		RewardDays:           view.Snapshot.RewardDays,
		ReportsToNextTicket:  view.Snapshot.ReportsToNext,
	}
}
