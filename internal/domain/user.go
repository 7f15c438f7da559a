package domain

import "time"

// User is the domain model for commuters who submit delay reports.
// TotalVerifiedReports only ever grows; the reward engine keeps
// CurrentLevel equal to the level derived from it after every credit.
type User struct {
	ID                   string
	Email                string
	Points               int
	CurrentLevel         int
	TotalVerifiedReports int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
