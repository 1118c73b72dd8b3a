package domain

import "time"

// DailyLink is the current public verification link, refreshed by the daily
// link job and read by the redirect handler.
type DailyLink struct {
	CurrentLink string    `json:"current_link"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DailyLinkResponse struct {
	Link      string    `json:"link"`
	UpdatedAt time.Time `json:"updated_at"`
}
