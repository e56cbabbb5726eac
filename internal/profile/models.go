package profile

import "time"

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Stats     Stats     `json:"stats"`
}

// Stats summarizes a driver's stored analyses for the profile page.
type Stats struct {
	Analyses       int     `json:"analyses"`
	BestLapSeconds float64 `json:"best_lap_seconds"`
	TopSpeed       float64 `json:"top_speed"`
}

type UpdateRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}
