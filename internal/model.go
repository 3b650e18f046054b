package internal

import "time"

// SleepEntry is one night of sleep as submitted by the client. Entries are
// append-only: once stored they are never updated.
type SleepEntry struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Bedtime         time.Time `json:"bedtime"`
	Waketime        time.Time `json:"waketime"`
	DurationMinutes int       `json:"duration_minutes"`
	RemMinutes      int       `json:"rem_minutes"`
	DeepMinutes     int       `json:"deep_minutes"`
	CoreMinutes     int       `json:"core_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}
