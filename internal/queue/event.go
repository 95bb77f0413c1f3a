// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// BookingConfirmedEvent is published after a booking's confirmation
// transaction commits.  It carries the fully formed booking record so the
// notification collaborator can send the confirmation email without
// querying the primary database.
type BookingConfirmedEvent struct {
	Reference    string         `json:"reference"`
	Status       string         `json:"status"`
	ExperienceID uint64         `json:"experience_id"`
	StartDate    string         `json:"start_date"`
	StartTime    string         `json:"start_time"`
	EndDate      string         `json:"end_date"`
	EndTime      string         `json:"end_time"`
	Adults       int            `json:"adults"`
	Children     int            `json:"children"`
	Resources    map[string]int `json:"resources,omitempty"`
	TotalCents   int64          `json:"total_cents"`
	ConfirmedAt  string         `json:"confirmed_at"`
}
