package conversation

import "time"

// Session captures one caller's conversational continuity unit.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
