package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

// SituationalInput is the structured context a user submits with each turn.
type SituationalInput struct {
	Mode      string `json:"mode"`      // Work, Study, Gaming
	Mood      string `json:"mood"`      // Happy, Stressed, Tired, Energetic
	TimeOfDay string `json:"time_of_day"`
	Message   string `json:"message,omitempty"`
}

// ChatEntry is one turn of the conversation. Exactly one of UserInput and
// AIResponse is populated, selected by IsUser. Entries are immutable: they
// are created and hard-deleted, never updated.
type ChatEntry struct {
	ID         string            `json:"id"` // Using UUID for external ID
	UserID     int64             `json:"-"`
	Timestamp  time.Time         `json:"timestamp"`
	IsUser     bool              `json:"is_user"`
	UserInput  *SituationalInput `json:"user_input,omitempty"`
	AIResponse string            `json:"ai_response,omitempty"`
}
