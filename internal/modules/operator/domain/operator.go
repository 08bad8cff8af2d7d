package domain

import "time"

// Operator is a Telegram user allowed to submit posts and toggle watch mode
type Operator struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	AddedAt  time.Time `json:"added_at"`
	IsAdmin  bool      `json:"is_admin"`
}
