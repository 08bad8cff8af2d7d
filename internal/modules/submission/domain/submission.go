package domain

import "time"

// Submission is an operator request to relay one post
type Submission struct {
	ID          string    `json:"id"`
	ChatID      int64     `json:"chat_id"`
	PostID      string    `json:"post_id"`
	RequestedAt time.Time `json:"requested_at"`
}
