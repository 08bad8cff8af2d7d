package domain

import "time"

// State is the watch mode flag plus what the poller last did
type State struct {
	Enabled    bool      `json:"enabled"`
	ChatID     int64     `json:"chat_id"`
	ToggledAt  time.Time `json:"toggled_at"`
	LastPollAt time.Time `json:"last_poll_at"`
	LastPostID string    `json:"last_post_id,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}
