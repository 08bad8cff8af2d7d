package domain

import "time"

// ForwardRecord marks a post as forwarded
type ForwardRecord struct {
	PostID      string    `json:"post_id"`
	ForwardedAt time.Time `json:"forwarded_at"`
}
