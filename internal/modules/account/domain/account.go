package domain

import "time"

// Account is the cached identity of the monitored handle
type Account struct {
	Handle     string    `json:"handle"`
	ID         string    `json:"user_id"`
	ResolvedAt time.Time `json:"resolved_at"`
}
