package domain

// FeedInfo describes the feed of forwarded posts
type FeedInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Handle      string `json:"handle"`
}
