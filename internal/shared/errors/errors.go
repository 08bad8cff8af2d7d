package errors

import "errors"

var (
	ErrMissingBotToken      = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingBearerToken   = errors.New("TWITTER_BEARER_TOKEN environment variable is required")
	ErrMissingChannelID     = errors.New("TELEGRAM_CHANNEL_ID environment variable is required")
	ErrMissingAccountHandle = errors.New("TWITTER_USERNAME_TO_MONITOR environment variable is required")
	ErrUnauthorized         = errors.New("unauthorized user")

	// Relay pipeline taxonomy.
	ErrResolutionFailed = errors.New("account resolution failed")
	ErrFetchFailed      = errors.New("media fetch failed")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrRateLimited      = errors.New("rate limited by source api")
	ErrInvalidInput     = errors.New("invalid post url")
	ErrQueueFull        = errors.New("submission queue is full")
	ErrPostNotFound     = errors.New("post not found")
)
