package domain

import (
	"time"

	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
)

// Upload is a file sent as multipart content
type Upload struct {
	Filename string
	Data     []byte
}

// GroupItem is one entry of a media group. Only the first item of a group
// carries a caption.
type GroupItem struct {
	Type    postDomain.MediaType
	Upload  Upload
	Caption string
}

// SendResult describes what was delivered for a post
type SendResult struct {
	Kind       SendKind
	MessageIDs []int
	// MediaFailed counts attachments dropped because their download failed.
	MediaFailed int
	SentAt      time.Time
}
