package domain

import (
	"fmt"
	"time"
)

// Post is a single unit of content published by the monitored account
type Post struct {
	ID               string            `json:"id"`
	Author           string            `json:"author"`
	Text             string            `json:"text"`
	CreatedAt        time.Time         `json:"created_at"`
	Media            []MediaAttachment `json:"media"`
	IsReplyOrRetweet bool              `json:"is_reply_or_retweet"`
}

// Link returns the public URL of the post. Without a known author it uses
// the handle-less /i/status form, which x.com redirects.
func (p *Post) Link() string {
	author := p.Author
	if author == "" {
		author = "i"
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", author, p.ID)
}

// MediaAttachment describes one attached media item in source order
type MediaAttachment struct {
	URL      string    `json:"url"`
	Type     MediaType `json:"type"`
	Variants []Variant `json:"variants,omitempty"`
}

// Variant is an alternate encoding of a video or animated gif
type Variant struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	BitRate     int    `json:"bit_rate,omitempty"`
}

// IsVideo reports whether the attachment is delivered as a video.
func (m MediaAttachment) IsVideo() bool {
	return m.Type == MediaTypeVideo || m.Type == MediaTypeAnimatedGif
}

// DownloadURL picks the URL to fetch. Videos and gifs use the
// highest-bitrate mp4 variant and fall back to URL when none exists.
func (m MediaAttachment) DownloadURL() string {
	if !m.IsVideo() {
		return m.URL
	}

	best := -1
	url := m.URL
	for _, v := range m.Variants {
		if v.ContentType != "video/mp4" || v.URL == "" {
			continue
		}
		if v.BitRate > best {
			best = v.BitRate
			url = v.URL
		}
	}
	return url
}
