package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadURL(t *testing.T) {
	photo := MediaAttachment{URL: "https://pbs.twimg.com/media/a.jpg", Type: MediaTypePhoto}
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg", photo.DownloadURL())

	video := MediaAttachment{
		URL:  "https://pbs.twimg.com/thumb.jpg",
		Type: MediaTypeVideo,
		Variants: []Variant{
			{URL: "https://video.twimg.com/low.mp4", ContentType: "video/mp4", BitRate: 256000},
			{URL: "https://video.twimg.com/pl.m3u8", ContentType: "application/x-mpegURL"},
			{URL: "https://video.twimg.com/high.mp4", ContentType: "video/mp4", BitRate: 2176000},
		},
	}
	assert.Equal(t, "https://video.twimg.com/high.mp4", video.DownloadURL())

	gif := MediaAttachment{
		URL:      "https://pbs.twimg.com/gif_thumb.jpg",
		Type:     MediaTypeAnimatedGif,
		Variants: []Variant{{URL: "https://video.twimg.com/gif.mp4", ContentType: "video/mp4"}},
	}
	assert.Equal(t, "https://video.twimg.com/gif.mp4", gif.DownloadURL())

	noVariants := MediaAttachment{URL: "https://pbs.twimg.com/thumb.jpg", Type: MediaTypeVideo}
	assert.Equal(t, "https://pbs.twimg.com/thumb.jpg", noVariants.DownloadURL())
}

func TestPostLink(t *testing.T) {
	p := &Post{ID: "1850000000000000000", Author: "jack"}
	assert.Equal(t, "https://x.com/jack/status/1850000000000000000", p.Link())

	p.Author = ""
	assert.Equal(t, "https://x.com/i/status/1850000000000000000", p.Link())
}

func TestParseMediaType(t *testing.T) {
	mt, err := ParseMediaType("Animated_GIF")
	assert.NoError(t, err)
	assert.Equal(t, MediaTypeAnimatedGif, mt)

	_, err = ParseMediaType("audio")
	assert.ErrorIs(t, err, ErrInvalidMediaType)
}
