package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/feed/domain"
	ledgerDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/domain"
	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/samber/lo"
)

// Ledger exposes the recently forwarded posts
type Ledger interface {
	Recent() []ledgerDomain.ForwardRecord
}

// PostCache returns post details when they are still cached
type PostCache interface {
	Peek(postID string) (*postDomain.Post, bool)
}

// Service builds an RSS/Atom feed of the posts relayed to the channel
type Service struct {
	info   domain.FeedInfo
	ledger Ledger
	posts  PostCache
}

// New creates a new feed service
func New(handle string, ledger Ledger, posts PostCache) *Service {
	return &Service{
		info: domain.FeedInfo{
			Title:       fmt.Sprintf("@%s relayed posts", handle),
			Description: fmt.Sprintf("Posts by @%s forwarded to Telegram", handle),
			Handle:      handle,
		},
		ledger: ledger,
		posts:  posts,
	}
}

// GenerateFeed builds the feed, newest post first
func (s *Service) GenerateFeed(baseURL string) *feeds.Feed {
	records := s.ledger.Recent()

	feed := &feeds.Feed{
		Title:       s.info.Title,
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/feed", baseURL)},
		Description: s.info.Description,
		Author:      &feeds.Author{Name: "@" + s.info.Handle},
		Created:     time.Now(),
	}
	if len(records) > 0 {
		feed.Updated = records[0].ForwardedAt
	}

	feed.Items = lo.Map(records, func(r ledgerDomain.ForwardRecord, _ int) *feeds.Item {
		return s.recordToFeedItem(r)
	})
	return feed
}

func (s *Service) recordToFeedItem(r ledgerDomain.ForwardRecord) *feeds.Item {
	p := &postDomain.Post{ID: r.PostID}
	if cached, ok := s.posts.Peek(r.PostID); ok {
		// copy so the cached post is never mutated
		post := *cached
		p = &post
	}
	if p.Author == "" {
		p.Author = s.info.Handle
	}

	title := truncate(p.Text, 100)
	if title == "" {
		title = fmt.Sprintf("Post %s", p.ID)
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(p.Text)))
	if len(p.Media) > 0 {
		content.WriteString("<p><strong>Media attachments:</strong></p><ul>")
		for _, m := range p.Media {
			content.WriteString(fmt.Sprintf("<li>%s: <a href=\"%s\">%s</a></li>", m.Type, html.EscapeString(m.DownloadURL()), html.EscapeString(m.DownloadURL())))
		}
		content.WriteString("</ul>")
	}

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: p.Link()},
		Description: p.Text,
		Content:     content.String(),
		Author:      &feeds.Author{Name: "@" + p.Author},
		Created:     lo.Ternary(p.CreatedAt.IsZero(), r.ForwardedAt, p.CreatedAt),
		Updated:     r.ForwardedAt,
		Id:          p.Link(),
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
