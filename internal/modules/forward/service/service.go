package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/forward/domain"
	mediaDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/media/domain"
	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// Telegram limits.
const (
	TextLimit     = 4096
	CaptionLimit  = 1024
	MaxGroupItems = 10
)

const (
	fetchParallel  = 4
	linkLabel      = "View on X"
	truncateSuffix = "…"
)

// Sender delivers rendered posts to the destination channel
type Sender interface {
	SendText(ctx context.Context, text string) (int, error)
	SendPhoto(ctx context.Context, photo domain.Upload, caption string) (int, error)
	SendVideo(ctx context.Context, video domain.Upload, caption string) (int, error)
	SendMediaGroup(ctx context.Context, items []domain.GroupItem) ([]int, error)
}

// Fetcher downloads attachment payloads
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*mediaDomain.Media, error)
}

// Service renders posts into at most one outbound message (or one media
// group) and hands it to the Sender.
type Service struct {
	sender  Sender
	fetcher Fetcher
	now     func() time.Time
}

// New creates a post renderer
func New(sender Sender, fetcher Fetcher) *Service {
	return &Service{
		sender:  sender,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// RenderAndSend delivers p. Media download failures degrade to fewer
// attachments or a text message; send failures are returned wrapped in
// ErrDeliveryFailed and are not retried.
func (s *Service) RenderAndSend(ctx context.Context, p *postDomain.Post) (*domain.SendResult, error) {
	switch {
	case len(p.Media) == 0:
		return s.sendText(ctx, p, 0)
	case len(p.Media) == 1 && p.Media[0].Type == postDomain.MediaTypePhoto:
		return s.sendSinglePhoto(ctx, p)
	default:
		return s.sendGroup(ctx, p)
	}
}

func (s *Service) sendText(ctx context.Context, p *postDomain.Post, mediaFailed int) (*domain.SendResult, error) {
	id, err := s.sender.SendText(ctx, Caption(p, TextLimit))
	if err != nil {
		return nil, deliveryError(p, domain.SendKindText, err)
	}
	return s.result(domain.SendKindText, mediaFailed, id), nil
}

func (s *Service) sendSinglePhoto(ctx context.Context, p *postDomain.Post) (*domain.SendResult, error) {
	m, err := s.fetcher.Fetch(ctx, p.Media[0].DownloadURL())
	if err != nil {
		slog.Warn("Photo download failed, sending text only", "post_id", p.ID, "error", err)
		return s.sendText(ctx, p, 1)
	}

	id, err := s.sender.SendPhoto(ctx, upload(p, 0, m), Caption(p, CaptionLimit))
	if err != nil {
		return nil, deliveryError(p, domain.SendKindPhoto, err)
	}
	return s.result(domain.SendKindPhoto, 0, id), nil
}

type fetched struct {
	attachment postDomain.MediaAttachment
	media      *mediaDomain.Media
	index      int
}

func (s *Service) sendGroup(ctx context.Context, p *postDomain.Post) (*domain.SendResult, error) {
	attachments := p.Media
	if len(attachments) > MaxGroupItems {
		slog.Warn("Post has more attachments than a media group holds", "post_id", p.ID, "count", len(attachments))
		attachments = attachments[:MaxGroupItems]
	}

	// Fetches run concurrently; results keep the source order.
	results := make([]*mediaDomain.Media, len(attachments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallel)
	for i, a := range attachments {
		g.Go(func() error {
			m, err := s.fetcher.Fetch(gctx, a.DownloadURL())
			if err != nil {
				slog.Warn("Media download failed", "post_id", p.ID, "index", i, "type", a.Type, "error", err)
				return nil
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	ok := lo.FilterMap(results, func(m *mediaDomain.Media, i int) (fetched, bool) {
		return fetched{attachment: attachments[i], media: m, index: i}, m != nil
	})
	failed := len(p.Media) - len(ok)

	switch len(ok) {
	case 0:
		return s.sendText(ctx, p, failed)
	case 1:
		// A media group needs at least two items.
		return s.sendSingle(ctx, p, ok[0], failed)
	}

	caption := Caption(p, CaptionLimit)
	items := lo.Map(ok, func(f fetched, i int) domain.GroupItem {
		return domain.GroupItem{
			Type:    groupType(f.attachment),
			Upload:  upload(p, f.index, f.media),
			Caption: lo.Ternary(i == 0, caption, ""),
		}
	})

	ids, err := s.sender.SendMediaGroup(ctx, items)
	if err != nil {
		return nil, deliveryError(p, domain.SendKindMediaGroup, err)
	}
	return s.result(domain.SendKindMediaGroup, failed, ids...), nil
}

func (s *Service) sendSingle(ctx context.Context, p *postDomain.Post, f fetched, failed int) (*domain.SendResult, error) {
	caption := Caption(p, CaptionLimit)
	if f.attachment.IsVideo() {
		id, err := s.sender.SendVideo(ctx, upload(p, f.index, f.media), caption)
		if err != nil {
			return nil, deliveryError(p, domain.SendKindVideo, err)
		}
		return s.result(domain.SendKindVideo, failed, id), nil
	}

	id, err := s.sender.SendPhoto(ctx, upload(p, f.index, f.media), caption)
	if err != nil {
		return nil, deliveryError(p, domain.SendKindPhoto, err)
	}
	return s.result(domain.SendKindPhoto, failed, id), nil
}

func (s *Service) result(kind domain.SendKind, mediaFailed int, ids ...int) *domain.SendResult {
	return &domain.SendResult{
		Kind:        kind,
		MessageIDs:  ids,
		MediaFailed: mediaFailed,
		SentAt:      s.now(),
	}
}

// Caption renders the post body followed by a link to the source. The body
// is HTML-escaped and truncated so the whole text fits limit visible
// characters with the link kept intact.
func Caption(p *postDomain.Post, limit int) string {
	link := fmt.Sprintf("<a href='%s'>%s</a>", p.Link(), linkLabel)
	body := strings.TrimSpace(p.Text)
	if body == "" {
		return link
	}

	budget := limit - utf8.RuneCountInString("\n\n"+linkLabel)
	if utf8.RuneCountInString(body) > budget {
		runes := []rune(body)
		body = strings.TrimSpace(string(runes[:max(budget-utf8.RuneCountInString(truncateSuffix), 0)])) + truncateSuffix
	}

	return html.EscapeString(body) + "\n\n" + link
}

func upload(p *postDomain.Post, index int, m *mediaDomain.Media) domain.Upload {
	return domain.Upload{
		Filename: m.Filename(fmt.Sprintf("%s_%d", p.ID, index+1)),
		Data:     m.Data,
	}
}

// groupType maps animated gifs onto video, the only moving format a group accepts.
func groupType(a postDomain.MediaAttachment) postDomain.MediaType {
	if a.IsVideo() {
		return postDomain.MediaTypeVideo
	}
	return postDomain.MediaTypePhoto
}

func deliveryError(p *postDomain.Post, kind domain.SendKind, err error) error {
	return oops.
		In("forward").
		Code("delivery_failed").
		With("post_id", p.ID, "kind", kind).
		Wrap(fmt.Errorf("%w: %w", errors.ErrDeliveryFailed, err))
}
