package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	forwardDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/forward/domain"
	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Client is the part of the Bot API used to deliver messages. *bot.Bot implements it.
type Client interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	SendMediaGroup(ctx context.Context, params *bot.SendMediaGroupParams) ([]*models.Message, error)
}

var _ Client = (*bot.Bot)(nil)

// ChannelSender posts rendered content to the destination channel
type ChannelSender struct {
	client Client
	chatID any
}

// NewChannelSender creates a sender for channelID, either a numeric chat id
// or an @username
func NewChannelSender(client Client, channelID string) *ChannelSender {
	return &ChannelSender{
		client: client,
		chatID: ParseChatID(channelID),
	}
}

// ParseChatID returns numeric ids as int64 and anything else as is.
func ParseChatID(channelID string) any {
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		return id
	}
	return channelID
}

func (s *ChannelSender) SendText(ctx context.Context, text string) (int, error) {
	msg, err := s.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, oops.With("chat_id", s.chatID, "context", "failed to send message").Wrap(err)
	}
	return msg.ID, nil
}

func (s *ChannelSender) SendPhoto(ctx context.Context, photo forwardDomain.Upload, caption string) (int, error) {
	msg, err := s.client.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    s.chatID,
		Photo:     &models.InputFileUpload{Filename: photo.Filename, Data: bytes.NewReader(photo.Data)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, oops.With("chat_id", s.chatID, "filename", photo.Filename, "context", "failed to send photo").Wrap(err)
	}
	return msg.ID, nil
}

func (s *ChannelSender) SendVideo(ctx context.Context, video forwardDomain.Upload, caption string) (int, error) {
	msg, err := s.client.SendVideo(ctx, &bot.SendVideoParams{
		ChatID:            s.chatID,
		Video:             &models.InputFileUpload{Filename: video.Filename, Data: bytes.NewReader(video.Data)},
		Caption:           caption,
		ParseMode:         models.ParseModeHTML,
		SupportsStreaming: true,
	})
	if err != nil {
		return 0, oops.With("chat_id", s.chatID, "filename", video.Filename, "context", "failed to send video").Wrap(err)
	}
	return msg.ID, nil
}

func (s *ChannelSender) SendMediaGroup(ctx context.Context, items []forwardDomain.GroupItem) ([]int, error) {
	used := make(map[string]bool, len(items))
	media := lo.Map(items, func(item forwardDomain.GroupItem, i int) models.InputMedia {
		// The attach name is the uploaded filename and must be unique within the request.
		name := item.Upload.Filename
		if name == "" || used[name] {
			name = fmt.Sprintf("%d_%s", i, lo.Ternary(name == "", "file", name))
		}
		used[name] = true
		attach := "attach://" + name
		data := bytes.NewReader(item.Upload.Data)

		if item.Type == postDomain.MediaTypeVideo {
			return &models.InputMediaVideo{
				Media:             attach,
				Caption:           item.Caption,
				ParseMode:         models.ParseModeHTML,
				MediaAttachment:   data,
				SupportsStreaming: true,
			}
		}
		return &models.InputMediaPhoto{
			Media:           attach,
			Caption:         item.Caption,
			ParseMode:       models.ParseModeHTML,
			MediaAttachment: data,
		}
	})

	msgs, err := s.client.SendMediaGroup(ctx, &bot.SendMediaGroupParams{
		ChatID: s.chatID,
		Media:  media,
	})
	if err != nil {
		return nil, oops.With("chat_id", s.chatID, "items", len(items), "context", "failed to send media group").Wrap(err)
	}

	return lo.Map(msgs, func(m *models.Message, _ int) int { return m.ID }), nil
}

// Replier answers operators in their private chat
type Replier struct {
	client Client
}

// NewReplier creates a new operator replier
func NewReplier(client Client) *Replier {
	return &Replier{client: client}
}

func (r *Replier) Reply(ctx context.Context, chatID int64, text string) error {
	_, err := r.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to reply").Wrap(err)
	}
	return nil
}
