package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	ledgerDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/domain"
	operatorService "github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/service"
	submissionDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/submission/domain"
	watchDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/watch/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/config"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/lo"
)

// Submitter queues operator post URLs
type Submitter interface {
	Submit(chatID int64, text string) (*submissionDomain.Submission, error)
	Len() int
	Capacity() int
}

// Watcher toggles watch mode
type Watcher interface {
	Toggle(chatID int64) watchDomain.State
	State() watchDomain.State
}

// History exposes recently forwarded posts
type History interface {
	Recent() []ledgerDomain.ForwardRecord
}

// Handler handles operator interactions with the bot
type Handler struct {
	cfg             *config.Config
	operatorService *operatorService.Service
	submitter       Submitter
	watcher         Watcher
	history         History
}

// New creates a new Telegram handler
func New(cfg *config.Config, operatorService *operatorService.Service, submitter Submitter, watcher Watcher, history History) *Handler {
	return &Handler{
		cfg:             cfg,
		operatorService: operatorService,
		submitter:       submitter,
		watcher:         watcher,
		history:         history,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/watchmode", bot.MatchTypeExact, h.handleWatchMode)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
}

// HandleUpdate treats any other text message as a post URL submission
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		h.send(ctx, b, msg.Chat.ID, "Unknown command. Send /help for the list of commands.")
		return
	}

	h.send(ctx, b, msg.Chat.ID, h.submit(msg.From.ID, msg.Chat.ID, msg.Text))
}

func (h *Handler) submit(userID, chatID int64, text string) string {
	if !h.operatorService.IsAuthorized(userID) {
		return "❌ Unauthorized"
	}

	sub, err := h.submitter.Submit(chatID, text)
	switch {
	case err == nil:
		slog.Info("Post submitted", "submission_id", sub.ID, "post_id", sub.PostID, "user_id", userID)
		return fmt.Sprintf("🔄 Processing Tweet ID: %s...", sub.PostID)
	case stderrors.Is(err, errors.ErrInvalidInput):
		return "❌ Invalid Twitter URL!"
	case stderrors.Is(err, errors.ErrQueueFull):
		return fmt.Sprintf("⏳ %d tweets are already waiting. Try again in a moment.", h.submitter.Capacity())
	default:
		slog.Error("Failed to submit post", "user_id", userID, "error", err)
		return fmt.Sprintf("❌ Failed to queue tweet: %v", err)
	}
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	from := update.Message.From

	if _, err := h.operatorService.Register(from.ID, from.Username); err != nil {
		if !stderrors.Is(err, errors.ErrUnauthorized) {
			slog.Error("Failed to register operator", "user_id", from.ID, "error", err)
		}
		h.send(ctx, b, chatID, "❌ You are not authorized to use this bot.")
		return
	}
	slog.Info("/start command used", "user_id", from.ID)

	h.send(ctx, b, chatID, h.helpText())
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, h.helpText())
}

func (h *Handler) helpText() string {
	return fmt.Sprintf(`📌 Send me a valid tweet URL, and I will forward it to the channel.

Watch mode forwards new posts by @%s automatically.

Available commands:
/help - Show this help message
/watchmode - Toggle watch mode
/status - Show relay status`, h.cfg.TwitterUsername)
}

func (h *Handler) handleWatchMode(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if !h.operatorService.IsAuthorized(update.Message.From.ID) {
		h.send(ctx, b, chatID, "❌ Unauthorized")
		return
	}

	h.send(ctx, b, chatID, h.toggleWatch(chatID))
}

func (h *Handler) toggleWatch(chatID int64) string {
	state := h.watcher.Toggle(chatID)
	status := lo.Ternary(state.Enabled, "enabled ✅", "disabled ❌")
	return fmt.Sprintf("🔄 Watch mode is now %s.", status)
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if !h.operatorService.IsAuthorized(update.Message.From.ID) {
		h.send(ctx, b, chatID, "❌ Unauthorized")
		return
	}

	h.send(ctx, b, chatID, h.statusText())
}

func (h *Handler) statusText() string {
	state := h.watcher.State()

	lastPoll := "never"
	if !state.LastPollAt.IsZero() {
		lastPoll = state.LastPollAt.Format(time.RFC3339)
	}

	recent := lo.Map(h.history.Recent(), func(r ledgerDomain.ForwardRecord, _ int) string {
		return r.PostID
	})
	forwarded := "none"
	if len(recent) > 0 {
		forwarded = strings.Join(recent, ", ")
	}

	text := fmt.Sprintf(`📊 Relay Status:

Account: @%s
Watch mode: %s
Poll interval: %d seconds
Last poll: %s
Queue: %d/%d
Recently forwarded: %s`,
		h.cfg.TwitterUsername,
		lo.Ternary(state.Enabled, "enabled ✅", "disabled ❌"),
		h.cfg.PollInterval,
		lastPoll,
		h.submitter.Len(), h.submitter.Capacity(),
		forwarded)

	if operators, err := h.operatorService.GetAllOperators(); err == nil {
		text += fmt.Sprintf("\nOperators: %d", len(operators))
	}
	if admin, err := h.operatorService.Admin(); err == nil {
		text += "\nAdmin: @" + admin.Username
	}
	if state.LastError != "" {
		text += "\nLast error: " + state.LastError
	}
	return text
}

func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}
