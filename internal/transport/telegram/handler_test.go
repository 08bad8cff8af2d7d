package telegram

import (
	"testing"
	"time"

	ledgerDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/domain"
	operatorRepo "github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/repository"
	operatorService "github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/service"
	submissionDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/submission/domain"
	submissionService "github.com/reshetovitsme/x-telegram-relay/internal/modules/submission/service"
	watchDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/watch/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/config"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	err     error
	pending int
}

func (s *fakeSubmitter) Submit(chatID int64, text string) (*submissionDomain.Submission, error) {
	postID, err := submissionService.ExtractPostID(text)
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	s.pending++
	return &submissionDomain.Submission{ID: "sub-1", ChatID: chatID, PostID: postID}, nil
}

func (s *fakeSubmitter) Len() int      { return s.pending }
func (s *fakeSubmitter) Capacity() int { return 5 }

type fakeWatcher struct {
	state watchDomain.State
}

func (w *fakeWatcher) Toggle(chatID int64) watchDomain.State {
	w.state.Enabled = !w.state.Enabled
	w.state.ChatID = chatID
	return w.state
}

func (w *fakeWatcher) State() watchDomain.State { return w.state }

type fakeHistory []ledgerDomain.ForwardRecord

func (h fakeHistory) Recent() []ledgerDomain.ForwardRecord { return h }

func newTestHandler(t *testing.T, allowed []int64) (*Handler, *fakeSubmitter, *fakeWatcher) {
	t.Helper()
	repo, err := operatorRepo.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{TwitterUsername: "jack", PollInterval: 1200}
	submitter := &fakeSubmitter{}
	watcher := &fakeWatcher{}
	history := fakeHistory{{PostID: "8", ForwardedAt: time.Now()}, {PostID: "7", ForwardedAt: time.Now()}}

	return New(cfg, operatorService.New(repo, allowed), submitter, watcher, history), submitter, watcher
}

func TestSubmitReplies(t *testing.T) {
	h, submitter, _ := newTestHandler(t, []int64{1})

	assert.Equal(t, "❌ Unauthorized", h.submit(2, 2, "https://x.com/jack/status/5"))
	assert.Equal(t, "❌ Invalid Twitter URL!", h.submit(1, 1, "hello"))
	assert.Equal(t, "🔄 Processing Tweet ID: 5...", h.submit(1, 1, "https://x.com/jack/status/5"))

	submitter.err = oops.Wrap(errors.ErrQueueFull)
	assert.Contains(t, h.submit(1, 1, "https://x.com/jack/status/6"), "Try again")
}

func TestToggleWatchReplies(t *testing.T) {
	h, _, watcher := newTestHandler(t, nil)

	assert.Equal(t, "🔄 Watch mode is now enabled ✅.", h.toggleWatch(3))
	assert.Equal(t, int64(3), watcher.state.ChatID)
	assert.Equal(t, "🔄 Watch mode is now disabled ❌.", h.toggleWatch(3))
}

func TestStatusText(t *testing.T) {
	h, _, watcher := newTestHandler(t, nil)
	watcher.state = watchDomain.State{Enabled: true, LastError: "rate limited"}

	text := h.statusText()
	assert.Contains(t, text, "@jack")
	assert.Contains(t, text, "enabled ✅")
	assert.Contains(t, text, "Poll interval: 1200 seconds")
	assert.Contains(t, text, "Last poll: never")
	assert.Contains(t, text, "Queue: 0/5")
	assert.Contains(t, text, "Recently forwarded: 8, 7")
	assert.Contains(t, text, "Operators: 0")
	assert.Contains(t, text, "Last error: rate limited")
}

func TestHelpTextMentionsAccount(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)
	assert.Contains(t, h.helpText(), "@jack")
	assert.Contains(t, h.helpText(), "/watchmode")
}

func TestStatusTextShowsAdmin(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	_, err := h.operatorService.Register(4, "alice")
	require.NoError(t, err)

	text := h.statusText()
	assert.Contains(t, text, "Operators: 1")
	assert.Contains(t, text, "Admin: @alice")
}
