package service

import (
	"context"
	"sync"
	"testing"
	"time"

	forwardDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/forward/domain"
	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	errs map[string]error
}

func (f *fakePosts) GetPost(_ context.Context, postID string) (*postDomain.Post, error) {
	if err, ok := f.errs[postID]; ok {
		return nil, err
	}
	if postID == "666" {
		panic("malformed post")
	}
	return &postDomain.Post{ID: postID, Author: "jack", Text: "post " + postID}, nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	rendered []string
	err      error
}

func (r *fakeRenderer) RenderAndSend(_ context.Context, p *postDomain.Post) (*forwardDomain.SendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, p.ID)
	if r.err != nil {
		return nil, r.err
	}
	return &forwardDomain.SendResult{Kind: forwardDomain.SendKindText, MessageIDs: []int{1}}, nil
}

func (r *fakeRenderer) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.rendered...)
}

type fakeLedger struct {
	mu       sync.Mutex
	recorded []string
}

func (l *fakeLedger) Record(postID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorded = append(l.recorded, postID)
}

type reply struct {
	chatID int64
	text   string
}

type fakeReplier struct {
	mu      sync.Mutex
	replies []reply
}

func (r *fakeReplier) Reply(_ context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{chatID, text})
	return nil
}

func (r *fakeReplier) all() []reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reply(nil), r.replies...)
}

func newTestService(capacity int, posts *fakePosts) (*Service, *fakeRenderer, *fakeLedger, *fakeReplier) {
	renderer := &fakeRenderer{}
	ledger := &fakeLedger{}
	replier := &fakeReplier{}
	svc := New(capacity, posts, renderer, ledger, time.Second)
	svc.SetReplier(replier)
	return svc, renderer, ledger, replier
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"https://twitter.com/jack/status/20", "20"},
		{"look https://x.com/jack/status/1850000000000000000?s=20 nice", "1850000000000000000"},
		{"https://www.x.com/some_user/status/42/photo/1", "42"},
	}
	for _, tt := range tests {
		got, err := ExtractPostID(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got)
	}

	for _, text := range []string{"", "hello", "https://x.com/jack", "http://x.com/jack/status/1", "https://example.com/jack/status/1"} {
		_, err := ExtractPostID(text)
		assert.ErrorIs(t, err, errors.ErrInvalidInput, text)
	}
}

func TestSubmitInvalidLeavesQueueUntouched(t *testing.T) {
	svc, _, _, _ := newTestService(5, &fakePosts{})

	_, err := svc.Submit(1, "not a link")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Zero(t, svc.Len())
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	svc, _, _, _ := newTestService(2, &fakePosts{})

	_, err := svc.Submit(1, "https://x.com/jack/status/1")
	require.NoError(t, err)
	_, err = svc.Submit(1, "https://x.com/jack/status/2")
	require.NoError(t, err)

	_, err = svc.Submit(1, "https://x.com/jack/status/3")
	assert.ErrorIs(t, err, errors.ErrQueueFull)
	assert.Equal(t, 2, svc.Len())
}

func TestDequeueHonoursContext(t *testing.T) {
	svc, _, _, _ := newTestService(1, &fakePosts{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunPreservesFIFO(t *testing.T) {
	svc, renderer, ledger, replier := newTestService(5, &fakePosts{})

	for _, id := range []string{"100", "200", "300"} {
		_, err := svc.Submit(7, "https://x.com/jack/status/"+id)
		require.NoError(t, err)
	}

	svc.Start()
	defer svc.Stop()

	require.Eventually(t, func() bool { return len(renderer.ids()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"100", "200", "300"}, renderer.ids())

	require.Eventually(t, func() bool { return len(replier.all()) == 3 }, time.Second, 5*time.Millisecond)
	for _, r := range replier.all() {
		assert.Equal(t, int64(7), r.chatID)
		assert.Contains(t, r.text, "forwarded")
	}

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	assert.Equal(t, []string{"100", "200", "300"}, ledger.recorded)
}

func TestRunReportsFailuresAndSurvivesPanics(t *testing.T) {
	posts := &fakePosts{errs: map[string]error{
		"1": oops.Wrap(errors.ErrPostNotFound),
		"2": oops.Wrap(errors.ErrRateLimited),
	}}
	svc, renderer, _, replier := newTestService(5, posts)

	for _, id := range []string{"1", "2", "666", "3"} {
		_, err := svc.Submit(9, "https://twitter.com/jack/status/"+id)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(replier.all()) == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	replies := replier.all()
	assert.Equal(t, "⚠️ Tweet not found!", replies[0].text)
	assert.Equal(t, "⚠️ Twitter API rate limit hit! Try again later.", replies[1].text)
	assert.Contains(t, replies[2].text, "Failed to forward tweet 666")
	assert.Contains(t, replies[3].text, "forwarded")
	assert.Equal(t, []string{"3"}, renderer.ids())
}

func TestDeliveryFailureIsReportedAndRecorded(t *testing.T) {
	svc, renderer, ledger, replier := newTestService(5, &fakePosts{})
	renderer.err = oops.Wrap(errors.ErrDeliveryFailed)

	_, err := svc.Submit(3, "https://x.com/jack/status/55")
	require.NoError(t, err)

	sub, err := svc.Dequeue(context.Background())
	require.NoError(t, err)
	svc.process(context.Background(), sub)

	require.Len(t, replier.all(), 1)
	assert.Contains(t, replier.all()[0].text, "Failed to forward tweet 55")
	assert.Equal(t, []string{"55"}, ledger.recorded)
}
