// Package twitter is a minimal read-only X API v2 client covering account
// lookup, recent posts of an account and single post lookup.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	tweetFields = "created_at,author_id,referenced_tweets,in_reply_to_user_id,attachments"
	mediaFields = "url,type,variants,preview_image_url"
	expansions  = "attachments.media_keys,author_id"
)

// Client talks to the X API v2 with app-only bearer authentication
type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

// New creates a client. Every request is bounded by timeout.
func New(baseURL, bearerToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// LookupAccount resolves a handle to the account's numeric id
func (c *Client) LookupAccount(ctx context.Context, handle string) (string, error) {
	var resp userResponse
	path := "/2/users/by/username/" + url.PathEscape(handle)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return "", err
	}

	if resp.Data == nil || resp.Data.ID == "" {
		return "", oops.
			In("twitter").
			With("handle", handle, "errors", errorTitles(resp.Errors)).
			Errorf("account not found")
	}
	return resp.Data.ID, nil
}

// RecentPosts returns up to limit of the account's latest posts, newest first.
func (c *Client) RecentPosts(ctx context.Context, accountID string, limit int) ([]*domain.Post, error) {
	query := postQuery()
	query.Set("max_results", strconv.Itoa(limit))

	var resp timelineResponse
	path := "/2/users/" + url.PathEscape(accountID) + "/tweets"
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	return lo.Map(resp.Data, func(t tweet, _ int) *domain.Post {
		return toPost(t, resp.Includes)
	}), nil
}

// GetPost looks up a single post. Missing or deleted posts yield ErrPostNotFound.
func (c *Client) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	var resp tweetResponse
	path := "/2/tweets/" + url.PathEscape(postID)
	if err := c.get(ctx, path, postQuery(), &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, oops.
			In("twitter").
			With("post_id", postID, "errors", errorTitles(resp.Errors)).
			Wrap(errors.ErrPostNotFound)
	}
	return toPost(*resp.Data, resp.Includes), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return oops.In("twitter").With("url", fullURL).Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.In("twitter").With("path", path).Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return oops.
			In("twitter").
			With("path", path, "reset", resp.Header.Get("x-rate-limit-reset")).
			Wrap(errors.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return oops.In("twitter").With("path", path).Wrap(errors.ErrPostNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return oops.
			In("twitter").
			With("path", path, "status", resp.StatusCode, "body", string(body)).
			Errorf("x api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return oops.In("twitter").With("path", path).Wrap(err)
	}
	return nil
}

func postQuery() url.Values {
	return url.Values{
		"expansions":   {expansions},
		"tweet.fields": {tweetFields},
		"media.fields": {mediaFields},
		"user.fields":  {"username"},
	}
}

func toPost(t tweet, inc includes) *domain.Post {
	p := &domain.Post{
		ID:   t.ID,
		Text: html.UnescapeString(t.Text),
		// Any reference (reply, retweet or quote) excludes the post from auto-forwarding.
		IsReplyOrRetweet: len(t.ReferencedTweets) > 0 || t.InReplyToUserID != "",
	}

	if author, ok := lo.Find(inc.Users, func(u user) bool { return u.ID == t.AuthorID }); ok {
		p.Author = author.Username
	}
	if createdAt, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
		p.CreatedAt = createdAt
	}

	if t.Attachments == nil {
		return p
	}

	mediaByKey := lo.KeyBy(inc.Media, func(m media) string { return m.MediaKey })
	p.Media = lo.FilterMap(t.Attachments.MediaKeys, func(key string, _ int) (domain.MediaAttachment, bool) {
		m, ok := mediaByKey[key]
		if !ok {
			return domain.MediaAttachment{}, false
		}
		mediaType, err := domain.ParseMediaType(m.Type)
		if err != nil {
			return domain.MediaAttachment{}, false
		}

		attachment := domain.MediaAttachment{
			URL:  lo.Ternary(m.URL != "", m.URL, m.PreviewImageURL),
			Type: mediaType,
			Variants: lo.Map(m.Variants, func(v variant, _ int) domain.Variant {
				return domain.Variant{URL: v.URL, ContentType: v.ContentType, BitRate: v.BitRate}
			}),
		}
		return attachment, attachment.DownloadURL() != ""
	})

	return p
}

func errorTitles(errs []apiError) string {
	return strings.Join(lo.Map(errs, func(e apiError, _ int) string {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}), "; ")
}
