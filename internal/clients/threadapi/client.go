// Package threadapi is a client for the twitter-api45 RapidAPI service, the
// collaborator that resolves a status id into the raw posts of its
// conversation.
package threadapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/microtoolco/threadforge/internal/models"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("threadapi: API key not configured")

// APIError is a non-2xx response from the upstream.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("threadapi returned status: %d", e.StatusCode)
}

// Config for creating a new thread API client.
type Config struct {
	APIKey string
	Host   string // RapidAPI host, defaults to twitter-api45.p.rapidapi.com
}

// Client fetches thread conversations.
type Client struct {
	apiKey string
	host   string
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// NewClient creates a thread API client.
func NewClient(cfg Config, opts ...Option) *Client {
	host := cfg.Host
	if host == "" {
		host = "twitter-api45.p.rapidapi.com"
	}
	c := &Client{
		apiKey: cfg.APIKey,
		host:   host,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiTweet struct {
	ID      string `json:"id"`
	TweetID string `json:"tweet_id"`
	Text    string `json:"text"`
	// Some endpoints return full_text instead of text.
	FullText  string `json:"full_text"`
	CreatedAt string `json:"created_at"`
	Author    struct {
		ScreenName string `json:"screen_name"`
	} `json:"author"`
	User struct {
		ScreenName string `json:"screen_name"`
		Username   string `json:"username"`
	} `json:"user"`
	Media struct {
		Photo []struct {
			MediaURLHTTPS string `json:"media_url_https"`
			URL           string `json:"url"`
		} `json:"photo"`
	} `json:"media"`
	ExtendedEntities struct {
		Media []struct {
			MediaURLHTTPS string `json:"media_url_https"`
		} `json:"media"`
	} `json:"extended_entities"`
}

type threadResponse struct {
	Thread       []apiTweet `json:"thread"`
	Tweets       []apiTweet `json:"tweets"`
	Conversation []apiTweet `json:"conversation"`
}

// Thread fetches every post of the conversation containing the given status
// id, in upstream discovery order.
func (c *Client) Thread(ctx context.Context, id string) ([]models.Post, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("https://%s/tweet_thread.php?id=%s", c.host, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("threadapi: create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("threadapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var payload threadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("threadapi: decode response: %w", err)
	}

	raw := payload.Thread
	if len(raw) == 0 {
		raw = payload.Tweets
	}
	if len(raw) == 0 {
		raw = payload.Conversation
	}

	posts := make([]models.Post, 0, len(raw))
	for i, tweet := range raw {
		posts = append(posts, toPost(tweet, i))
	}
	return posts, nil
}

func toPost(tweet apiTweet, index int) models.Post {
	id := tweet.ID
	if id == "" {
		id = tweet.TweetID
	}
	if id == "" {
		id = fmt.Sprintf("thread_%d", index)
	}

	text := tweet.Text
	if text == "" {
		text = tweet.FullText
	}

	author := tweet.Author.ScreenName
	if author == "" {
		author = tweet.User.ScreenName
	}
	if author == "" {
		author = tweet.User.Username
	}
	if author != "" {
		author = "@" + author
	} else {
		author = "@unknown"
	}

	createdAt := time.Now().UTC()
	if tweet.CreatedAt != "" {
		for _, layout := range []string{time.RFC3339, time.RubyDate} {
			if parsed, err := time.Parse(layout, tweet.CreatedAt); err == nil {
				createdAt = parsed
				break
			}
		}
	}

	return models.Post{
		ID:        id,
		Text:      text,
		Author:    author,
		Images:    extractMedia(tweet),
		CreatedAt: createdAt,
	}
}

func extractMedia(tweet apiTweet) []string {
	var images []string
	seen := make(map[string]bool)

	add := func(url string) {
		if url != "" && !seen[url] {
			seen[url] = true
			images = append(images, url)
		}
	}

	for _, photo := range tweet.Media.Photo {
		if photo.MediaURLHTTPS != "" {
			add(photo.MediaURLHTTPS)
		} else {
			add(photo.URL)
		}
	}
	for _, media := range tweet.ExtendedEntities.Media {
		add(media.MediaURLHTTPS)
	}
	return images
}
