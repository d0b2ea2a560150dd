package extractor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/models"
)

var (
	// ErrInvalidThreadURL means the URL does not contain a /status/<id> segment.
	ErrInvalidThreadURL = errors.New("invalid thread URL")
	// ErrThreadNotFound means the upstream returned no usable posts.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrUpstreamUnavailable means the thread-source collaborator is
	// unreachable or not configured.
	ErrUpstreamUnavailable = errors.New("thread source unavailable")
)

var (
	statusIDPattern = regexp.MustCompile(`status/(\d+)`)
	imageURLPattern = regexp.MustCompile(`(?i)https?://[^\s]+\.(?:jpg|jpeg|png|gif|webp)`)

	// Manual-input separators in priority order: the first pattern with a
	// match in the text decides how it is split.
	numberedSlashPattern = regexp.MustCompile(`(?m)^\d+/[ \t]*`)
	numberedDotPattern   = regexp.MustCompile(`(?m)^\d+\.[ \t]+`)
	dashRulePattern      = regexp.MustCompile(`(?m)^-{3,}[ \t]*$`)
	blankLinePattern     = regexp.MustCompile(`\n\n+`)
)

// ThreadFetcher retrieves the posts of a conversation by status id.
type ThreadFetcher interface {
	Thread(ctx context.Context, id string) ([]models.Post, error)
}

// Extractor turns a thread URL or pasted text into an ordered post sequence.
type Extractor struct {
	fetcher ThreadFetcher
	logger  logging.Logger
}

// New creates an Extractor backed by the given thread-source client.
func New(fetcher ThreadFetcher, logger logging.Logger) *Extractor {
	return &Extractor{fetcher: fetcher, logger: logger}
}

// ParseThreadID extracts the numeric status id from a thread URL.
func ParseThreadID(url string) (string, error) {
	match := statusIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", fmt.Errorf("%w: URL must contain /status/ followed by a numeric id", ErrInvalidThreadURL)
	}
	return match[1], nil
}

// FromURL fetches a thread by URL and filters it to the origin author's
// posts. Posts by an unknown author are kept: the origin thread is defined by
// a single voice, and an unknown author cannot contradict it.
func (e *Extractor) FromURL(ctx context.Context, url string) ([]models.Post, error) {
	id, err := ParseThreadID(url)
	if err != nil {
		return nil, err
	}

	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: no thread source configured", ErrUpstreamUnavailable)
	}

	posts, err := e.fetcher.Thread(ctx, id)
	if err != nil {
		e.logger.WithFields(logging.Fields{
			"thread_id": id,
			"error":     err.Error(),
		}).Error("Thread fetch failed")
		// The underlying error may carry upstream detail (endpoints, auth
		// headers); surface only the thread id.
		return nil, fmt.Errorf("%w: thread %s could not be fetched", ErrUpstreamUnavailable, id)
	}

	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: no posts in conversation %s", ErrThreadNotFound, id)
	}

	mainAuthor := posts[0].Author
	thread := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if sameVoice(post.Author, mainAuthor) {
			thread = append(thread, post)
		}
	}

	if len(thread) == 0 {
		return nil, fmt.Errorf("%w: no posts by the thread author", ErrThreadNotFound)
	}
	return thread, nil
}

func sameVoice(author, mainAuthor string) bool {
	if mainAuthor == "" || mainAuthor == "@unknown" {
		return true
	}
	return author == mainAuthor || author == "" || author == "@unknown"
}

// ParseManual splits pasted text into posts at the first separator style that
// matches: "N/" lines, "N. " lines, dash rules, then blank lines. Text with
// no recognizable separator becomes a single post.
func ParseManual(text, author string) []models.Post {
	if author == "" {
		author = "@user"
	}

	var segments []string
	switch {
	case numberedSlashPattern.MatchString(text):
		segments = numberedSlashPattern.Split(text, -1)
	case numberedDotPattern.MatchString(text):
		segments = numberedDotPattern.Split(text, -1)
	case dashRulePattern.MatchString(text):
		segments = dashRulePattern.Split(text, -1)
	case blankLinePattern.MatchString(text):
		segments = blankLinePattern.Split(text, -1)
	default:
		segments = []string{text}
	}

	now := time.Now().UTC()
	posts := make([]models.Post, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		posts = append(posts, models.Post{
			ID:        fmt.Sprintf("manual_%d", len(posts)+1),
			Text:      trimmed,
			Author:    author,
			Images:    extractImages(trimmed),
			CreatedAt: now,
		})
	}
	return posts
}

// extractImages pulls image URLs out of post text by file extension. This is
// best-effort, not authoritative.
func extractImages(text string) []string {
	return imageURLPattern.FindAllString(text, -1)
}
