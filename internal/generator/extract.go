package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/microtoolco/threadforge/internal/models"
)

const extractSystem = `You split pasted social media content into its individual posts. You preserve the author's text exactly, you never rewrite or summarize, and you only remove numbering prefixes like "1/" or "2." that mark post boundaries. You always return valid JSON.`

const extractPromptTemplate = `Split the following pasted thread into its individual posts. Preserve the text of each post exactly, minus any leading numbering prefix.

Pasted content:
%s

You must return a JSON object:
{
  "posts": [
    {"text": "The exact text of the post"}
  ]
}

Return ONLY valid JSON.`

// PostSplitter binds a completer to the extraction prompt so callers can
// depend on a single-method splitter.
type PostSplitter struct {
	completer Completer
}

// NewPostSplitter creates a splitter over the given completer.
func NewPostSplitter(completer Completer) *PostSplitter {
	return &PostSplitter{completer: completer}
}

// ExtractPosts splits pasted text into structured posts via the model.
func (s *PostSplitter) ExtractPosts(ctx context.Context, text, author string) ([]models.Post, error) {
	return ExtractPosts(ctx, s.completer, text, author)
}

// ExtractPosts asks the model to split free-form pasted text into posts.
// Unlike the format parsers this returns an error on a malformed response so
// the caller can fall back to separator-based splitting.
func ExtractPosts(ctx context.Context, completer Completer, text, author string) ([]models.Post, error) {
	raw, err := completer.Complete(ctx, CompletionRequest{
		System:      extractSystem,
		Prompt:      fmt.Sprintf(extractPromptTemplate, text),
		Temperature: 0,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, fmt.Errorf("extract posts: %w", err)
	}

	var parsed struct {
		Posts []struct {
			Text string `json:"text"`
		} `json:"posts"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("extract posts: decode response: %w", err)
	}

	posts := make([]models.Post, 0, len(parsed.Posts))
	for _, p := range parsed.Posts {
		trimmed := strings.TrimSpace(p.Text)
		if trimmed == "" {
			continue
		}
		posts = append(posts, models.Post{
			ID:     fmt.Sprintf("manual_%d", len(posts)+1),
			Text:   trimmed,
			Author: author,
		})
	}
	if len(posts) == 0 {
		return nil, errors.New("extract posts: no posts in response")
	}
	return posts, nil
}
