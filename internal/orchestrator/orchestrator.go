// Package orchestrator fans a conversion request out across the requested
// output formats and collects the parsed results.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/microtoolco/threadforge/internal/generator"
	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/prompts"
)

const (
	generationTemperature = 0.7
	generationMaxTokens   = 4000
)

// GenerationError names the format whose generation failed.
type GenerationError struct {
	Format models.Format
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Format, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Request is one conversion to run.
type Request struct {
	Posts      []models.Post
	Affiliates []models.AffiliateLink
	Style      prompts.Style
	Formats    []models.Format
}

// Result holds every generated format. Newsletter is set when the newsletter
// format was requested; it carries the email extras the generic output drops.
type Result struct {
	Newsletter *models.NewsletterResult
	Outputs    map[models.Format]models.FormatOutput
}

type formatSpec struct {
	system string
	prompt func(Request) string
}

var formatTable = map[models.Format]formatSpec{
	models.FormatNewsletter: {
		system: prompts.NewsletterSystem,
		prompt: func(r Request) string { return prompts.Newsletter(r.Posts, r.Affiliates, r.Style) },
	},
	models.FormatLinkedIn: {
		system: prompts.LinkedInSystem,
		prompt: func(r Request) string { return prompts.LinkedIn(r.Posts, r.Style) },
	},
	models.FormatBlog: {
		system: prompts.BlogSystem,
		prompt: func(r Request) string { return prompts.Blog(r.Posts, r.Affiliates, r.Style) },
	},
	models.FormatInstagram: {
		system: prompts.InstagramSystem,
		prompt: func(r Request) string { return prompts.Instagram(r.Posts) },
	},
	models.FormatTwitterSummary: {
		system: prompts.TwitterSummarySystem,
		prompt: func(r Request) string { return prompts.TwitterSummary(r.Posts) },
	},
}

// Orchestrator runs multi-format generation against a shared completer.
type Orchestrator struct {
	completer generator.Completer
	logger    logging.Logger
}

// New creates an orchestrator.
func New(completer generator.Completer, logger logging.Logger) *Orchestrator {
	return &Orchestrator{completer: completer, logger: logger}
}

// Generate runs every requested format concurrently and waits for all of
// them. Any single failure fails the whole conversion; partial results are
// discarded and nothing is retried.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	formats := dedupe(req.Formats)
	if len(formats) == 0 {
		formats = []models.Format{models.FormatNewsletter}
	}
	for _, format := range formats {
		if _, ok := formatTable[format]; !ok {
			return nil, fmt.Errorf("unsupported format %q", format)
		}
	}

	result := &Result{Outputs: make(map[models.Format]models.FormatOutput, len(formats))}
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, format := range formats {
		format := format
		group.Go(func() error {
			entry := formatTable[format]
			raw, err := o.completer.Complete(groupCtx, generator.CompletionRequest{
				System:      entry.system,
				Prompt:      entry.prompt(req),
				Temperature: generationTemperature,
				MaxTokens:   generationMaxTokens,
			})
			if err != nil {
				o.logger.WithFields(logging.Fields{
					"format": format,
					"error":  err.Error(),
				}).Error("Format generation failed")
				return &GenerationError{Format: format, Err: err}
			}

			mu.Lock()
			defer mu.Unlock()
			if format == models.FormatNewsletter {
				newsletter := generator.ParseNewsletter(raw)
				result.Newsletter = &newsletter
				result.Outputs[format] = newsletter.Output()
				return nil
			}
			result.Outputs[format] = parseFormat(format, raw)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseFormat(format models.Format, raw string) models.FormatOutput {
	switch format {
	case models.FormatLinkedIn:
		return generator.ParseLinkedIn(raw)
	case models.FormatBlog:
		return generator.ParseBlog(raw)
	case models.FormatInstagram:
		return generator.ParseInstagram(raw)
	case models.FormatTwitterSummary:
		return generator.ParseTwitterSummary(raw)
	}
	// formatTable and this switch cover the same set; unreachable for valid input
	return models.FormatOutput{Format: format, Content: raw, WordCount: generator.WordCount(raw)}
}

func dedupe(formats []models.Format) []models.Format {
	seen := make(map[models.Format]struct{}, len(formats))
	out := make([]models.Format, 0, len(formats))
	for _, f := range formats {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
