package handlers

import (
	"context"
	"time"

	"github.com/microtoolco/threadforge/internal/clients/zapier"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/orchestrator"
	"github.com/microtoolco/threadforge/internal/plan"
)

// Store is the persistence surface the handlers consume.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetPlan(ctx context.Context, userID string, p models.Plan, credits int, stripeCustomerID, stripeSubscriptionID string) error
	DecrementCredits(ctx context.Context, userID string) error
	ListActiveAffiliates(ctx context.Context, userID string) ([]models.AffiliateLink, error)
	InsertThread(ctx context.Context, thread *models.Thread) error
	GetThread(ctx context.Context, id string) (*models.Thread, error)
	MarkExported(ctx context.Context, threadID, platform string) error
	CountThreads(ctx context.Context, userID string) (int, error)
	CountThreadsSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountExports(ctx context.Context, userID string) (int, error)
	IsWebhookProcessed(ctx context.Context, eventID string) (bool, error)
	MarkWebhookProcessed(ctx context.Context, eventID, eventType string) error
}

// ThreadSource resolves a thread URL into its ordered posts.
type ThreadSource interface {
	FromURL(ctx context.Context, url string) ([]models.Post, error)
}

// Converter runs multi-format generation.
type Converter interface {
	Generate(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// Gate decides whether a user may convert and which formats they receive.
type Gate interface {
	Check(ctx context.Context, user *models.User, requested []models.Format) (plan.Decision, error)
}

// Exporter delivers a finished newsletter to an external platform.
type Exporter interface {
	Publish(ctx context.Context, platform string, payload zapier.ExportPayload) error
}

// PostExtractor splits free-form pasted text into structured posts.
type PostExtractor interface {
	ExtractPosts(ctx context.Context, text, author string) ([]models.Post, error)
}
