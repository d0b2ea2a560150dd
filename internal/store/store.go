// Package store implements Postgres persistence for accounts, conversions,
// affiliate links, and processed billing events.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/microtoolco/threadforge/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the database handle with the queries the service needs.
type Store struct {
	db *sql.DB
}

// New creates a store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetUser loads one account by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, plan, credits,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.Plan, &user.Credits,
		&user.StripeCustomerID, &user.StripeSubscriptionID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail loads one account by email. Billing webhooks identify
// customers by checkout email when no user id was attached to the session.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, plan, credits,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Plan, &user.Credits,
		&user.StripeCustomerID, &user.StripeSubscriptionID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// SetPlan updates an account's plan and credit balance after a billing event.
func (s *Store) SetPlan(ctx context.Context, userID string, plan models.Plan, credits int, stripeCustomerID, stripeSubscriptionID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET plan = $2,
		    credits = $3,
		    stripe_customer_id = NULLIF($4, ''),
		    stripe_subscription_id = NULLIF($5, ''),
		    updated_at = NOW()
		WHERE id = $1
	`, userID, plan, credits, stripeCustomerID, stripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementCredits charges one free-plan credit, never going below zero.
func (s *Store) DecrementCredits(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET credits = GREATEST(credits - 1, 0), updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("decrement credits: %w", err)
	}
	return nil
}

// ListActiveAffiliates returns the user's active affiliate links.
func (s *Store) ListActiveAffiliates(ctx context.Context, userID string) ([]models.AffiliateLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, url, keywords, COALESCE(description, ''), is_active, created_at
		FROM affiliate_links
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list affiliates: %w", err)
	}
	defer rows.Close()

	var links []models.AffiliateLink
	for rows.Next() {
		var link models.AffiliateLink
		if err := rows.Scan(
			&link.ID, &link.UserID, &link.Name, &link.URL,
			pq.Array(&link.Keywords), &link.Description, &link.IsActive, &link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan affiliate: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list affiliates: %w", err)
	}
	return links, nil
}

// InsertThread persists a completed conversion. A missing id is generated.
func (s *Store) InsertThread(ctx context.Context, thread *models.Thread) error {
	if thread.ID == "" {
		thread.ID = uuid.New().String()
	}
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now()
	}
	posts, err := json.Marshal(thread.OriginalPosts)
	if err != nil {
		return fmt.Errorf("marshal posts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO threads (id, user_id, thread_url, thread_id, original_tweets,
		                     newsletter_content, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, thread.ID, thread.UserID, thread.ThreadURL, thread.ThreadID, posts,
		thread.NewsletterContent, thread.Title, thread.Status, thread.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// GetThread loads one conversion by id.
func (s *Store) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	var posts []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, thread_url, thread_id, original_tweets,
		       newsletter_content, title, status, COALESCE(exported_to, ''), created_at
		FROM threads
		WHERE id = $1
	`, id).Scan(
		&thread.ID, &thread.UserID, &thread.ThreadURL, &thread.ThreadID, &posts,
		&thread.NewsletterContent, &thread.Title, &thread.Status, &thread.ExportedTo, &thread.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if len(posts) > 0 {
		if err := json.Unmarshal(posts, &thread.OriginalPosts); err != nil {
			return nil, fmt.Errorf("unmarshal posts: %w", err)
		}
	}
	return &thread, nil
}

// MarkExported records which platform a thread was exported to.
func (s *Store) MarkExported(ctx context.Context, threadID, platform string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE threads SET exported_to = $2 WHERE id = $1
	`, threadID, platform)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountThreads counts every conversion a user has recorded.
func (s *Store) CountThreads(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM threads WHERE user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count threads: %w", err)
	}
	return count, nil
}

// CountThreadsSince counts conversions recorded at or after since. Monthly
// usage for paid plans derives from this.
func (s *Store) CountThreadsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM threads WHERE user_id = $1 AND created_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count threads since: %w", err)
	}
	return count, nil
}

// CountExports counts conversions that were exported somewhere.
func (s *Store) CountExports(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM threads WHERE user_id = $1 AND exported_to IS NOT NULL AND exported_to <> ''
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count exports: %w", err)
	}
	return count, nil
}

// IsWebhookProcessed reports whether a billing event id was already handled.
func (s *Store) IsWebhookProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM webhook_events WHERE event_id = $1)
	`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check webhook event: %w", err)
	}
	return exists, nil
}

// MarkWebhookProcessed records a handled billing event id. Replays of the
// same event id are absorbed by the unique constraint.
func (s *Store) MarkWebhookProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return fmt.Errorf("mark webhook event: %w", err)
	}
	return nil
}
