package handlers

import (
	"context"
	"time"

	"github.com/microtoolco/threadforge/internal/clients/zapier"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/orchestrator"
	"github.com/microtoolco/threadforge/internal/plan"
)

type setPlanCall struct {
	userID         string
	plan           models.Plan
	credits        int
	customerID     string
	subscriptionID string
}

type stubStore struct {
	user         *models.User
	userErr      error
	usersByEmail map[string]*models.User

	affiliates   []models.AffiliateLink
	affiliateErr error

	inserted  []*models.Thread
	insertErr error

	decremented  []string
	decrementErr error

	thread    *models.Thread
	threadErr error

	exported []string
	markErr  error

	countTotal   int
	countExports int
	countSince   int

	processedEvents map[string]bool
	markedEvents    []string

	setPlanCalls []setPlanCall
	setPlanErr   error
}

func (s *stubStore) GetUser(_ context.Context, id string) (*models.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.user, nil
}

func (s *stubStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, s.userErr
}

func (s *stubStore) SetPlan(_ context.Context, userID string, p models.Plan, credits int, customerID, subscriptionID string) error {
	s.setPlanCalls = append(s.setPlanCalls, setPlanCall{userID, p, credits, customerID, subscriptionID})
	return s.setPlanErr
}

func (s *stubStore) DecrementCredits(_ context.Context, userID string) error {
	s.decremented = append(s.decremented, userID)
	return s.decrementErr
}

func (s *stubStore) ListActiveAffiliates(_ context.Context, _ string) ([]models.AffiliateLink, error) {
	return s.affiliates, s.affiliateErr
}

func (s *stubStore) InsertThread(_ context.Context, thread *models.Thread) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if thread.ID == "" {
		thread.ID = "thread-1"
	}
	s.inserted = append(s.inserted, thread)
	return nil
}

func (s *stubStore) GetThread(_ context.Context, _ string) (*models.Thread, error) {
	if s.threadErr != nil {
		return nil, s.threadErr
	}
	return s.thread, nil
}

func (s *stubStore) MarkExported(_ context.Context, threadID, platform string) error {
	s.exported = append(s.exported, threadID+":"+platform)
	return s.markErr
}

func (s *stubStore) CountThreads(_ context.Context, _ string) (int, error) {
	return s.countTotal, nil
}

func (s *stubStore) CountThreadsSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return s.countSince, nil
}

func (s *stubStore) CountExports(_ context.Context, _ string) (int, error) {
	return s.countExports, nil
}

func (s *stubStore) IsWebhookProcessed(_ context.Context, eventID string) (bool, error) {
	return s.processedEvents[eventID], nil
}

func (s *stubStore) MarkWebhookProcessed(_ context.Context, eventID, _ string) error {
	s.markedEvents = append(s.markedEvents, eventID)
	return nil
}

type stubThreads struct {
	posts []models.Post
	err   error
}

func (s *stubThreads) FromURL(_ context.Context, _ string) ([]models.Post, error) {
	return s.posts, s.err
}

type stubConverter struct {
	result   *orchestrator.Result
	err      error
	requests []orchestrator.Request
}

func (s *stubConverter) Generate(_ context.Context, req orchestrator.Request) (*orchestrator.Result, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGate struct {
	decision plan.Decision
	err      error
}

func (s *stubGate) Check(_ context.Context, _ *models.User, _ []models.Format) (plan.Decision, error) {
	return s.decision, s.err
}

type exportCall struct {
	platform string
	payload  zapier.ExportPayload
}

type stubExporter struct {
	calls []exportCall
	err   error
}

func (s *stubExporter) Publish(_ context.Context, platform string, payload zapier.ExportPayload) error {
	s.calls = append(s.calls, exportCall{platform: platform, payload: payload})
	return s.err
}

func newsletterResult(title, content string) *orchestrator.Result {
	newsletter := models.NewsletterResult{Title: title, Content: content, WordCount: len(content)}
	return &orchestrator.Result{
		Newsletter: &newsletter,
		Outputs: map[models.Format]models.FormatOutput{
			models.FormatNewsletter: newsletter.Output(),
		},
	}
}
