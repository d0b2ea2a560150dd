package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/extractor"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/orchestrator"
	"github.com/microtoolco/threadforge/internal/plan"
)

type convertHarness struct {
	router    *gin.Engine
	store     *stubStore
	threads   *stubThreads
	converter *stubConverter
	gate      *stubGate
}

func setupConvertHandler(userID string) *convertHarness {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(auth.CtxUserID, userID)
		})
	}

	store := &stubStore{}
	threads := &stubThreads{}
	converter := &stubConverter{result: newsletterResult("Big Ideas", "# Big Ideas\n\nBody.")}
	gate := &stubGate{decision: plan.Decision{Allowed: true, Formats: []models.Format{models.FormatNewsletter}}}
	logger, _ := test.NewNullLogger()

	handler := NewConvertHandler(store, threads, nil, gate, converter, logger, nil)
	router.POST("/api/convert", handler.Handle)
	return &convertHarness{router: router, store: store, threads: threads, converter: converter, gate: gate}
}

func postConvert(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/convert", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestConvertRequiresInput(t *testing.T) {
	harness := setupConvertHandler("")
	resp := postConvert(t, harness.router, ConvertRequest{Style: "casual"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if len(harness.converter.requests) != 0 {
		t.Fatal("generation must not run without input")
	}
}

func TestConvertAnonymousManualInput(t *testing.T) {
	harness := setupConvertHandler("")

	resp := postConvert(t, harness.router, ConvertRequest{
		ManualContent: "1/ Hello\n2/ World\n3/ Done",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	if len(harness.converter.requests) != 1 {
		t.Fatalf("expected one generation, got %d", len(harness.converter.requests))
	}
	posts := harness.converter.requests[0].Posts
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %+v", posts)
	}
	for i, want := range []string{"Hello", "World", "Done"} {
		if posts[i].Text != want {
			t.Fatalf("post %d = %q, want %q", i, posts[i].Text, want)
		}
	}

	// Anonymous visitors are never persisted or charged.
	if len(harness.store.inserted) != 0 || len(harness.store.decremented) != 0 {
		t.Fatal("anonymous conversion must not touch the store")
	}

	var body struct {
		Success    bool                     `json:"success"`
		Newsletter *models.NewsletterResult `json:"newsletter"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.Newsletter == nil || body.Newsletter.Title != "Big Ideas" {
		t.Fatalf("body = %+v", body)
	}
}

func TestConvertFreePlanDowngradedToNewsletter(t *testing.T) {
	harness := setupConvertHandler("u1")
	harness.store.user = &models.User{ID: "u1", Plan: models.PlanFree, Credits: 2}
	harness.gate.decision = plan.Decision{Allowed: true, Formats: []models.Format{models.FormatNewsletter}}

	resp := postConvert(t, harness.router, ConvertRequest{
		ManualContent: "Hello world",
		MultiFormat:   true,
		Formats:       []string{"newsletter", "linkedin", "blog"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	got := harness.converter.requests[0].Formats
	if len(got) != 1 || got[0] != models.FormatNewsletter {
		t.Fatalf("generated formats = %v", got)
	}
	if len(harness.store.decremented) != 1 {
		t.Fatal("free plan must be charged one credit")
	}
	if len(harness.store.inserted) != 1 {
		t.Fatal("conversion must be persisted")
	}
}

func TestConvertManualInputPersistsPlaceholders(t *testing.T) {
	harness := setupConvertHandler("u1")
	harness.store.user = &models.User{ID: "u1", Plan: models.PlanMonthly}
	harness.gate.decision = plan.Decision{Allowed: true, Formats: []models.Format{models.FormatNewsletter}}

	resp := postConvert(t, harness.router, ConvertRequest{ManualContent: "First idea\n\nSecond idea"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	if len(harness.store.inserted) != 1 {
		t.Fatalf("inserted = %d", len(harness.store.inserted))
	}
	thread := harness.store.inserted[0]
	if thread.ThreadURL != "manual_input" {
		t.Fatalf("threadURL = %q", thread.ThreadURL)
	}
	if !strings.HasPrefix(thread.ThreadID, "manual_") || len(thread.ThreadID) == len("manual_") {
		t.Fatalf("threadID = %q, want a unique manual_<id>", thread.ThreadID)
	}

	resp = postConvert(t, harness.router, ConvertRequest{ManualContent: "Another thread"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if harness.store.inserted[1].ThreadID == thread.ThreadID {
		t.Fatal("manual thread ids must be unique per conversion")
	}
}

func TestConvertDeniedByGate(t *testing.T) {
	harness := setupConvertHandler("u1")
	harness.store.user = &models.User{ID: "u1", Plan: models.PlanFree, Credits: 0}
	harness.gate.decision = plan.Decision{Denial: &plan.Denial{Reason: "No free credits remaining. Upgrade to Pro for 100 conversions per month!"}}

	resp := postConvert(t, harness.router, ConvertRequest{ManualContent: "Hello"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if len(harness.converter.requests) != 0 {
		t.Fatal("denied request must not generate")
	}
}

func TestConvertUnsupportedFormat(t *testing.T) {
	harness := setupConvertHandler("")
	resp := postConvert(t, harness.router, ConvertRequest{
		ManualContent: "Hello",
		MultiFormat:   true,
		Formats:       []string{"newsletter", "carrier_pigeon"},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestConvertThreadFetchFailure(t *testing.T) {
	harness := setupConvertHandler("")
	harness.threads.err = extractor.ErrUpstreamUnavailable

	resp := postConvert(t, harness.router, ConvertRequest{ThreadURL: "https://x.com/a/status/123"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestConvertInvalidURL(t *testing.T) {
	harness := setupConvertHandler("")
	harness.threads.err = extractor.ErrInvalidThreadURL

	resp := postConvert(t, harness.router, ConvertRequest{ThreadURL: "https://x.com/nothing"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestConvertGenerationFailureChargesNothing(t *testing.T) {
	harness := setupConvertHandler("u1")
	harness.store.user = &models.User{ID: "u1", Plan: models.PlanFree, Credits: 2}
	harness.converter.err = &orchestrator.GenerationError{Format: models.FormatNewsletter, Err: errors.New("provider down")}

	resp := postConvert(t, harness.router, ConvertRequest{ManualContent: "Hello"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if len(harness.store.inserted) != 0 || len(harness.store.decremented) != 0 {
		t.Fatal("failed generation must not persist or charge")
	}
}

func TestConvertPersistenceFailureStillSucceeds(t *testing.T) {
	harness := setupConvertHandler("u1")
	harness.store.user = &models.User{ID: "u1", Plan: models.PlanMonthly}
	harness.store.insertErr = errors.New("db down")
	harness.gate.decision = plan.Decision{Allowed: true, Formats: []models.Format{models.FormatNewsletter}}

	resp := postConvert(t, harness.router, ConvertRequest{ManualContent: "Hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := body["threadId"]; ok {
		t.Fatal("threadId must be absent when persistence failed")
	}
}

func TestConvertUnknownAccount(t *testing.T) {
	harness := setupConvertHandler("ghost")
	harness.store.userErr = errors.New("not found")

	resp := postConvert(t, harness.router, ConvertRequest{ManualContent: "Hello"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestConvertAffiliateLoadFailureIsNonFatal(t *testing.T) {
	harness := setupConvertHandler("u1")
	harness.store.user = &models.User{ID: "u1", Plan: models.PlanMonthly}
	harness.store.affiliateErr = errors.New("db down")
	harness.gate.decision = plan.Decision{Allowed: true, Formats: []models.Format{models.FormatNewsletter}}

	resp := postConvert(t, harness.router, ConvertRequest{ManualContent: "Hello", IncludeAffiliates: true})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(harness.converter.requests[0].Affiliates) != 0 {
		t.Fatal("affiliates should be empty on load failure")
	}
}
