package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/models"
)

func setupStatsHandler(st *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserID, "u1")
	})
	logger, _ := test.NewNullLogger()
	nowFn := func() time.Time {
		return time.Date(2026, time.March, 15, 0, 0, 0, 0, time.Local)
	}
	router.GET("/api/stats", NewStatsHandler(st, logger, nowFn).Handle)
	return router
}

func getStats(t *testing.T, router *gin.Engine) models.Stats {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var stats models.Stats
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	return stats
}

func TestStatsFreePlanUsesCredits(t *testing.T) {
	st := &stubStore{
		user:       &models.User{ID: "u1", Plan: models.PlanFree, Credits: 2},
		countTotal: 5, countExports: 0, countSince: 1,
	}

	stats := getStats(t, setupStatsHandler(st))
	if stats.CreditsRemaining != 2 {
		t.Fatalf("creditsRemaining = %d", stats.CreditsRemaining)
	}
	if stats.TotalThreads != 5 || stats.ThisMonth != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.MonthlyLimit != 3 {
		t.Fatalf("monthlyLimit = %d", stats.MonthlyLimit)
	}
}

func TestStatsPaidPlanDerivesRemaining(t *testing.T) {
	st := &stubStore{
		user:       &models.User{ID: "u1", Plan: models.PlanMonthly},
		countTotal: 150, countExports: 12, countSince: 40,
	}

	stats := getStats(t, setupStatsHandler(st))
	if stats.CreditsRemaining != 60 {
		t.Fatalf("creditsRemaining = %d", stats.CreditsRemaining)
	}
	if stats.TotalExports != 12 || stats.Plan != models.PlanMonthly {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStatsRemainingNeverNegative(t *testing.T) {
	st := &stubStore{
		user:       &models.User{ID: "u1", Plan: models.PlanLifetime},
		countSince: 250,
	}

	stats := getStats(t, setupStatsHandler(st))
	if stats.CreditsRemaining != 0 {
		t.Fatalf("creditsRemaining = %d", stats.CreditsRemaining)
	}
}
