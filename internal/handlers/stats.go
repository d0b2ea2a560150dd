package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/plan"
)

// StatsHandler serves the account usage summary for the dashboard.
type StatsHandler struct {
	store  Store
	logger logging.Logger
	now    func() time.Time
}

// NewStatsHandler creates the stats handler. nowFn may be nil.
func NewStatsHandler(st Store, logger logging.Logger, nowFn func() time.Time) *StatsHandler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &StatsHandler{store: st, logger: logger, now: nowFn}
}

// Handle processes GET /api/stats.
func (h *StatsHandler) Handle(c *gin.Context) {
	userID := c.GetString(auth.CtxUserID)
	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return
	}

	ctx := c.Request.Context()
	total, err := h.store.CountThreads(ctx, user.ID)
	if err != nil {
		h.fail(c, "count threads", err)
		return
	}
	exports, err := h.store.CountExports(ctx, user.ID)
	if err != nil {
		h.fail(c, "count exports", err)
		return
	}
	thisMonth, err := h.store.CountThreadsSince(ctx, user.ID, plan.MonthStart(h.now()))
	if err != nil {
		h.fail(c, "count monthly threads", err)
		return
	}

	// Free accounts spend a credit balance; paid accounts have a monthly
	// allowance that usage counts down from.
	remaining := user.Credits
	if user.Plan.Paid() {
		remaining = user.Plan.Limit() - thisMonth
		if remaining < 0 {
			remaining = 0
		}
	}

	c.JSON(http.StatusOK, models.Stats{
		TotalThreads:     total,
		TotalExports:     exports,
		CreditsRemaining: remaining,
		ThisMonth:        thisMonth,
		Plan:             user.Plan,
		MonthlyLimit:     user.Plan.Limit(),
	})
}

func (h *StatsHandler) fail(c *gin.Context, op string, err error) {
	h.logger.WithFields(logging.Fields{"op": op, "error": err.Error()}).Error("Stats query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}
