package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/clients/zapier"
	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/store"
)

// ExportRequest is the export endpoint's body.
type ExportRequest struct {
	ThreadID string `json:"threadId" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

// ExportHandler pushes a persisted conversion to a newsletter platform.
type ExportHandler struct {
	store    Store
	exporter Exporter
	logger   logging.Logger
	metrics  *AppMetrics
}

// NewExportHandler creates the export handler.
func NewExportHandler(st Store, exporter Exporter, logger logging.Logger, metrics *AppMetrics) *ExportHandler {
	return &ExportHandler{store: st, exporter: exporter, logger: logger, metrics: metrics}
}

// Handle processes POST /api/export. Export is a paid feature; a thread that
// belongs to another account reads as not found.
func (h *ExportHandler) Handle(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.IncExport("unknown", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := c.GetString(auth.CtxUserID)
	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.metrics.IncExport(req.Platform, "auth_failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return
	}
	if !user.Plan.Paid() {
		h.metrics.IncExport(req.Platform, "denied")
		c.JSON(http.StatusForbidden, gin.H{"error": "Upgrade to Pro to export to newsletter platforms"})
		return
	}

	thread, err := h.store.GetThread(c.Request.Context(), req.ThreadID)
	if err != nil || thread.UserID != user.ID {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.WithFields(logging.Fields{
				"thread_id": req.ThreadID,
				"error":     err.Error(),
			}).Error("Thread lookup failed")
		}
		h.metrics.IncExport(req.Platform, "not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		return
	}

	payload := zapier.ExportPayload{
		Title:       thread.Title,
		Content:     thread.NewsletterContent,
		AuthorEmail: user.Email,
		CreatedAt:   thread.CreatedAt.Format(time.RFC3339),
	}
	if err := h.exporter.Publish(c.Request.Context(), req.Platform, payload); err != nil {
		switch {
		case errors.Is(err, zapier.ErrUnknownPlatform):
			h.metrics.IncExport(req.Platform, "bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown export platform"})
		case errors.Is(err, zapier.ErrNotConfigured):
			h.metrics.IncExport(req.Platform, "not_configured")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Export platform not configured"})
		default:
			h.metrics.IncExport(req.Platform, "failed")
			h.logger.WithFields(logging.Fields{
				"thread_id": req.ThreadID,
				"platform":  req.Platform,
				"error":     err.Error(),
			}).Error("Export delivery failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Export failed. Please try again."})
		}
		return
	}

	if err := h.store.MarkExported(c.Request.Context(), thread.ID, req.Platform); err != nil {
		// Delivery already happened; the missing marker only skews stats.
		h.logger.WithFields(logging.Fields{
			"thread_id": thread.ID,
			"platform":  req.Platform,
			"error":     err.Error(),
		}).Error("Failed to record export")
	}

	h.metrics.IncExport(req.Platform, "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "platform": req.Platform})
}
