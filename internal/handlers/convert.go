package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/extractor"
	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/orchestrator"
	"github.com/microtoolco/threadforge/internal/prompts"
)

// ConvertRequest is the conversion endpoint's body. Exactly one of ThreadURL
// or ManualContent must be set.
type ConvertRequest struct {
	ThreadURL         string   `json:"threadUrl"`
	ManualContent     string   `json:"manualContent"`
	Author            string   `json:"author"`
	Style             string   `json:"style"`
	IncludeAffiliates bool     `json:"includeAffiliates"`
	Formats           []string `json:"formats"`
	MultiFormat       bool     `json:"multiFormat"`
}

// ConvertHandler runs the full conversion pipeline: gate, extract, generate,
// persist, charge.
type ConvertHandler struct {
	store     Store
	threads   ThreadSource
	splitter  PostExtractor
	gate      Gate
	converter Converter
	logger    logging.Logger
	metrics   *AppMetrics
}

// NewConvertHandler creates the conversion handler. splitter may be nil, in
// which case pasted content is split by separator patterns only.
func NewConvertHandler(
	store Store,
	threads ThreadSource,
	splitter PostExtractor,
	gate Gate,
	converter Converter,
	logger logging.Logger,
	metrics *AppMetrics,
) *ConvertHandler {
	return &ConvertHandler{
		store:     store,
		threads:   threads,
		splitter:  splitter,
		gate:      gate,
		converter: converter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle processes POST /api/convert. Anonymous visitors may convert; they
// get newsletter-only output and nothing is persisted or charged.
func (h *ConvertHandler) Handle(c *gin.Context) {
	start := time.Now()

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.IncConversion("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
		return
	}
	if req.ThreadURL == "" && req.ManualContent == "" {
		h.metrics.IncConversion("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Provide a thread URL or pasted content"})
		return
	}

	requested, ok := h.requestedFormats(req)
	if !ok {
		h.metrics.IncConversion("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unsupported format requested"})
		return
	}

	var user *models.User
	if userID := c.GetString(auth.CtxUserID); userID != "" {
		var err error
		user, err = h.store.GetUser(c.Request.Context(), userID)
		if err != nil {
			h.metrics.IncConversion("auth_failed")
			h.logger.WithFields(logging.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Conversion with unknown account")
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid session"})
			return
		}
	}

	formats := []models.Format{models.FormatNewsletter}
	if user != nil {
		decision, err := h.gate.Check(c.Request.Context(), user, requested)
		if err != nil {
			h.metrics.IncConversion("error")
			h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Plan gate check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
			return
		}
		if !decision.Allowed {
			h.metrics.IncConversion("denied")
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": decision.Denial.Reason})
			return
		}
		formats = decision.Formats
	}

	posts, threadID, ok := h.collectPosts(c, req)
	if !ok {
		return
	}

	var affiliates []models.AffiliateLink
	if user != nil && req.IncludeAffiliates {
		links, err := h.store.ListActiveAffiliates(c.Request.Context(), user.ID)
		if err != nil {
			// Affiliate context is an enhancement, not a prerequisite.
			h.logger.WithFields(logging.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Warn("Could not load affiliate links")
		} else {
			affiliates = links
		}
	}

	result, err := h.converter.Generate(c.Request.Context(), orchestrator.Request{
		Posts:      posts,
		Affiliates: affiliates,
		Style:      prompts.NormalizeStyle(req.Style),
		Formats:    formats,
	})
	if err != nil {
		h.metrics.IncConversion("generation_failed")
		fields := logging.Fields{"error": err.Error()}
		var genErr *orchestrator.GenerationError
		if errors.As(err, &genErr) {
			fields["format"] = genErr.Format
		}
		h.logger.WithFields(fields).Error("Conversion failed")
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Conversion failed. Please try again."})
		return
	}

	resp := gin.H{"success": true}
	if user != nil {
		if id := h.recordConversion(c, user, req, threadID, posts, result); id != "" {
			resp["threadId"] = id
		}
	}

	if result.Newsletter != nil {
		resp["newsletter"] = result.Newsletter
	}
	if req.MultiFormat {
		resp["formats"] = result.Outputs
	}

	h.metrics.IncConversion("success")
	h.metrics.ObserveConversion(req.MultiFormat, time.Since(start).Seconds())
	c.JSON(http.StatusOK, resp)
}

func (h *ConvertHandler) requestedFormats(req ConvertRequest) ([]models.Format, bool) {
	if !req.MultiFormat || len(req.Formats) == 0 {
		return []models.Format{models.FormatNewsletter}, true
	}
	formats := make([]models.Format, 0, len(req.Formats))
	for _, raw := range req.Formats {
		format, ok := models.ParseFormat(raw)
		if !ok {
			return nil, false
		}
		formats = append(formats, format)
	}
	return formats, true
}

// collectPosts resolves the input path: thread fetch for URLs, model-assisted
// or separator splitting for pasted text. It writes the error response itself
// when it returns ok=false.
func (h *ConvertHandler) collectPosts(c *gin.Context, req ConvertRequest) ([]models.Post, string, bool) {
	if req.ThreadURL != "" {
		posts, err := h.threads.FromURL(c.Request.Context(), req.ThreadURL)
		if err != nil {
			h.metrics.IncConversion("extract_failed")
			switch {
			case errors.Is(err, extractor.ErrInvalidThreadURL):
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid thread URL"})
			case errors.Is(err, extractor.ErrThreadNotFound):
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Thread not found"})
			case errors.Is(err, extractor.ErrUpstreamUnavailable):
				c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Could not fetch the thread. Paste the content instead."})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
			}
			return nil, "", false
		}
		threadID, _ := extractor.ParseThreadID(req.ThreadURL)
		return posts, threadID, true
	}

	author := req.Author
	if author == "" {
		author = "@user"
	}

	manualID := "manual_" + uuid.New().String()
	if h.splitter != nil {
		if posts, err := h.splitter.ExtractPosts(c.Request.Context(), req.ManualContent, author); err == nil {
			return posts, manualID, true
		} else {
			h.logger.WithFields(logging.Fields{"error": err.Error()}).Warn("Model-assisted splitting failed, using separators")
		}
	}

	posts := extractor.ParseManual(req.ManualContent, author)
	if len(posts) == 0 {
		h.metrics.IncConversion("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No content to convert"})
		return nil, "", false
	}
	return posts, manualID, true
}

// recordConversion persists the thread and charges usage. Failures here are
// logged, never surfaced: the user already has their content.
func (h *ConvertHandler) recordConversion(
	c *gin.Context,
	user *models.User,
	req ConvertRequest,
	threadID string,
	posts []models.Post,
	result *orchestrator.Result,
) string {
	title := "Untitled Newsletter"
	content := ""
	if result.Newsletter != nil {
		title = result.Newsletter.Title
		content = result.Newsletter.Content
	} else {
		for _, format := range models.AllFormats {
			if out, ok := result.Outputs[format]; ok {
				title = out.Title
				content = out.Content
				break
			}
		}
	}

	threadURL := req.ThreadURL
	if threadURL == "" {
		threadURL = "manual_input"
	}

	thread := &models.Thread{
		UserID:            user.ID,
		ThreadURL:         threadURL,
		ThreadID:          threadID,
		OriginalPosts:     posts,
		NewsletterContent: content,
		Title:             title,
		Status:            models.ThreadStatusCompleted,
	}
	if err := h.store.InsertThread(c.Request.Context(), thread); err != nil {
		h.logger.WithFields(logging.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Error("Failed to persist conversion")
		return ""
	}

	if user.Plan == models.PlanFree {
		if err := h.store.DecrementCredits(c.Request.Context(), user.ID); err != nil {
			h.logger.WithFields(logging.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Error("Failed to charge credit")
		}
	}
	return thread.ID
}
