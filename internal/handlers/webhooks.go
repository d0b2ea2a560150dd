package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/models"
	"github.com/microtoolco/threadforge/internal/store"
)

const signatureTolerance = 5 * time.Minute

// stripeEvent is the envelope every billing event arrives in. Data.Object is
// decoded per event type.
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// checkoutSessionObject for checkout.session.completed events.
type checkoutSessionObject struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata struct {
		UserID string `json:"user_id"`
		Plan   string `json:"plan"`
	} `json:"metadata"`
}

// subscriptionObject for customer.subscription.* events.
type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Metadata struct {
		UserID string `json:"user_id"`
	} `json:"metadata"`
}

// WebhookHandler applies billing events to account plan and credits.
type WebhookHandler struct {
	store   Store
	secret  string
	logger  logging.Logger
	metrics *AppMetrics
	now     func() time.Time
}

// NewWebhookHandler creates the webhook handler. nowFn may be nil.
func NewWebhookHandler(st Store, secret string, logger logging.Logger, metrics *AppMetrics, nowFn func() time.Time) *WebhookHandler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &WebhookHandler{store: st, secret: secret, logger: logger, metrics: metrics, now: nowFn}
}

// Handle processes POST /api/webhook. Events are verified against the raw
// body, applied at most once, and always acknowledged once applied so the
// sender stops redelivering.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if !verifySignature(body, signature, h.secret, h.now()) {
		h.metrics.IncWebhook("unknown", "bad_signature")
		h.logger.Warn("Webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.metrics.IncWebhook("unknown", "bad_payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	processed, err := h.store.IsWebhookProcessed(c.Request.Context(), event.ID)
	if err != nil {
		h.metrics.IncWebhook(event.Type, "error")
		h.logger.WithFields(logging.Fields{"event_id": event.ID, "error": err.Error()}).Error("Webhook idempotency check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	if processed {
		h.metrics.IncWebhook(event.Type, "duplicate")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(c, event)
	case "customer.subscription.created", "customer.subscription.updated":
		err = h.handleSubscriptionChanged(c, event)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(c, event)
	default:
		h.logger.WithFields(logging.Fields{"type": event.Type}).Info("Ignoring webhook event type")
	}
	if err != nil {
		h.metrics.IncWebhook(event.Type, "error")
		h.logger.WithFields(logging.Fields{
			"event_id": event.ID,
			"type":     event.Type,
			"error":    err.Error(),
		}).Error("Webhook event processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	if err := h.store.MarkWebhookProcessed(c.Request.Context(), event.ID, event.Type); err != nil {
		h.logger.WithFields(logging.Fields{"event_id": event.ID, "error": err.Error()}).Error("Failed to record webhook event")
	}

	h.metrics.IncWebhook(event.Type, "success")
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) handleCheckoutCompleted(c *gin.Context, event stripeEvent) error {
	var object checkoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return err
	}

	targetPlan, ok := models.ParsePlan(object.Metadata.Plan)
	if !ok || !targetPlan.Paid() {
		return errors.New("checkout session without a paid plan in metadata")
	}

	userID := object.Metadata.UserID
	if userID == "" {
		userID = object.ClientReferenceID
	}
	if userID == "" && object.CustomerDetails.Email != "" {
		user, err := h.store.GetUserByEmail(c.Request.Context(), object.CustomerDetails.Email)
		if err != nil {
			return err
		}
		userID = user.ID
	}
	if userID == "" {
		return errors.New("checkout session carries no user identity")
	}

	if err := h.store.SetPlan(c.Request.Context(), userID, targetPlan, 0, object.Customer, object.Subscription); err != nil {
		return err
	}

	h.logger.WithFields(logging.Fields{
		"user_id": userID,
		"plan":    targetPlan,
	}).Info("Account upgraded")
	return nil
}

// handleSubscriptionChanged tracks subscription status transitions. An
// active subscription carries the monthly plan; any other status (past_due,
// unpaid, canceled) reverts the account to free.
func (h *WebhookHandler) handleSubscriptionChanged(c *gin.Context, event stripeEvent) error {
	var object subscriptionObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return err
	}
	if object.Metadata.UserID == "" {
		h.logger.WithFields(logging.Fields{"subscription": object.ID}).Warn("Subscription change without user metadata")
		return nil
	}

	targetPlan := models.PlanFree
	subscriptionID := ""
	if object.Status == "active" {
		targetPlan = models.PlanMonthly
		subscriptionID = object.ID
	}

	if err := h.store.SetPlan(c.Request.Context(), object.Metadata.UserID, targetPlan, 0, object.Customer, subscriptionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	h.logger.WithFields(logging.Fields{
		"user_id": object.Metadata.UserID,
		"status":  object.Status,
		"plan":    targetPlan,
	}).Info("Subscription status applied")
	return nil
}

func (h *WebhookHandler) handleSubscriptionDeleted(c *gin.Context, event stripeEvent) error {
	var object subscriptionObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return err
	}
	if object.Metadata.UserID == "" {
		// Sessions created by this service always set user_id; an event
		// without one belongs to a subscription we did not create.
		h.logger.WithFields(logging.Fields{"subscription": object.ID}).Warn("Subscription deletion without user metadata")
		return nil
	}

	if err := h.store.SetPlan(c.Request.Context(), object.Metadata.UserID, models.PlanFree, 0, object.Customer, ""); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	h.logger.WithFields(logging.Fields{"user_id": object.Metadata.UserID}).Info("Account downgraded to free")
	return nil
}

// verifySignature checks a Stripe-style signature header, t=timestamp with
// one or more v1= HMAC-SHA256 signatures over "timestamp.payload". Signatures
// older than the tolerance are rejected.
func verifySignature(payload []byte, header, secret string, now time.Time) bool {
	if header == "" || secret == "" {
		return false
	}

	var timestamp string
	var signatures []string
	for _, element := range strings.Split(header, ",") {
		parts := strings.SplitN(element, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "t":
			timestamp = parts[1]
		case "v1":
			signatures = append(signatures, parts[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	timestampInt, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if now.Unix()-timestampInt > int64(signatureTolerance.Seconds()) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + string(payload)))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, provided := range signatures {
		if hmac.Equal([]byte(expected), []byte(provided)) {
			return true
		}
	}
	return false
}
