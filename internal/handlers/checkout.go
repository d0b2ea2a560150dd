package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/microtoolco/threadforge/internal/auth"
	"github.com/microtoolco/threadforge/internal/config"
	"github.com/microtoolco/threadforge/internal/logging"
	"github.com/microtoolco/threadforge/internal/models"
)

// CheckoutConfig holds the Stripe products and redirect targets.
type CheckoutConfig struct {
	SecretKey       string
	MonthlyPriceID  string
	LifetimePriceID string
	AppURL          string
}

// LoadCheckoutConfig reads Stripe settings from the environment.
func LoadCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		SecretKey:       config.GetEnv("STRIPE_SECRET_KEY", ""),
		MonthlyPriceID:  config.GetEnv("STRIPE_MONTHLY_PRICE_ID", ""),
		LifetimePriceID: config.GetEnv("STRIPE_LIFETIME_PRICE_ID", ""),
		AppURL:          config.GetEnv("APP_URL", "http://localhost:8080"),
	}
}

// CheckoutHandler starts a Stripe checkout session for a plan purchase.
type CheckoutHandler struct {
	cfg    CheckoutConfig
	logger logging.Logger
}

// NewCheckoutHandler creates the checkout handler and installs the Stripe key.
func NewCheckoutHandler(cfg CheckoutConfig, logger logging.Logger) *CheckoutHandler {
	stripe.Key = cfg.SecretKey
	return &CheckoutHandler{cfg: cfg, logger: logger}
}

// Handle processes GET /api/checkout?plan=monthly|lifetime. Signed-out
// visitors are sent to signup first, carrying the chosen plan along.
func (h *CheckoutHandler) Handle(c *gin.Context) {
	planName := c.Query("plan")
	targetPlan, ok := models.ParsePlan(planName)
	if !ok || !targetPlan.Paid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	userID := c.GetString(auth.CtxUserID)
	if userID == "" {
		c.Redirect(http.StatusSeeOther, h.cfg.AppURL+"/signup?plan="+planName)
		return
	}

	if h.cfg.SecretKey == "" {
		h.logger.Error("Checkout requested but STRIPE_SECRET_KEY is not configured")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Billing unavailable"})
		return
	}

	// Monthly renews as a subscription; lifetime is a one-time payment.
	mode := stripe.CheckoutSessionModePayment
	priceID := h.cfg.LifetimePriceID
	if targetPlan == models.PlanMonthly {
		mode = stripe.CheckoutSessionModeSubscription
		priceID = h.cfg.MonthlyPriceID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(h.cfg.AppURL + "/dashboard?upgraded=true"),
		CancelURL:  stripe.String(h.cfg.AppURL + "/dashboard"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(userID),
		Metadata: map[string]string{
			"user_id": userID,
			"plan":    string(targetPlan),
		},
	}
	if email := c.GetString(auth.CtxEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := session.New(params)
	if err != nil {
		h.logger.WithFields(logging.Fields{
			"user_id": userID,
			"plan":    planName,
			"error":   err.Error(),
		}).Error("Failed to create checkout session")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Billing unavailable"})
		return
	}

	c.Redirect(http.StatusSeeOther, sess.URL)
}
