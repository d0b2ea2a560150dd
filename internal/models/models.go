package models

import "time"

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanMonthly  Plan = "monthly"
	PlanLifetime Plan = "lifetime"
)

// PlanLimits maps each plan to its conversion allowance. Free is a total
// credit allotment granted at signup; monthly and lifetime are per-calendar-
// month caps. The lifetime cap is intentionally kept at 200/month to match
// the billing contract as sold, not "unlimited".
var PlanLimits = map[Plan]int{
	PlanFree:     3,
	PlanMonthly:  100,
	PlanLifetime: 200,
}

// Limit returns the conversion allowance for p, defaulting to the free tier
// for unknown plans.
func (p Plan) Limit() int {
	if limit, ok := PlanLimits[p]; ok {
		return limit
	}
	return PlanLimits[PlanFree]
}

// ParsePlan maps a wire string onto a Plan, reporting whether it is one of
// the known tiers.
func ParsePlan(s string) (Plan, bool) {
	switch Plan(s) {
	case PlanFree, PlanMonthly, PlanLifetime:
		return Plan(s), true
	}
	return "", false
}

// Paid reports whether p is a paying tier.
func (p Plan) Paid() bool {
	return p == PlanMonthly || p == PlanLifetime
}

// User is an account record.
type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	Plan                 Plan      `json:"plan"`
	Credits              int       `json:"credits"`
	StripeCustomerID     string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string    `json:"stripe_subscription_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Post is one normalized entry of a source thread. Ordering within a thread
// is significant: it carries the narrative flow every output format depends
// on.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Images    []string  `json:"images,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AffiliateLink is a user-supplied link the generators may weave into
// newsletter and blog output when contextually relevant.
type AffiliateLink struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Keywords    []string  `json:"keywords"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Thread status values.
const (
	ThreadStatusPending    = "pending"
	ThreadStatusProcessing = "processing"
	ThreadStatusCompleted  = "completed"
	ThreadStatusFailed     = "failed"
)

// Thread is a persisted conversion: the source posts plus the generated
// newsletter.
type Thread struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ThreadURL         string    `json:"thread_url"`
	ThreadID          string    `json:"thread_id"`
	OriginalPosts     []Post    `json:"original_tweets"`
	NewsletterContent string    `json:"newsletter_content"`
	Title             string    `json:"title"`
	Status            string    `json:"status"`
	ExportedTo        string    `json:"exported_to,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Stats summarizes an account's activity for the dashboard.
type Stats struct {
	TotalThreads     int    `json:"totalThreads"`
	TotalExports     int    `json:"totalExports"`
	CreditsRemaining int    `json:"creditsRemaining"`
	ThisMonth        int    `json:"thisMonth"`
	Plan             Plan   `json:"plan"`
	MonthlyLimit     int    `json:"monthlyLimit"`
}
