// Package plan decides whether an account may run a conversion and which
// formats it may receive.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/microtoolco/threadforge/internal/models"
)

// UsageCounter reports how many conversions an account has recorded since a
// point in time. Paid-plan usage is derived from persisted conversions rather
// than a counter the gate mutates.
type UsageCounter interface {
	CountThreadsSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Denial explains a refused conversion.
type Denial struct {
	Reason string
}

// Decision is the gate's verdict for one conversion request.
type Decision struct {
	Allowed bool
	Denial  *Denial
	// Formats the account actually receives. Free accounts are downgraded
	// to newsletter-only no matter what they asked for.
	Formats []models.Format
}

// MonthStart returns the first instant of now's calendar month in server
// time. Billing periods are timezone-naive and reset on the 1st.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Gate evaluates plan limits against recorded usage.
type Gate struct {
	counter UsageCounter
	now     func() time.Time
}

// New creates a gate. nowFn may be nil, in which case time.Now is used.
func New(counter UsageCounter, nowFn func() time.Time) *Gate {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Gate{counter: counter, now: nowFn}
}

// Check decides whether the user may convert and which formats they get.
// It never mutates usage; charging happens after the conversion succeeds.
func (g *Gate) Check(ctx context.Context, user *models.User, requested []models.Format) (Decision, error) {
	if len(requested) == 0 {
		requested = []models.Format{models.FormatNewsletter}
	}

	if user.Plan == models.PlanFree {
		if user.Credits <= 0 {
			return Decision{Denial: &Denial{
				Reason: "No free credits remaining. Upgrade to Pro for 100 conversions per month!",
			}}, nil
		}
		return Decision{Allowed: true, Formats: []models.Format{models.FormatNewsletter}}, nil
	}

	limit := user.Plan.Limit()
	used, err := g.counter.CountThreadsSince(ctx, user.ID, MonthStart(g.now()))
	if err != nil {
		return Decision{}, fmt.Errorf("count monthly usage: %w", err)
	}
	if used >= limit {
		return Decision{Denial: &Denial{
			Reason: fmt.Sprintf("Monthly limit reached (%d conversions). Your limit resets on the 1st of next month.", limit),
		}}, nil
	}
	return Decision{Allowed: true, Formats: requested}, nil
}
