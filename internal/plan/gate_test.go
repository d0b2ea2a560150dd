package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/microtoolco/threadforge/internal/models"
)

type stubCounter struct {
	count     int
	err       error
	gotUserID string
	gotSince  time.Time
}

func (s *stubCounter) CountThreadsSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.gotUserID = userID
	s.gotSince = since
	return s.count, s.err
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 15, 10, 30, 0, 0, time.Local)
}

func TestFreePlanWithCreditsDowngradesToNewsletter(t *testing.T) {
	gate := New(&stubCounter{}, fixedNow)
	user := &models.User{ID: "u1", Plan: models.PlanFree, Credits: 2}

	decision, err := gate.Check(context.Background(), user, []models.Format{
		models.FormatNewsletter, models.FormatLinkedIn, models.FormatBlog,
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected allowed")
	}
	if len(decision.Formats) != 1 || decision.Formats[0] != models.FormatNewsletter {
		t.Fatalf("formats = %v", decision.Formats)
	}
}

func TestFreePlanZeroCreditsDenied(t *testing.T) {
	gate := New(&stubCounter{}, fixedNow)
	user := &models.User{ID: "u1", Plan: models.PlanFree, Credits: 0}

	decision, err := gate.Check(context.Background(), user, []models.Format{models.FormatNewsletter})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Allowed || decision.Denial == nil {
		t.Fatal("expected denial")
	}
	if decision.Denial.Reason != "No free credits remaining. Upgrade to Pro for 100 conversions per month!" {
		t.Fatalf("reason = %q", decision.Denial.Reason)
	}
}

func TestMonthlyPlanBoundary(t *testing.T) {
	for _, tc := range []struct {
		used    int
		allowed bool
	}{
		{99, true},
		{100, false},
	} {
		counter := &stubCounter{count: tc.used}
		gate := New(counter, fixedNow)
		user := &models.User{ID: "u1", Plan: models.PlanMonthly}

		decision, err := gate.Check(context.Background(), user, []models.Format{models.FormatBlog})
		if err != nil {
			t.Fatalf("Check(%d used): %v", tc.used, err)
		}
		if decision.Allowed != tc.allowed {
			t.Fatalf("used=%d allowed=%v, want %v", tc.used, decision.Allowed, tc.allowed)
		}
		if !tc.allowed && decision.Denial.Reason != "Monthly limit reached (100 conversions). Your limit resets on the 1st of next month." {
			t.Fatalf("reason = %q", decision.Denial.Reason)
		}
	}
}

// The lifetime plan keeps a 200-per-month cap. That matches the billing
// contract as implemented, even though "lifetime" might suggest no cap.
func TestLifetimePlanMonthlyCap(t *testing.T) {
	counter := &stubCounter{count: 200}
	gate := New(counter, fixedNow)
	user := &models.User{ID: "u1", Plan: models.PlanLifetime}

	decision, err := gate.Check(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Allowed {
		t.Fatal("lifetime plan must be capped at 200 per month")
	}

	counter.count = 199
	decision, err = gate.Check(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("199 used should be allowed")
	}
}

func TestPaidPlanKeepsRequestedFormats(t *testing.T) {
	gate := New(&stubCounter{count: 5}, fixedNow)
	user := &models.User{ID: "u1", Plan: models.PlanMonthly}

	requested := []models.Format{models.FormatNewsletter, models.FormatInstagram}
	decision, err := gate.Check(context.Background(), user, requested)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(decision.Formats) != 2 {
		t.Fatalf("formats = %v", decision.Formats)
	}
}

func TestUsageCountedFromMonthStart(t *testing.T) {
	counter := &stubCounter{}
	gate := New(counter, fixedNow)
	user := &models.User{ID: "u42", Plan: models.PlanMonthly}

	if _, err := gate.Check(context.Background(), user, nil); err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local)
	if !counter.gotSince.Equal(want) {
		t.Fatalf("since = %v, want %v", counter.gotSince, want)
	}
	if counter.gotUserID != "u42" {
		t.Fatalf("userID = %q", counter.gotUserID)
	}
}

func TestCounterErrorPropagates(t *testing.T) {
	gate := New(&stubCounter{err: errors.New("db down")}, fixedNow)
	user := &models.User{ID: "u1", Plan: models.PlanMonthly}

	if _, err := gate.Check(context.Background(), user, nil); err == nil {
		t.Fatal("expected error")
	}
}
