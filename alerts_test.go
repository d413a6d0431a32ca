package main

import (
	"strings"
	"testing"
	"time"
)

func TestSeverityForCoreProduct(t *testing.T) {
	core := thresholdsByFrequency[freqCore]

	if got := severityFor(80, 1, true, freqCore, core); got != severityCritical {
		t.Fatalf("80%% drop on core: expected critical, got %s", got)
	}
	if got := severityFor(60, 1, true, freqCore, core); got != severityWarning {
		t.Fatalf("60%% drop on core: expected warning, got %s", got)
	}
	if got := severityFor(30, 1, true, freqCore, core); got != severityWatch {
		t.Fatalf("30%% drop on core: expected watch, got %s", got)
	}
	// Staleness beyond the stopped window escalates regardless of drop size.
	if got := severityFor(30, 6, true, freqCore, core); got != severityCritical {
		t.Fatalf("stale core product: expected critical, got %s", got)
	}
}

func TestSeverityMonotonicOnCore(t *testing.T) {
	core := thresholdsByFrequency[freqCore]
	previous := -1
	for drop := 0.0; drop <= 100; drop += 5 {
		rank, ok := severityRank(severityFor(drop, 1, true, freqCore, core))
		if !ok {
			t.Fatalf("unknown severity at drop %.0f", drop)
		}
		if rank < previous {
			t.Fatalf("severity fell from rank %d to %d at drop %.0f", previous, rank, drop)
		}
		previous = rank
	}
}

func TestSeverityOccasionalCappedAtWatch(t *testing.T) {
	occ := thresholdsByFrequency[freqOccasional]
	if got := severityFor(100, 20, true, freqOccasional, occ); got != severityWatch {
		t.Fatalf("occasional products never go critical, got %s", got)
	}
	if got := severityFor(80, 2, true, freqOccasional, occ); got != severityWarning {
		t.Fatalf("occasional 80%% drop: expected warning, got %s", got)
	}
}

func TestChurnReasonFor(t *testing.T) {
	healthy := CustomerHealth{Status: healthHealthy}
	if got := churnReasonFor(healthy, 90); got != reasonCompetitor {
		t.Fatalf("healthy customer dropping a line: expected competitor, got %s", got)
	}

	stopped := CustomerHealth{Status: healthStopped, DropPercentage: 100}
	if got := churnReasonFor(stopped, 100); got != reasonBusinessDecline {
		t.Fatalf("stopped customer: expected business_decline, got %s", got)
	}

	declining := CustomerHealth{Status: healthDeclining, DropPercentage: 45}
	if got := churnReasonFor(declining, 50); got != reasonBusinessDecline {
		t.Fatalf("product tracking overall decline: expected business_decline, got %s", got)
	}
	if got := churnReasonFor(declining, 90); got != reasonCompetitor {
		t.Fatalf("product falling far faster than the account: expected competitor, got %s", got)
	}
}

func TestRecommendationForDiscounts(t *testing.T) {
	discount, action := recommendationFor(severityCritical, reasonCompetitor, "Chicken Wings", "", 80, 0)
	if !floatEqual(discount, 18) {
		t.Fatalf("critical at 80%%: expected 18%% discount, got %.1f", discount)
	}
	if !strings.Contains(action, "URGENT") {
		t.Fatalf("critical action should demand a call today: %q", action)
	}

	discount, _ = recommendationFor(severityCritical, reasonCompetitor, "Chicken Wings", "", 100, 0)
	if !floatEqual(discount, 20) {
		t.Fatalf("critical at 100%%: expected 20%% discount, got %.1f", discount)
	}

	discount, _ = recommendationFor(severityWarning, reasonCompetitor, "Chicken Wings", "", 60, 0)
	if !floatEqual(discount, 8) {
		t.Fatalf("warning at 60%%: expected 8%% discount, got %.1f", discount)
	}

	discount, action = recommendationFor(severityWatch, reasonProductSwitch, "Garlic Spread 500g", "Garlic Spread 2.5kg", 100, 0)
	if !floatEqual(discount, 0) {
		t.Fatalf("switches get no discount, got %.1f", discount)
	}
	if !strings.Contains(action, "Garlic Spread 2.5kg") {
		t.Fatalf("switch action should name the replacement: %q", action)
	}

	discount, action = recommendationFor(severityCritical, reasonBusinessDecline, "Chicken Wings", "", 100, 85)
	if !floatEqual(discount, 0) {
		t.Fatalf("business decline gets no discount, got %.1f", discount)
	}
	if !strings.Contains(action, "85%") {
		t.Fatalf("business decline action should cite the overall drop: %q", action)
	}
}

func TestWinBackProbability(t *testing.T) {
	if got := winBackProbability(50, 5, reasonCompetitor); !floatEqual(got, 0.4) {
		t.Fatalf("expected 0.7-0.15-0.15=0.40, got %.2f", got)
	}
	if got := winBackProbability(100, 52, reasonCompetitor); !floatEqual(got, 0.1) {
		t.Fatalf("expected floor of 0.1, got %.2f", got)
	}
	if got := winBackProbability(0, 0, reasonProductSwitch); !floatEqual(got, 0.85) {
		t.Fatalf("expected switch bonus 0.85, got %.2f", got)
	}

	deep := winBackProbability(90, 10, reasonCompetitor)
	shallow := winBackProbability(40, 10, reasonCompetitor)
	if deep >= shallow {
		t.Fatalf("deeper drops must not be easier to win back: %.2f vs %.2f", deep, shallow)
	}
}

func TestBuildAlertStaleStoppedReadsFullyLost(t *testing.T) {
	reference := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	stats := windowStats{
		BaselineQty:   10,
		BaselineValue: 400,
		CurrentQty:    3.8,
		CurrentValue:  150,
		LastOrder:     reference.AddDate(0, 0, -70),
	}
	health := CustomerHealth{Status: healthHealthy, CurrentMonthlySpend: 900}

	alert := buildAlert("A-1", "chicken wings", "Chicken Wings", trendStopped, freqCore,
		stats, thresholdsByFrequency[freqCore], health, "", false, reference)

	if !floatEqual(alert.DropPercentage, 100) {
		t.Fatalf("stale product should read as fully lost, got %.1f%%", alert.DropPercentage)
	}
	if !floatEqual(alert.CurrentMonthlyQty, 0) {
		t.Fatalf("stale product current qty should read 0, got %.2f", alert.CurrentMonthlyQty)
	}
	if !floatEqual(alert.EstimatedMonthlyLoss, 400) {
		t.Fatalf("loss should be the full baseline value, got %.2f", alert.EstimatedMonthlyLoss)
	}
	if alert.Severity != severityCritical {
		t.Fatalf("expected critical, got %s", alert.Severity)
	}
	if alert.ChurnReason != reasonCompetitor {
		t.Fatalf("healthy account losing a line: expected competitor, got %s", alert.ChurnReason)
	}
	if alert.WeeksSinceLastOrder != 10 {
		t.Fatalf("expected 10 weeks since last order, got %d", alert.WeeksSinceLastOrder)
	}
}

func TestBuildAlertSwitchForcesWatch(t *testing.T) {
	reference := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	stats := windowStats{
		BaselineQty:   8,
		BaselineValue: 200,
		LastOrder:     reference.AddDate(0, 0, -105),
	}

	alert := buildAlert("A-1", "garlic spread 500g", "Garlic Spread 500g", trendStopped, freqRegular,
		stats, thresholdsByFrequency[freqRegular], CustomerHealth{Status: healthHealthy}, "Garlic Spread 2.5kg", true, reference)

	if alert.ChurnReason != reasonProductSwitch {
		t.Fatalf("expected product_switch, got %s", alert.ChurnReason)
	}
	if alert.Severity != severityWatch {
		t.Fatalf("switches are informational, expected watch, got %s", alert.Severity)
	}
	if !alert.IsProductSwitch || alert.SwitchedTo != "Garlic Spread 2.5kg" {
		t.Fatalf("expected switch metadata, got %+v", alert)
	}
	if !floatEqual(alert.RecommendedDiscount, 0) {
		t.Fatalf("switches get no discount, got %.1f", alert.RecommendedDiscount)
	}
}
