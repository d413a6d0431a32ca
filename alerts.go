package main

import (
	"fmt"
	"time"
)

const (
	severityCritical = "critical"
	severityWarning  = "warning"
	severityWatch    = "watch"
)

const (
	reasonCompetitor      = "competitor"
	reasonProductSwitch   = "product_switch"
	reasonBusinessDecline = "business_decline"
)

// CategoryAlert is one declining/stopped (customer, product) pair. Immutable
// once built; downstream stages only sort and filter.
type CategoryAlert struct {
	CustomerID           string  `json:"customer_id"`
	Product              string  `json:"product"`
	ProductName          string  `json:"product_name"`
	SignalType           string  `json:"signal_type"`
	Severity             string  `json:"severity"`
	Frequency            string  `json:"frequency"`
	BaselineMonthlyQty   float64 `json:"baseline_monthly_qty"`
	CurrentMonthlyQty    float64 `json:"current_monthly_qty"`
	DropPercentage       float64 `json:"drop_percentage"`
	WeeksSinceLastOrder  int     `json:"weeks_since_last_order"`
	EstimatedMonthlyLoss float64 `json:"estimated_monthly_loss"`
	ChurnReason          string  `json:"churn_reason"`
	IsProductSwitch      bool    `json:"is_product_switch"`
	SwitchedTo           string  `json:"switched_to,omitempty"`
	RecommendedDiscount  float64 `json:"recommended_discount"`
	RecommendedAction    string  `json:"recommended_action"`
}

func severityRank(value string) (int, bool) {
	switch value {
	case severityWatch:
		return 0, true
	case severityWarning:
		return 1, true
	case severityCritical:
		return 2, true
	default:
		return 0, false
	}
}

// severityFor grades an alert from drop magnitude and staleness. Occasional
// lines are a low-confidence signal, so a critical there is demoted to watch.
func severityFor(dropPct float64, weeks int, hasLastOrder bool, frequency string, th freqThresholds) string {
	severity := severityWatch
	switch {
	case dropPct >= th.CriticalPct:
		severity = severityCritical
	case dropPct >= th.DeclinePct:
		severity = severityWarning
	}
	if hasLastOrder && weeks >= th.StoppedWeeks {
		severity = severityCritical
	}
	if frequency == freqOccasional && severity == severityCritical {
		severity = severityWatch
	}
	return severity
}

// churnReasonFor attributes the decline. Switches are handled by the caller
// and take precedence over everything here.
func churnReasonFor(health CustomerHealth, productDropPct float64) string {
	switch health.Status {
	case healthStopped:
		return reasonBusinessDecline
	case healthDeclining:
		if productDropPct-health.DropPercentage > 20 {
			return reasonCompetitor
		}
		return reasonBusinessDecline
	default:
		return reasonCompetitor
	}
}

// recommendationFor selects discount and call script by severity and reason.
func recommendationFor(severity, reason, productName, switchedTo string, dropPct, overallDropPct float64) (float64, string) {
	switch reason {
	case reasonProductSwitch:
		return 0, fmt.Sprintf("No pricing action needed: %s appears to have been replaced by %s. Confirm the swap on the next call.", productName, switchedTo)
	case reasonBusinessDecline:
		return 0, fmt.Sprintf("Overall spend is down %.0f%%; discounting %s alone won't help. Check in on how the customer's business is doing.", overallDropPct, productName)
	}
	switch severity {
	case severityCritical:
		discount := 10 + dropPct/10
		if discount > 25 {
			discount = 25
		}
		return discount, fmt.Sprintf("URGENT: call today. Offer %.0f%% off %s for the next 4 weeks to win the line back.", discount, productName)
	case severityWarning:
		discount := 5 + dropPct/20
		if discount > 15 {
			discount = 15
		}
		return discount, fmt.Sprintf("Schedule a call within 48 hours. Offer a %.0f%% loyalty discount on %s or bundle it with their regular items.", discount, productName)
	default:
		return 5, fmt.Sprintf("Monitor closely. Consider %s samples in the next delivery or promotional pricing.", productName)
	}
}

// winBackProbability estimates the chance of recovering the line: optimistic
// start, eroded by drop depth and staleness. A switch keeps the spend in
// house, so recovery is easier.
func winBackProbability(dropPct float64, weeks int, reason string) float64 {
	probability := 0.7
	probability -= dropPct / 100 * 0.3
	decay := float64(weeks) * 0.03
	if decay > 0.3 {
		decay = 0.3
	}
	probability -= decay
	if reason == reasonProductSwitch {
		probability += 0.15
	}
	if probability < 0.1 {
		probability = 0.1
	}
	if probability > 0.9 {
		probability = 0.9
	}
	return probability
}

// buildAlert assembles the alert for a flagged product. A product stale beyond
// its stopped window is treated as fully lost: the drop reads 100% and the
// loss is the whole baseline monthly value, even if stale orders still fall
// inside the current window.
func buildAlert(customerID, productKey, productName, trend, frequency string, stats windowStats, th freqThresholds, health CustomerHealth, switchedTo string, isSwitch bool, reference time.Time) CategoryAlert {
	weeks := weeksSince(reference, stats.LastOrder)
	staleStopped := !stats.LastOrder.IsZero() && weeks >= th.StoppedWeeks

	dropPct := 0.0
	currentQty := stats.CurrentQty
	currentValue := stats.CurrentValue
	if staleStopped {
		dropPct = 100
		currentQty = 0
		currentValue = 0
	} else if stats.BaselineQty > 0 {
		dropPct = (stats.BaselineQty - stats.CurrentQty) / stats.BaselineQty * 100
	}
	if dropPct < 0 {
		dropPct = 0
	}

	loss := stats.BaselineValue - currentValue
	if loss < 0 {
		loss = 0
	}

	severity := severityFor(dropPct, weeks, !stats.LastOrder.IsZero(), frequency, th)
	reason := churnReasonFor(health, dropPct)
	if isSwitch {
		reason = reasonProductSwitch
		severity = severityWatch
	}
	discount, action := recommendationFor(severity, reason, productName, switchedTo, dropPct, health.DropPercentage)

	return CategoryAlert{
		CustomerID:           customerID,
		Product:              productKey,
		ProductName:          productName,
		SignalType:           trend,
		Severity:             severity,
		Frequency:            frequency,
		BaselineMonthlyQty:   round2(stats.BaselineQty),
		CurrentMonthlyQty:    round2(currentQty),
		DropPercentage:       round1(dropPct),
		WeeksSinceLastOrder:  weeks,
		EstimatedMonthlyLoss: round2(loss),
		ChurnReason:          reason,
		IsProductSwitch:      isSwitch,
		SwitchedTo:           switchedTo,
		RecommendedDiscount:  round1(discount),
		RecommendedAction:    action,
	}
}
