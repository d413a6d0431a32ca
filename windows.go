package main

import (
	"errors"
	"fmt"
	"time"
)

const (
	baselineMonths = 5
	currentMonths  = 3
	daysPerMonth   = 30.44
)

// windowStats holds a product's baseline and current monthly rates. The
// baseline rate is normalized by the product's active ordering span, not the
// fixed five-month window, so a line that was only bought for six weeks is not
// penalized. The current rate is a plain three-month average.
type windowStats struct {
	BaselineQty    float64
	BaselineValue  float64
	BaselineOrders int
	CurrentQty     float64
	CurrentValue   float64
	CurrentOrders  int
	LastOrder      time.Time
}

// CustomerHealth is the whole-relationship view: baseline vs current monthly
// spend across every product.
type CustomerHealth struct {
	BaselineMonthlySpend float64 `json:"baseline_monthly_spend"`
	CurrentMonthlySpend  float64 `json:"current_monthly_spend"`
	DropPercentage       float64 `json:"drop_percentage"`
	Status               string  `json:"status"`
}

const (
	healthHealthy   = "healthy"
	healthDeclining = "declining"
	healthStopped   = "stopped"
)

// referenceDateFor resolves the "now" of the analysis: the explicit input, or
// the latest date seen anywhere in the dataset.
func referenceDateFor(ledger *OrderLedger, explicit string) (time.Time, error) {
	if explicit != "" {
		parsed, ok := parseOrderDate(explicit)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid reference date: %s", explicit)
		}
		return parsed, nil
	}
	latest := ledger.latestOrderDate()
	if latest.IsZero() {
		return time.Time{}, errors.New("no parseable order dates in dataset")
	}
	return latest, nil
}

// productWindowStats computes the two window rates for one product's orders.
// baselineStart is the owning customer's earliest order date.
func productWindowStats(orders []NormalizedOrder, baselineStart, reference time.Time) windowStats {
	stats := windowStats{}
	baselineEnd := baselineStart.AddDate(0, baselineMonths, 0)
	currentStart := reference.AddDate(0, -currentMonths, 0)

	var baseline []NormalizedOrder
	var baselineQty, baselineValue float64
	var currentQty, currentValue float64

	for _, order := range orders {
		if order.Date.IsZero() {
			continue
		}
		if order.Date.After(stats.LastOrder) {
			stats.LastOrder = order.Date
		}
		if !order.Date.Before(baselineStart) && order.Date.Before(baselineEnd) {
			baseline = append(baseline, order)
			baselineQty += order.Quantity
			baselineValue += order.Value
		}
		if order.Date.After(currentStart) && !order.Date.After(reference) {
			stats.CurrentOrders++
			currentQty += order.Quantity
			currentValue += order.Value
		}
	}

	stats.BaselineOrders = len(baseline)
	if len(baseline) > 0 {
		months := activeSpanMonths(baseline)
		stats.BaselineQty = baselineQty / months
		stats.BaselineValue = baselineValue / months
	}
	stats.CurrentQty = currentQty / currentMonths
	stats.CurrentValue = currentValue / currentMonths
	return stats
}

// activeSpanMonths converts (last − first) + average gap into months, with a
// floor of one month so a single order counts as a month of activity.
func activeSpanMonths(orders []NormalizedOrder) float64 {
	first := orders[0].Date
	last := orders[len(orders)-1].Date
	spanDays := last.Sub(first).Hours()/24 + averageGapDays(orders)
	months := spanDays / daysPerMonth
	if months < 1 {
		return 1
	}
	return months
}

// customerHealthFor compares total monthly spend across the same two windows.
// Unlike product baselines, the customer totals use the fixed window spans:
// the baseline starts at the customer's first order by construction, so there
// is no short-lived-line distortion to correct for.
func customerHealthFor(products map[string]*productSeries, baselineStart, reference time.Time) CustomerHealth {
	baselineEnd := baselineStart.AddDate(0, baselineMonths, 0)
	currentStart := reference.AddDate(0, -currentMonths, 0)

	var baselineTotal, currentTotal float64
	for _, series := range products {
		for _, order := range series.Orders {
			if order.Date.IsZero() {
				continue
			}
			if !order.Date.Before(baselineStart) && order.Date.Before(baselineEnd) {
				baselineTotal += order.Value
			}
			if order.Date.After(currentStart) && !order.Date.After(reference) {
				currentTotal += order.Value
			}
		}
	}

	health := CustomerHealth{
		BaselineMonthlySpend: baselineTotal / baselineMonths,
		CurrentMonthlySpend:  currentTotal / currentMonths,
	}
	if health.BaselineMonthlySpend > 0 {
		health.DropPercentage = (health.BaselineMonthlySpend - health.CurrentMonthlySpend) / health.BaselineMonthlySpend * 100
	}
	switch {
	case health.CurrentMonthlySpend == 0:
		health.Status = healthStopped
	case health.DropPercentage >= 30:
		health.Status = healthDeclining
	default:
		health.Status = healthHealthy
	}
	return health
}
