package main

import "time"

// Product trend states. Pure classification per run; no memory of earlier runs.
const (
	trendStable    = "stable"
	trendGrowing   = "growing"
	trendDeclining = "declining"
	trendStopped   = "stopped"
)

// classifyTrend decides a product's direction. Staleness wins: a line silent
// beyond its cadence's stopped window is stopped regardless of measured rates.
func classifyTrend(stats windowStats, th freqThresholds, reference time.Time) string {
	if !stats.LastOrder.IsZero() && weeksSince(reference, stats.LastOrder) >= th.StoppedWeeks {
		return trendStopped
	}
	if stats.BaselineQty == 0 {
		if stats.CurrentQty == 0 {
			return trendStable
		}
		return trendGrowing
	}
	changePct := (stats.CurrentQty - stats.BaselineQty) / stats.BaselineQty * 100
	switch {
	case changePct <= -th.CriticalPct:
		return trendStopped
	case changePct <= -th.DeclinePct:
		return trendDeclining
	case changePct >= 20:
		return trendGrowing
	default:
		return trendStable
	}
}

func weeksSince(reference, last time.Time) int {
	if last.IsZero() || last.After(reference) {
		return 0
	}
	days := int(reference.Sub(last).Hours() / 24)
	return days / 7
}
