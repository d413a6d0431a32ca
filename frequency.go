package main

// Ordering cadence classes. A product ordered twice a year must not be flagged
// "stopped" after a normal ten-week gap, so each class carries its own
// sensitivity thresholds.
const (
	freqCore       = "core"
	freqRegular    = "regular"
	freqOccasional = "occasional"
)

type freqThresholds struct {
	StoppedWeeks int     // no orders for this long = stopped
	DeclinePct   float64 // drop beyond this = declining
	CriticalPct  float64 // drop beyond this = as good as stopped
	MinOrders    int     // baseline orders needed before alerting
}

var thresholdsByFrequency = map[string]freqThresholds{
	freqCore:       {StoppedWeeks: 4, DeclinePct: 50, CriticalPct: 75, MinOrders: 4},
	freqRegular:    {StoppedWeeks: 8, DeclinePct: 40, CriticalPct: 70, MinOrders: 3},
	freqOccasional: {StoppedWeeks: 16, DeclinePct: 75, CriticalPct: 95, MinOrders: 2},
}

// classifyFrequency averages the day gaps between consecutive dated orders.
// Duplicate-dated rows contribute no gap. Fewer than two usable orders means
// there is no cadence to speak of.
func classifyFrequency(orders []NormalizedOrder) string {
	avgGap := averageGapDays(orders)
	if avgGap <= 0 {
		return freqOccasional
	}
	switch {
	case avgGap <= 14:
		return freqCore
	case avgGap <= 45:
		return freqRegular
	default:
		return freqOccasional
	}
}

// averageGapDays expects orders sorted by date and skips undated ones.
func averageGapDays(orders []NormalizedOrder) float64 {
	var prev *NormalizedOrder
	totalDays := 0
	gaps := 0
	for i := range orders {
		order := &orders[i]
		if order.Date.IsZero() {
			continue
		}
		if prev != nil {
			days := int(order.Date.Sub(prev.Date).Hours() / 24)
			if days > 0 {
				totalDays += days
				gaps++
			}
		}
		prev = order
	}
	if gaps == 0 {
		return 0
	}
	return float64(totalDays) / float64(gaps)
}
