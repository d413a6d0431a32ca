package main

import "sort"

// Urgency tiers for the call sheet.
const (
	urgencyCallToday    = "call_today"
	urgencyCallThisWeek = "call_this_week"
	urgencyMonitor      = "monitor"
)

// CustomerActionSummary aggregates a customer's alerts into one call-sheet
// row. Derived entirely from alerts and health; never touches raw records.
type CustomerActionSummary struct {
	CustomerID           string   `json:"customer_id"`
	PriorityScore        float64  `json:"priority_score"`
	PriorityRank         int      `json:"priority_rank"`
	Urgency              string   `json:"urgency"`
	HealthStatus         string   `json:"health_status"`
	CurrentMonthlySpend  float64  `json:"current_monthly_spend"`
	EstimatedMonthlyLoss float64  `json:"estimated_monthly_loss"`
	AlertCount           int      `json:"alert_count"`
	CompetitorAlerts     int      `json:"competitor_alerts"`
	TopLostProducts      []string `json:"top_lost_products"`
}

// priorityScore turns a customer's alerts into a 0-100 score. Four additive
// components, each capped, then multiplicative penalties: a customer whose
// whole business stopped is not a retention call, and a customer with only
// switches or business decline has nothing to win back from a competitor.
func priorityScore(competitorLoss float64, recentWeeks int, hasCompetitorAlert bool, currentSpend float64, competitorCount int, healthStatus string) float64 {
	lossPoints := competitorLoss / 500 * 40
	if lossPoints > 40 {
		lossPoints = 40
	}

	recencyPoints := 0.0
	if hasCompetitorAlert {
		switch {
		case recentWeeks <= 4:
			recencyPoints = 25
		case recentWeeks <= 8:
			recencyPoints = 20
		case recentWeeks <= 16:
			recencyPoints = 15
		case recentWeeks <= 26:
			recencyPoints = 10
		case recentWeeks <= 52:
			recencyPoints = 5
		}
	}

	spendPoints := currentSpend / 3000 * 20
	if spendPoints > 20 {
		spendPoints = 20
	}

	countPoints := float64(competitorCount) * 3
	if countPoints > 15 {
		countPoints = 15
	}

	score := lossPoints + recencyPoints + spendPoints + countPoints
	switch healthStatus {
	case healthStopped:
		score *= 0.1
	case healthDeclining:
		score *= 0.6
	}
	if competitorCount == 0 {
		score *= 0.2
	}
	return round1(score)
}

func urgencyFor(score float64, competitorCount int) string {
	switch {
	case score >= 50 && competitorCount >= 1:
		return urgencyCallToday
	case score >= 25 && competitorCount >= 1:
		return urgencyCallThisWeek
	default:
		return urgencyMonitor
	}
}

// buildActionList folds alerts into one ranked row per customer.
func buildActionList(alerts []CategoryAlert, health map[string]CustomerHealth) []CustomerActionSummary {
	byCustomer := map[string][]CategoryAlert{}
	for _, alert := range alerts {
		byCustomer[alert.CustomerID] = append(byCustomer[alert.CustomerID], alert)
	}

	summaries := make([]CustomerActionSummary, 0, len(byCustomer))
	for customerID, customerAlerts := range byCustomer {
		customerHealth := health[customerID]

		var competitorLoss, totalLoss float64
		competitorCount := 0
		recentWeeks := -1
		for _, alert := range customerAlerts {
			totalLoss += alert.EstimatedMonthlyLoss
			if alert.ChurnReason != reasonCompetitor {
				continue
			}
			competitorCount++
			competitorLoss += alert.EstimatedMonthlyLoss
			if recentWeeks < 0 || alert.WeeksSinceLastOrder < recentWeeks {
				recentWeeks = alert.WeeksSinceLastOrder
			}
		}

		score := priorityScore(competitorLoss, recentWeeks, competitorCount > 0, customerHealth.CurrentMonthlySpend, competitorCount, customerHealth.Status)

		lost := append([]CategoryAlert{}, customerAlerts...)
		sort.SliceStable(lost, func(i, j int) bool {
			return lost[i].EstimatedMonthlyLoss > lost[j].EstimatedMonthlyLoss
		})
		topProducts := make([]string, 0, 3)
		for _, alert := range lost {
			if len(topProducts) == 3 {
				break
			}
			topProducts = append(topProducts, alert.ProductName)
		}

		summaries = append(summaries, CustomerActionSummary{
			CustomerID:           customerID,
			PriorityScore:        score,
			Urgency:              urgencyFor(score, competitorCount),
			HealthStatus:         customerHealth.Status,
			CurrentMonthlySpend:  round2(customerHealth.CurrentMonthlySpend),
			EstimatedMonthlyLoss: round2(totalLoss),
			AlertCount:           len(customerAlerts),
			CompetitorAlerts:     competitorCount,
			TopLostProducts:      topProducts,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].PriorityScore != summaries[j].PriorityScore {
			return summaries[i].PriorityScore > summaries[j].PriorityScore
		}
		return summaries[i].CustomerID < summaries[j].CustomerID
	})
	for i := range summaries {
		summaries[i].PriorityRank = i + 1
	}
	return summaries
}
