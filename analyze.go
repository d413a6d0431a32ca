package main

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ProductProfile records a product's measured pattern whether or not it
// alerted. Insufficient-evidence products get a profile but never an alert.
type ProductProfile struct {
	ProductName          string  `json:"product_name"`
	Frequency            string  `json:"frequency"`
	Trend                string  `json:"trend"`
	BaselineMonthlyQty   float64 `json:"baseline_monthly_qty"`
	BaselineMonthlyValue float64 `json:"baseline_monthly_value"`
	CurrentMonthlyQty    float64 `json:"current_monthly_qty"`
	CurrentMonthlyValue  float64 `json:"current_monthly_value"`
	BaselineOrders       int     `json:"baseline_orders"`
	TotalOrders          int     `json:"total_orders"`
	LastOrderDate        string  `json:"last_order_date,omitempty"`
	WeeksSinceLastOrder  int     `json:"weeks_since_last_order"`
}

// Recommendation is one of the top retention plays.
type Recommendation struct {
	Priority           int     `json:"priority"`
	CustomerID         string  `json:"customer_id"`
	Product            string  `json:"product"`
	Action             string  `json:"action"`
	Discount           float64 `json:"discount"`
	PotentialSave      float64 `json:"potential_save"`
	WinBackProbability float64 `json:"win_back_probability"`
}

type AnalysisSummary struct {
	ReferenceDate             string   `json:"reference_date"`
	TotalCustomers            int      `json:"total_customers"`
	CustomersWithAlerts       int      `json:"customers_with_alerts"`
	TotalAlerts               int      `json:"total_alerts"`
	CriticalAlerts            int      `json:"critical_alerts"`
	WarningAlerts             int      `json:"warning_alerts"`
	WatchAlerts               int      `json:"watch_alerts"`
	CompetitorAlerts          int      `json:"competitor_alerts"`
	SwitchAlerts              int      `json:"switch_alerts"`
	BusinessDeclineAlerts     int      `json:"business_decline_alerts"`
	CallToday                 int      `json:"call_today"`
	CallThisWeek              int      `json:"call_this_week"`
	TotalEstimatedMonthlyLoss float64  `json:"total_estimated_monthly_loss"`
	ProductsAtRisk            []string `json:"products_at_risk"`
	RecordsAnalyzed           int      `json:"records_analyzed"`
	RecordsSkipped            int      `json:"records_skipped"`
}

// AnalysisResult is the full output of one run: the only artifact that
// crosses the engine boundary.
type AnalysisResult struct {
	Alerts           []CategoryAlert                      `json:"alerts"`
	CustomerProfiles map[string]map[string]ProductProfile `json:"customer_profiles"`
	CustomerHealth   map[string]CustomerHealth            `json:"customer_health"`
	ActionList       []CustomerActionSummary              `json:"action_list"`
	Recommendations  []Recommendation                     `json:"recommendations"`
	Summary          AnalysisSummary                      `json:"summary"`
}

// runAnalysis is the whole engine: one call, one bounded input, one output.
// No state survives the call, so identical input and reference date always
// produce an identical result.
func runAnalysis(records []RawRecord, referenceDate string) (*AnalysisResult, error) {
	if len(records) == 0 {
		return nil, errors.New("no order records to analyze")
	}

	roles := detectFieldRoles(records[0])
	ledger := buildLedger(records, roles)
	if len(ledger.Customers) == 0 {
		return nil, errors.New("no usable order rows after normalization; check the input columns")
	}

	reference, err := referenceDateFor(ledger, referenceDate)
	if err != nil {
		return nil, err
	}

	var alerts []CategoryAlert
	profiles := map[string]map[string]ProductProfile{}
	healthByCustomer := map[string]CustomerHealth{}

	for _, customerID := range ledger.customerIDs() {
		products := ledger.Customers[customerID]
		baselineStart := earliestOrderDate(products)
		health := customerHealthFor(products, baselineStart, reference)
		healthByCustomer[customerID] = CustomerHealth{
			BaselineMonthlySpend: round2(health.BaselineMonthlySpend),
			CurrentMonthlySpend:  round2(health.CurrentMonthlySpend),
			DropPercentage:       round1(health.DropPercentage),
			Status:               health.Status,
		}

		statsByProduct := map[string]windowStats{}
		profiles[customerID] = map[string]ProductProfile{}
		for _, productKey := range productKeysOf(products) {
			series := products[productKey]
			stats := productWindowStats(series.Orders, baselineStart, reference)
			statsByProduct[productKey] = stats

			frequency := classifyFrequency(series.Orders)
			trend := classifyTrend(stats, thresholdsByFrequency[frequency], reference)
			profiles[customerID][productKey] = ProductProfile{
				ProductName:          series.DisplayName,
				Frequency:            frequency,
				Trend:                trend,
				BaselineMonthlyQty:   round2(stats.BaselineQty),
				BaselineMonthlyValue: round2(stats.BaselineValue),
				CurrentMonthlyQty:    round2(stats.CurrentQty),
				CurrentMonthlyValue:  round2(stats.CurrentValue),
				BaselineOrders:       stats.BaselineOrders,
				TotalOrders:          len(series.Orders),
				LastOrderDate:        formatDate(stats.LastOrder),
				WeeksSinceLastOrder:  weeksSince(reference, stats.LastOrder),
			}
		}

		for _, productKey := range productKeysOf(products) {
			profile := profiles[customerID][productKey]
			if profile.Trend != trendDeclining && profile.Trend != trendStopped {
				continue
			}
			th := thresholdsByFrequency[profile.Frequency]
			if profile.BaselineOrders < th.MinOrders {
				continue
			}
			switchedTo, isSwitch := findProductSwitch(products, productKey, statsByProduct)
			alert := buildAlert(customerID, productKey, profile.ProductName, profile.Trend, profile.Frequency,
				statsByProduct[productKey], th, health, switchedTo, isSwitch, reference)
			alerts = append(alerts, alert)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, _ := severityRank(alerts[i].Severity)
		rj, _ := severityRank(alerts[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if alerts[i].EstimatedMonthlyLoss != alerts[j].EstimatedMonthlyLoss {
			return alerts[i].EstimatedMonthlyLoss > alerts[j].EstimatedMonthlyLoss
		}
		if alerts[i].CustomerID != alerts[j].CustomerID {
			return alerts[i].CustomerID < alerts[j].CustomerID
		}
		return alerts[i].Product < alerts[j].Product
	})

	actionList := buildActionList(alerts, healthByCustomer)

	recommendations := make([]Recommendation, 0, 10)
	for _, alert := range alerts {
		if len(recommendations) == 10 {
			break
		}
		recommendations = append(recommendations, Recommendation{
			Priority:           len(recommendations) + 1,
			CustomerID:         alert.CustomerID,
			Product:            alert.ProductName,
			Action:             alert.RecommendedAction,
			Discount:           alert.RecommendedDiscount,
			PotentialSave:      alert.EstimatedMonthlyLoss,
			WinBackProbability: round2(winBackProbability(alert.DropPercentage, alert.WeeksSinceLastOrder, alert.ChurnReason)),
		})
	}

	return &AnalysisResult{
		Alerts:           alerts,
		CustomerProfiles: profiles,
		CustomerHealth:   healthByCustomer,
		ActionList:       actionList,
		Recommendations:  recommendations,
		Summary:          buildSummary(alerts, actionList, ledger, len(healthByCustomer), reference),
	}, nil
}

func buildSummary(alerts []CategoryAlert, actionList []CustomerActionSummary, ledger *OrderLedger, totalCustomers int, reference time.Time) AnalysisSummary {
	summary := AnalysisSummary{
		ReferenceDate:   reference.Format("2006-01-02"),
		TotalCustomers:  totalCustomers,
		TotalAlerts:     len(alerts),
		RecordsAnalyzed: ledger.Rows - ledger.Skipped,
		RecordsSkipped:  ledger.Skipped,
	}

	customersWithAlerts := map[string]bool{}
	atRisk := map[string]bool{}
	for _, alert := range alerts {
		customersWithAlerts[alert.CustomerID] = true
		atRisk[alert.ProductName] = true
		summary.TotalEstimatedMonthlyLoss += alert.EstimatedMonthlyLoss
		switch alert.Severity {
		case severityCritical:
			summary.CriticalAlerts++
		case severityWarning:
			summary.WarningAlerts++
		case severityWatch:
			summary.WatchAlerts++
		}
		switch alert.ChurnReason {
		case reasonCompetitor:
			summary.CompetitorAlerts++
		case reasonProductSwitch:
			summary.SwitchAlerts++
		case reasonBusinessDecline:
			summary.BusinessDeclineAlerts++
		}
	}
	summary.CustomersWithAlerts = len(customersWithAlerts)
	summary.TotalEstimatedMonthlyLoss = round2(summary.TotalEstimatedMonthlyLoss)

	summary.ProductsAtRisk = make([]string, 0, len(atRisk))
	for product := range atRisk {
		summary.ProductsAtRisk = append(summary.ProductsAtRisk, product)
	}
	sort.Strings(summary.ProductsAtRisk)

	for _, entry := range actionList {
		switch entry.Urgency {
		case urgencyCallToday:
			summary.CallToday++
		case urgencyCallThisWeek:
			summary.CallThisWeek++
		}
	}
	return summary
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
