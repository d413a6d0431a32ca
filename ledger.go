package main

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// NormalizedOrder is one order line after normalization. Date is zero when the
// raw cell did not parse; RawDate keeps the original text for display.
type NormalizedOrder struct {
	Date     time.Time
	RawDate  string
	Quantity float64
	Value    float64
}

type productSeries struct {
	DisplayName string
	Orders      []NormalizedOrder
}

// OrderLedger groups normalized orders by customer and product key. Built once
// per run; treated as immutable afterward.
type OrderLedger struct {
	Customers map[string]map[string]*productSeries
	Rows      int
	Skipped   int
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

func buildLedger(records []RawRecord, roles FieldRoles) *OrderLedger {
	ledger := &OrderLedger{Customers: map[string]map[string]*productSeries{}}

	for _, record := range records {
		ledger.Rows++

		customerRaw, _ := roles.fieldValue(record, roleCustomer)
		productRaw, _ := roles.fieldValue(record, roleProduct)
		customerID := stringValue(customerRaw)
		productName := collapseWhitespace(stringValue(productRaw))
		if customerID == "" || len(productName) <= 2 {
			ledger.Skipped++
			continue
		}
		productKey := strings.ToLower(productName)

		quantity := 1.0
		if raw, ok := roles.fieldValue(record, roleQuantity); ok {
			if parsed, ok := parseAmount(raw); ok && parsed >= 0 {
				quantity = parsed
			}
		}
		unitValue := 0.0
		if raw, ok := roles.fieldValue(record, roleValue); ok {
			if parsed, ok := parseAmount(raw); ok {
				unitValue = parsed
			}
		}

		order := NormalizedOrder{
			Quantity: quantity,
			Value:    quantity * unitValue,
		}
		if raw, ok := roles.fieldValue(record, roleDate); ok {
			text := stringValue(raw)
			order.RawDate = text
			if parsed, ok := parseOrderDate(text); ok {
				order.Date = parsed
			}
		}

		products, exists := ledger.Customers[customerID]
		if !exists {
			products = map[string]*productSeries{}
			ledger.Customers[customerID] = products
		}
		series, exists := products[productKey]
		if !exists {
			series = &productSeries{DisplayName: productName}
			products[productKey] = series
		}
		series.Orders = append(series.Orders, order)
	}

	for _, products := range ledger.Customers {
		for _, series := range products {
			sort.SliceStable(series.Orders, func(i, j int) bool {
				return series.Orders[i].Date.Before(series.Orders[j].Date)
			})
		}
	}
	return ledger
}

func (l *OrderLedger) customerIDs() []string {
	ids := make([]string, 0, len(l.Customers))
	for id := range l.Customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func productKeysOf(products map[string]*productSeries) []string {
	keys := make([]string, 0, len(products))
	for key := range products {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// earliestOrderDate returns the customer's globally first dated order, across
// all products.
func earliestOrderDate(products map[string]*productSeries) time.Time {
	var earliest time.Time
	for _, series := range products {
		for _, order := range series.Orders {
			if order.Date.IsZero() {
				continue
			}
			if earliest.IsZero() || order.Date.Before(earliest) {
				earliest = order.Date
			}
		}
	}
	return earliest
}

func (l *OrderLedger) latestOrderDate() time.Time {
	var latest time.Time
	for _, products := range l.Customers {
		for _, series := range products {
			for _, order := range series.Orders {
				if order.Date.After(latest) {
					latest = order.Date
				}
			}
		}
	}
	return latest
}

// parseOrderDate handles the date shapes seen in supplier exports: 15-Jan-2024,
// 15/01/2024 (day first, then US order), ISO dates and date-times. Anything
// else is left unparsed.
func parseOrderDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if idx := strings.IndexAny(value, "T "); idx > 0 && strings.Count(value, "-") >= 2 {
		value = value[:idx]
	}
	layouts := []string{
		"02-Jan-2006",
		"2-Jan-2006",
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"01/02/2006",
		"02/01/06",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return dateOnly(parsed), true
		}
	}
	return time.Time{}, false
}

func dateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format("2006-01-02")
}
