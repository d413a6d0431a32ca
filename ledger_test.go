package main

import (
	"testing"
	"time"
)

func TestBuildLedgerGroupsByNormalizedKey(t *testing.T) {
	records := []RawRecord{
		{"customer": "A-1", "product": "  Chicken   Wings ", "quantity": "5", "value": "10", "date": "2024-01-01"},
		{"customer": "A-1", "product": "chicken wings", "quantity": "3", "value": "10", "date": "2024-01-08"},
	}
	roles := detectFieldRoles(records[0])
	ledger := buildLedger(records, roles)

	products := ledger.Customers["A-1"]
	if products == nil {
		t.Fatalf("expected customer A-1 in ledger")
	}
	series := products["chicken wings"]
	if series == nil {
		t.Fatalf("expected normalized product key, have %v", productKeysOf(products))
	}
	if series.DisplayName != "Chicken Wings" {
		t.Fatalf("expected first-seen display name Chicken Wings, got %q", series.DisplayName)
	}
	if len(series.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(series.Orders))
	}
	if !floatEqual(series.Orders[0].Value, 50) {
		t.Fatalf("expected value = qty x unit price = 50, got %.2f", series.Orders[0].Value)
	}
}

func TestBuildLedgerDefaultsAndSkips(t *testing.T) {
	records := []RawRecord{
		{"customer": "A-1", "product": "Cheddar Block", "value": "4", "date": "2024-01-01"},
		{"customer": "A-1", "product": "Cheddar Block", "quantity": "bad", "value": "4", "date": "2024-01-02"},
		{"customer": "", "product": "Cheddar Block", "date": "2024-01-03"},
		{"customer": "A-1", "product": "ab", "date": "2024-01-04"},
	}
	roles := detectFieldRoles(records[0])
	ledger := buildLedger(records, roles)

	if ledger.Skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", ledger.Skipped)
	}
	series := ledger.Customers["A-1"]["cheddar block"]
	if series == nil || len(series.Orders) != 2 {
		t.Fatalf("expected 2 cheddar orders")
	}
	for _, order := range series.Orders {
		if !floatEqual(order.Quantity, 1) {
			t.Fatalf("expected default quantity 1, got %.2f", order.Quantity)
		}
		if !floatEqual(order.Value, 4) {
			t.Fatalf("expected value 4, got %.2f", order.Value)
		}
	}
}

func TestBuildLedgerSortsByDate(t *testing.T) {
	records := []RawRecord{
		{"customer": "A-1", "product": "Cola 24pk", "date": "2024-03-01"},
		{"customer": "A-1", "product": "Cola 24pk", "date": "2024-01-01"},
		{"customer": "A-1", "product": "Cola 24pk", "date": "2024-02-01"},
	}
	roles := detectFieldRoles(records[0])
	ledger := buildLedger(records, roles)

	orders := ledger.Customers["A-1"]["cola 24pk"].Orders
	for i := 1; i < len(orders); i++ {
		if orders[i].Date.Before(orders[i-1].Date) {
			t.Fatalf("orders not sorted by date")
		}
	}
}

func TestParseOrderDateFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"15-Jan-2024", "2024-01-15"},
		{"15/01/2024", "2024-01-15"},
		{"01/02/2024", "2024-02-01"}, // day-first wins when ambiguous
		{"12/25/2024", "2024-12-25"}, // falls through to month-first
		{"2024-03-05", "2024-03-05"},
		{"2024-03-05T10:11:12Z", "2024-03-05"},
		{"2024-03-05 10:11:12", "2024-03-05"},
	}
	for _, tc := range cases {
		parsed, ok := parseOrderDate(tc.raw)
		if !ok {
			t.Fatalf("expected %q to parse", tc.raw)
		}
		if got := parsed.Format("2006-01-02"); got != tc.want {
			t.Fatalf("%q parsed to %s, expected %s", tc.raw, got, tc.want)
		}
	}

	if _, ok := parseOrderDate("not a date"); ok {
		t.Fatalf("expected unparseable date to fail")
	}
	if _, ok := parseOrderDate(""); ok {
		t.Fatalf("expected empty date to fail")
	}
}

func TestEarliestAndLatestOrderDates(t *testing.T) {
	records := []RawRecord{
		{"customer": "A-1", "product": "Cola 24pk", "date": "2024-02-01"},
		{"customer": "A-1", "product": "Lime Juice", "date": "2024-01-15"},
		{"customer": "B-2", "product": "Cola 24pk", "date": "2024-04-01"},
	}
	roles := detectFieldRoles(records[0])
	ledger := buildLedger(records, roles)

	earliest := earliestOrderDate(ledger.Customers["A-1"])
	if earliest != time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected earliest date %s", earliest)
	}
	latest := ledger.latestOrderDate()
	if latest != time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected latest date %s", latest)
	}
}

func TestParseAmountTolerance(t *testing.T) {
	value, ok := parseAmount("£1,234.50")
	if !ok || !floatEqual(value, 1234.5) {
		t.Fatalf("expected 1234.50, got %.2f (%v)", value, ok)
	}
	value, ok = parseAmount(float64(7.25))
	if !ok || !floatEqual(value, 7.25) {
		t.Fatalf("expected 7.25, got %.2f (%v)", value, ok)
	}
	if _, ok := parseAmount("n/a"); ok {
		t.Fatalf("expected n/a to fail")
	}
}
