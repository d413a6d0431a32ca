package main

import (
	"regexp"
	"sort"
	"strings"
)

// Column roles the analysis needs. Resolution happens once per run against the
// first record's column names; every later row reuses the same mapping.
const (
	roleCustomer = "customer"
	roleProduct  = "product"
	roleQuantity = "quantity"
	roleValue    = "value"
	roleDate     = "date"
)

// FieldRoles maps each role to the resolved column name ("" when no column
// matched; access then falls through the literal fallback names).
type FieldRoles struct {
	Customer string
	Product  string
	Quantity string
	Value    string
	Date     string
}

// Ordered most-specific-first; the first pattern with any candidate wins.
var rolePatterns = map[string][]*regexp.Regexp{
	roleCustomer: {
		regexp.MustCompile(`(?i)customer`),
		regexp.MustCompile(`(?i)account`),
		regexp.MustCompile(`(?i)client`),
		regexp.MustCompile(`(?i)buyer|company`),
	},
	roleProduct: {
		regexp.MustCompile(`(?i)product`),
		regexp.MustCompile(`(?i)item`),
		regexp.MustCompile(`(?i)description`),
		regexp.MustCompile(`(?i)sku|category`),
	},
	roleQuantity: {
		regexp.MustCompile(`(?i)quantity`),
		regexp.MustCompile(`(?i)\bqty\b|_qty|qty_|^qty$`),
		regexp.MustCompile(`(?i)units?$`),
	},
	roleValue: {
		regexp.MustCompile(`(?i)amount|total|net`),
		regexp.MustCompile(`(?i)price|value`),
		regexp.MustCompile(`(?i)revenue|spend|cost`),
	},
	roleDate: {
		regexp.MustCompile(`(?i)date`),
		regexp.MustCompile(`(?i)created|ordered|invoiced`),
		regexp.MustCompile(`(?i)timestamp|period`),
	},
}

// Columns that look like identifiers carry product codes, not product names,
// and must not win the product role.
var identifierSuffix = regexp.MustCompile(`(?i)(_code|_id|_number|_sku|code|id|number)$`)

// Substrings that mark the more semantically specific column when a pattern
// matches several.
var roleTieBreakers = []string{"name", "description", "net", "total", "amount"}

// Literal column names tried (case-insensitively) when the resolved column is
// absent from a record.
var roleFallbacks = map[string][]string{
	roleCustomer: {"customer_id", "customer", "customer_name", "account", "account_id", "client"},
	roleProduct:  {"product", "product_name", "item", "item_name", "description", "category"},
	roleQuantity: {"quantity", "qty", "units"},
	roleValue:    {"value", "amount", "total", "net_amount", "price", "unit_price"},
	roleDate:     {"date", "order_date", "invoice_date", "created_at", "created"},
}

// detectFieldRoles inspects the column names of a single record and binds each
// role to at most one column.
func detectFieldRoles(record RawRecord) FieldRoles {
	columns := make([]string, 0, len(record))
	for column := range record {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	used := map[string]bool{}
	roles := FieldRoles{}
	for _, role := range []string{roleCustomer, roleProduct, roleQuantity, roleValue, roleDate} {
		column := resolveRole(role, columns, used)
		if column != "" {
			used[column] = true
		}
		switch role {
		case roleCustomer:
			roles.Customer = column
		case roleProduct:
			roles.Product = column
		case roleQuantity:
			roles.Quantity = column
		case roleValue:
			roles.Value = column
		case roleDate:
			roles.Date = column
		}
	}
	return roles
}

func resolveRole(role string, columns []string, used map[string]bool) string {
	for _, pattern := range rolePatterns[role] {
		var candidates []string
		for _, column := range columns {
			if used[column] || !pattern.MatchString(column) {
				continue
			}
			if role == roleProduct && identifierSuffix.MatchString(column) {
				continue
			}
			candidates = append(candidates, column)
		}
		if len(candidates) == 0 {
			continue
		}
		if len(candidates) > 1 {
			for _, hint := range roleTieBreakers {
				for _, candidate := range candidates {
					if strings.Contains(strings.ToLower(candidate), hint) {
						return candidate
					}
				}
			}
		}
		return candidates[0]
	}
	return ""
}

func (fr FieldRoles) column(role string) string {
	switch role {
	case roleCustomer:
		return fr.Customer
	case roleProduct:
		return fr.Product
	case roleQuantity:
		return fr.Quantity
	case roleValue:
		return fr.Value
	case roleDate:
		return fr.Date
	}
	return ""
}

// fieldValue reads a role's value from a record: resolved column first, then
// the common literal names, case-insensitively.
func (fr FieldRoles) fieldValue(record RawRecord, role string) (any, bool) {
	if column := fr.column(role); column != "" {
		if value, ok := record[column]; ok {
			return value, true
		}
	}
	lowered := make(map[string]any, len(record))
	columns := make([]string, 0, len(record))
	for column := range record {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		key := strings.ToLower(column)
		if _, exists := lowered[key]; !exists {
			lowered[key] = record[column]
		}
	}
	for _, name := range roleFallbacks[role] {
		if value, ok := lowered[name]; ok {
			return value, true
		}
	}
	return nil, false
}
