package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RawRecord is one order line as uploaded: arbitrary column names mapped to
// string or numeric values. No schema is assumed.
type RawRecord map[string]any

func loadRecords(path string) ([]RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %w", filepath.Base(path), err)
		}
		return loadJSONRecords(data)
	default:
		return loadCSVRecords(file)
	}
}

func loadJSONRecords(data []byte) ([]RawRecord, error) {
	var records []RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unable to parse JSON orders: %w", err)
	}
	return records, nil
}

func loadCSVRecords(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}
	for i, header := range headers {
		headers[i] = strings.TrimSpace(header)
	}

	var records []RawRecord
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("unable to read CSV: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		record := make(RawRecord, len(headers))
		for i, header := range headers {
			if header == "" || i >= len(row) {
				continue
			}
			record[header] = strings.TrimSpace(row[i])
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}
	return records, nil
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case json.Number:
		return value.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}
}

// parseAmount reads a numeric cell, tolerating currency symbols and
// thousands separators.
func parseAmount(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		cleaned := strings.TrimSpace(value)
		cleaned = strings.NewReplacer("£", "", "$", "", "€", "", ",", "").Replace(cleaned)
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
