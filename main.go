package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultTopN = 15

func main() {
	inputPath := flag.String("input", "", "Path to orders CSV or JSON")
	asOf := flag.String("as-of", "", "Reference date (YYYY-MM-DD); default latest date in the data")
	topN := flag.Int("top", defaultTopN, "Top N call-sheet rows to print")
	jsonOut := flag.String("json", "", "Optional JSON output path for the full result")
	alertsOut := flag.String("alerts", "", "Optional CSV output path for alerts")
	minSeverity := flag.String("min-severity", "warning", "Minimum severity for the alerts CSV (watch, warning, critical)")
	serve := flag.Bool("serve", false, "Run the HTTP ingest API instead of a one-shot analysis")
	port := flag.Int("port", 8080, "HTTP port for -serve")
	dbEnabled := flag.Bool("db", false, "Store the run in Postgres (requires CHURN_AUDIT_DB_URL or DATABASE_URL)")
	dbSchema := flag.String("db-schema", "churn_audit", "Postgres schema for audit tables")
	dbTag := flag.String("db-tag", "", "Optional label for this run")
	initDB := flag.Bool("init-db", false, "Initialize database schema and seed with this run if empty")
	flag.Parse()

	_ = godotenv.Load()

	if *serve {
		if err := runServer(*port); err != nil {
			exitWithError(err)
		}
		return
	}

	if *inputPath == "" {
		exitWithError(errors.New("--input is required"))
	}

	records, err := loadRecords(*inputPath)
	if err != nil {
		exitWithError(err)
	}

	result, err := runAnalysis(records, *asOf)
	if err != nil {
		exitWithError(err)
	}

	printResult(result, *inputPath, *topN)

	if *jsonOut != "" {
		if err := writeJSON(result, *jsonOut); err != nil {
			exitWithError(err)
		}
		fmt.Printf("\nJSON result saved to %s\n", *jsonOut)
	}

	if *alertsOut != "" {
		if err := writeAlertsCSV(result, *alertsOut, *minSeverity); err != nil {
			exitWithError(err)
		}
		fmt.Printf("Alert CSV saved to %s\n", *alertsOut)
	}

	if *dbEnabled || *initDB {
		dbURL := dbURLFromEnv()
		if dbURL == "" {
			exitWithError(errors.New("database URL missing; set CHURN_AUDIT_DB_URL or DATABASE_URL"))
		}
		cfg := DBConfig{URL: dbURL, Schema: *dbSchema, Tag: *dbTag}
		seeded := false
		if *initDB {
			runID, err := seedDatabase(result, cfg)
			if err != nil {
				exitWithError(err)
			}
			if runID != "" {
				seeded = true
				fmt.Printf("\nSeeded Postgres with initial run (run_id=%s)\n", runID)
			}
		}
		if *dbEnabled {
			if seeded {
				fmt.Println("Skipped duplicate insert; current run already used for seed.")
			} else {
				runID, err := storeRunInDB(result, cfg)
				if err != nil {
					exitWithError(err)
				}
				fmt.Printf("\nStored run in Postgres (run_id=%s)\n", runID)
			}
		}
	}
}

func printResult(result *AnalysisResult, inputPath string, topN int) {
	summary := result.Summary
	fmt.Println("Product-Level Churn Audit")
	fmt.Println(strings.Repeat("=", 42))
	fmt.Printf("Input: %s\n", filepath.Base(inputPath))
	fmt.Printf("Reference date: %s\n", summary.ReferenceDate)
	fmt.Printf("Customers: %d (%d with alerts)\n", summary.TotalCustomers, summary.CustomersWithAlerts)
	fmt.Printf("Alerts: %d (critical %d | warning %d | watch %d)\n",
		summary.TotalAlerts, summary.CriticalAlerts, summary.WarningAlerts, summary.WatchAlerts)
	fmt.Printf("Attribution: competitor %d | switch %d | business decline %d\n",
		summary.CompetitorAlerts, summary.SwitchAlerts, summary.BusinessDeclineAlerts)
	fmt.Printf("Estimated monthly loss: £%.2f\n", summary.TotalEstimatedMonthlyLoss)
	if summary.RecordsSkipped > 0 {
		fmt.Printf("Rows skipped: %d\n", summary.RecordsSkipped)
	}

	fmt.Println("\nCall sheet")
	fmt.Println(strings.Repeat("-", 42))
	if len(result.ActionList) == 0 {
		fmt.Println("No customers need a call.")
	}
	for i, entry := range result.ActionList {
		if topN > 0 && i == topN {
			break
		}
		fmt.Printf("#%d %s | score %.1f | %s | %s | losing £%.2f/mo | %s\n",
			entry.PriorityRank,
			entry.CustomerID,
			entry.PriorityScore,
			entry.Urgency,
			entry.HealthStatus,
			entry.EstimatedMonthlyLoss,
			strings.Join(entry.TopLostProducts, ", "),
		)
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("\nTop retention plays")
		fmt.Println(strings.Repeat("-", 42))
		for _, rec := range result.Recommendations {
			fmt.Printf("%d. %s / %s (win-back %.0f%%): %s\n",
				rec.Priority, rec.CustomerID, rec.Product, rec.WinBackProbability*100, rec.Action)
		}
	}
}

func writeJSON(result *AnalysisResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeAlertsCSV(result *AnalysisResult, path string, minSeverity string) error {
	threshold, ok := severityRank(strings.ToLower(strings.TrimSpace(minSeverity)))
	if !ok {
		return fmt.Errorf("invalid --min-severity value: %s", minSeverity)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"customer_id",
		"product",
		"severity",
		"churn_reason",
		"drop_percentage",
		"weeks_since_last_order",
		"estimated_monthly_loss",
		"recommended_discount",
		"recommended_action",
	}); err != nil {
		return err
	}

	for _, alert := range result.Alerts {
		rank, _ := severityRank(alert.Severity)
		if rank < threshold {
			continue
		}
		record := []string{
			alert.CustomerID,
			alert.ProductName,
			alert.Severity,
			alert.ChurnReason,
			fmt.Sprintf("%.1f", alert.DropPercentage),
			fmt.Sprintf("%d", alert.WeeksSinceLastOrder),
			fmt.Sprintf("%.2f", alert.EstimatedMonthlyLoss),
			fmt.Sprintf("%.1f", alert.RecommendedDiscount),
			alert.RecommendedAction,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func dbURLFromEnv() string {
	if value := strings.TrimSpace(os.Getenv("CHURN_AUDIT_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
