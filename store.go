package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/schollz/progressbar/v3"
)

// Optional run history. The engine never reads this back; it exists so the
// sales team can compare call sheets across uploads.

type DBConfig struct {
	URL    string
	Schema string
	Tag    string
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	valid := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	if !valid.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

func seedDatabase(result *AnalysisResult, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}

	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.churn_runs`, schema)).Scan(&count); err != nil {
		return "", err
	}
	if count > 0 {
		fmt.Println("Run history already present; skipping seed.")
		return "", nil
	}

	return storeRunTx(ctx, db, result, schema, cfg.Tag)
}

func storeRunInDB(result *AnalysisResult, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}

	return storeRunTx(ctx, db, result, schema, cfg.Tag)
}

func storeRunTx(ctx context.Context, db *sql.DB, result *AnalysisResult, schema string, tag string) (string, error) {
	runID := uuid.New()
	summary := result.Summary

	referenceDate, err := time.Parse("2006-01-02", summary.ReferenceDate)
	if err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.churn_runs (
			id, reference_date, total_customers, customers_with_alerts, total_alerts,
			critical_alerts, warning_alerts, watch_alerts, competitor_alerts,
			switch_alerts, business_decline_alerts, call_today, call_this_week,
			total_estimated_monthly_loss, records_analyzed, records_skipped, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,
			$10,$11,$12,$13,
			$14,$15,$16,$17
		)`, schema),
		runID,
		referenceDate,
		summary.TotalCustomers,
		summary.CustomersWithAlerts,
		summary.TotalAlerts,
		summary.CriticalAlerts,
		summary.WarningAlerts,
		summary.WatchAlerts,
		summary.CompetitorAlerts,
		summary.SwitchAlerts,
		summary.BusinessDeclineAlerts,
		summary.CallToday,
		summary.CallThisWeek,
		summary.TotalEstimatedMonthlyLoss,
		summary.RecordsAnalyzed,
		summary.RecordsSkipped,
		nullString(tag),
	)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}

	insertAlertSQL := fmt.Sprintf(`
		INSERT INTO %s.churn_alerts (
			id, run_id, customer_id, product, product_name, signal_type, severity,
			frequency, drop_percentage, weeks_since_last_order, estimated_monthly_loss,
			churn_reason, is_product_switch, switched_to, recommended_discount, recommended_action
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11,
			$12,$13,$14,$15,$16
		)`, schema)

	insertActionSQL := fmt.Sprintf(`
		INSERT INTO %s.churn_action_list (
			id, run_id, customer_id, priority_score, priority_rank, urgency,
			health_status, current_monthly_spend, estimated_monthly_loss,
			alert_count, competitor_alerts, top_lost_products
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,
			$10,$11,$12
		)`, schema)

	bar := progressbar.Default(int64(len(result.Alerts) + len(result.ActionList)))

	for _, alert := range result.Alerts {
		_, err = tx.ExecContext(ctx, insertAlertSQL,
			uuid.New(),
			runID,
			alert.CustomerID,
			alert.Product,
			alert.ProductName,
			alert.SignalType,
			alert.Severity,
			alert.Frequency,
			alert.DropPercentage,
			alert.WeeksSinceLastOrder,
			alert.EstimatedMonthlyLoss,
			alert.ChurnReason,
			alert.IsProductSwitch,
			nullString(alert.SwitchedTo),
			alert.RecommendedDiscount,
			alert.RecommendedAction,
		)
		if err != nil {
			_ = tx.Rollback()
			return "", err
		}
		_ = bar.Add(1)
	}

	for _, entry := range result.ActionList {
		_, err = tx.ExecContext(ctx, insertActionSQL,
			uuid.New(),
			runID,
			entry.CustomerID,
			entry.PriorityScore,
			entry.PriorityRank,
			entry.Urgency,
			entry.HealthStatus,
			entry.CurrentMonthlySpend,
			entry.EstimatedMonthlyLoss,
			entry.AlertCount,
			entry.CompetitorAlerts,
			strings.Join(entry.TopLostProducts, "; "),
		)
		if err != nil {
			_ = tx.Rollback()
			return "", err
		}
		_ = bar.Add(1)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.churn_runs (
			id uuid PRIMARY KEY,
			reference_date date NOT NULL,
			total_customers integer NOT NULL,
			customers_with_alerts integer NOT NULL,
			total_alerts integer NOT NULL,
			critical_alerts integer NOT NULL,
			warning_alerts integer NOT NULL,
			watch_alerts integer NOT NULL,
			competitor_alerts integer NOT NULL,
			switch_alerts integer NOT NULL,
			business_decline_alerts integer NOT NULL,
			call_today integer NOT NULL,
			call_this_week integer NOT NULL,
			total_estimated_monthly_loss numeric(12,2) NOT NULL,
			records_analyzed integer NOT NULL,
			records_skipped integer NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.churn_alerts (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.churn_runs(id) ON DELETE CASCADE,
			customer_id text NOT NULL,
			product text NOT NULL,
			product_name text NOT NULL,
			signal_type text NOT NULL,
			severity text NOT NULL,
			frequency text NOT NULL,
			drop_percentage numeric(6,1) NOT NULL,
			weeks_since_last_order integer NOT NULL,
			estimated_monthly_loss numeric(12,2) NOT NULL,
			churn_reason text NOT NULL,
			is_product_switch boolean NOT NULL,
			switched_to text,
			recommended_discount numeric(5,1) NOT NULL,
			recommended_action text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.churn_action_list (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.churn_runs(id) ON DELETE CASCADE,
			customer_id text NOT NULL,
			priority_score numeric(5,1) NOT NULL,
			priority_rank integer NOT NULL,
			urgency text NOT NULL,
			health_status text NOT NULL,
			current_monthly_spend numeric(12,2) NOT NULL,
			estimated_monthly_loss numeric(12,2) NOT NULL,
			alert_count integer NOT NULL,
			competitor_alerts integer NOT NULL,
			top_lost_products text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_churn_alerts_run_idx ON %s.churn_alerts (run_id)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_churn_alerts_severity_idx ON %s.churn_alerts (severity)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_churn_action_list_run_idx ON %s.churn_action_list (run_id)`, schema, schema))
	return err
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
