package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/predichain/backend-go/internal/domain"
)

// SQLSink writes normalized daily usage straight through a database/sql
// handle. The CLI uses it with the pgx driver; the server uses the sqlx-based
// usage repository instead.
type SQLSink struct {
	db *sql.DB
}

func NewSQLSink(db *sql.DB) *SQLSink {
	return &SQLSink{db: db}
}

func (s *SQLSink) UpsertDaily(ctx context.Context, rows []domain.DailyUsage) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_usage (
			material, usage_date, quantity_used,
			weather_condition, regional_risk_level, delivery_delays,
			avg_delivery_time_days, contractor_team_size, shift_work_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (material, usage_date) DO UPDATE SET
			quantity_used = EXCLUDED.quantity_used,
			weather_condition = EXCLUDED.weather_condition,
			regional_risk_level = EXCLUDED.regional_risk_level,
			delivery_delays = EXCLUDED.delivery_delays,
			avg_delivery_time_days = EXCLUDED.avg_delivery_time_days,
			contractor_team_size = EXCLUDED.contractor_team_size,
			shift_work_hours = EXCLUDED.shift_work_hours
	`)
	if err != nil {
		return fmt.Errorf("prepare ingest upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range rows {
		if _, err := stmt.ExecContext(ctx,
			d.Material, d.Date, d.QuantityUsed,
			d.Regressors.WeatherCondition, d.Regressors.RegionalRiskLevel,
			d.Regressors.DeliveryDelays, d.Regressors.AvgDeliveryTimeDays,
			d.Regressors.ContractorTeamSize, d.Regressors.ShiftWorkHours,
		); err != nil {
			return fmt.Errorf("upsert daily usage for %s: %w", d.Material, err)
		}
	}

	return tx.Commit()
}
