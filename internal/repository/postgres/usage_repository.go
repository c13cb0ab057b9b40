package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/predichain/backend-go/internal/domain"
)

// UsageRepository persists normalized daily usage so forecasts can run against
// previously ingested history without a fresh upload.
type UsageRepository struct {
	db *DB
}

func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// UpsertDaily writes one normalized batch in a single transaction. Re-ingesting
// the same (material, day) replaces the aggregate rather than double-counting.
func (r *UsageRepository) UpsertDaily(ctx context.Context, rows []domain.DailyUsage) error {
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
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
			return fmt.Errorf("prepare daily usage upsert: %w", err)
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
		return nil
	})
}

// ListByMaterial returns the stored history for one material ordered by day.
// An empty material returns the whole table.
func (r *UsageRepository) ListByMaterial(ctx context.Context, material string) ([]domain.DailyUsage, error) {
	query := `
		SELECT material, usage_date, quantity_used,
		       weather_condition, regional_risk_level, delivery_delays,
		       avg_delivery_time_days, contractor_team_size, shift_work_hours
		FROM daily_usage`
	args := []any{}
	if material != "" {
		query += ` WHERE material = $1`
		args = append(args, material)
	}
	query += ` ORDER BY material, usage_date`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily usage: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyUsage
	for rows.Next() {
		var d domain.DailyUsage
		if err := rows.Scan(
			&d.Material, &d.Date, &d.QuantityUsed,
			&d.Regressors.WeatherCondition, &d.Regressors.RegionalRiskLevel,
			&d.Regressors.DeliveryDelays, &d.Regressors.AvgDeliveryTimeDays,
			&d.Regressors.ContractorTeamSize, &d.Regressors.ShiftWorkHours,
		); err != nil {
			return nil, fmt.Errorf("scan daily usage row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
