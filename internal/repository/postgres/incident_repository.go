package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/predichain/backend-go/internal/domain"
)

// IncidentRepository is the durable incident sink used when a database is
// configured. It satisfies risk.IncidentLog.
type IncidentRepository struct {
	db *DB
}

func NewIncidentRepository(db *DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Append(ctx context.Context, incident domain.Incident) error {
	var extra []byte
	if incident.Extra != nil {
		var err error
		extra, err = json.Marshal(incident.Extra)
		if err != nil {
			return fmt.Errorf("marshal incident extra: %w", err)
		}
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO incidents (reported_at, project_name, phase, description, reported_by, extra)
			VALUES (to_timestamp($1), $2, $3, $4, $5, $6)
		`, incident.Timestamp, incident.ProjectName, incident.Phase,
			incident.Description, incident.User, extra)
		if err != nil {
			return fmt.Errorf("insert incident: %w", err)
		}
		return nil
	})
}
