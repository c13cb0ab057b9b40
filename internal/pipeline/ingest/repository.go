package ingest

import (
	"context"
	"database/sql"
)

// Repository handles database operations for ingest tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new ingest tracking repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun creates a new ingest run record
func (r *Repository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO ingest_runs (
			source, status, total_files, processed_files, total_rows, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.Source, run.Status, run.TotalFiles,
		run.ProcessedFiles, run.TotalRows, run.StartedAt,
	).Scan(&run.ID)
}

// UpdateRun updates an existing ingest run
func (r *Repository) UpdateRun(ctx context.Context, run *Run) error {
	query := `
		UPDATE ingest_runs
		SET status = $1, processed_files = $2, total_rows = $3,
		    completed_at = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.ProcessedFiles, run.TotalRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)
	return err
}

// GetRun retrieves an ingest run by ID
func (r *Repository) GetRun(ctx context.Context, id int64) (*Run, error) {
	query := `
		SELECT id, source, status, total_files,
		       processed_files, total_rows, started_at, completed_at, error_message
		FROM ingest_runs
		WHERE id = $1
	`

	run := &Run{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Source, &run.Status, &run.TotalFiles,
		&run.ProcessedFiles, &run.TotalRows,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CreateFileJob creates a new file job record
func (r *Repository) CreateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		INSERT INTO ingest_file_jobs (run_id, object_key, status, retry_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		job.RunID, job.Key, job.Status, job.RetryCount,
	).Scan(&job.ID)
}

// UpdateFileJob updates a file job record
func (r *Repository) UpdateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		UPDATE ingest_file_jobs
		SET status = $1, error_message = $2, processed_at = $3, retry_count = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(
		ctx, query,
		job.Status, job.ErrorMessage, job.ProcessedAt, job.RetryCount, job.ID,
	)
	return err
}

// IncrementProcessedFiles bumps the processed file counter of a run
func (r *Repository) IncrementProcessedFiles(ctx context.Context, runID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingest_runs SET processed_files = processed_files + 1 WHERE id = $1`, runID)
	return err
}

// AddRowCount adds to the total row counter of a run
func (r *Repository) AddRowCount(ctx context.Context, runID int64, rows int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingest_runs SET total_rows = total_rows + $1 WHERE id = $2`, rows, runID)
	return err
}

// GetFailedFileJobs returns failed jobs still under the retry limit
func (r *Repository) GetFailedFileJobs(ctx context.Context, maxRetries int) ([]*FileJob, error) {
	query := `
		SELECT id, run_id, object_key, status, error_message, processed_at, retry_count
		FROM ingest_file_jobs
		WHERE status = $1 AND retry_count < $2
	`

	rows, err := r.db.QueryContext(ctx, query, FileStatusFailed, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*FileJob
	for rows.Next() {
		job := &FileJob{}
		var errMsg sql.NullString
		if err := rows.Scan(
			&job.ID, &job.RunID, &job.Key, &job.Status,
			&errMsg, &job.ProcessedAt, &job.RetryCount,
		); err != nil {
			return nil, err
		}
		job.ErrorMessage = errMsg.String
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
