package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/pipeline/usage"
	"github.com/predichain/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Sink receives the normalized output of each processed file.
type Sink interface {
	UpsertDaily(ctx context.Context, rows []domain.DailyUsage) error
}

// Tracker persists run and per-file job state. *Repository is the database
// implementation.
type Tracker interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id int64) (*Run, error)
	CreateFileJob(ctx context.Context, job *FileJob) error
	UpdateFileJob(ctx context.Context, job *FileJob) error
	IncrementProcessedFiles(ctx context.Context, runID int64) error
	AddRowCount(ctx context.Context, runID int64, rows int) error
	GetFailedFileJobs(ctx context.Context, maxRetries int) ([]*FileJob, error)
}

// Worker normalizes archived usage logs into the daily usage table with a
// bounded worker pool and per-file job tracking.
type Worker struct {
	config  Config
	repo    Tracker
	archive storage.ObjectStorage
	sink    Sink
}

// NewWorker creates a new ingest worker
func NewWorker(config Config, repo Tracker, archive storage.ObjectStorage, sink Sink) *Worker {
	return &Worker{
		config:  config,
		repo:    repo,
		archive: archive,
		sink:    sink,
	}
}

// ProcessBatch ingests a batch of archived objects under one tracked run.
func (w *Worker) ProcessBatch(ctx context.Context, keys []string) (*Run, error) {
	log.Info().Str("source", w.config.Source).Int("files", len(keys)).
		Msg("ingest: starting batch")

	run := &Run{
		Source:     w.config.Source,
		Status:     StatusPending,
		TotalFiles: len(keys),
		StartedAt:  time.Now(),
	}
	if err := w.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create ingest run: %w", err)
	}

	jobs := make([]*FileJob, len(keys))
	for i, key := range keys {
		job := &FileJob{
			RunID:  run.ID,
			Key:    key,
			Status: FileStatusQueued,
		}
		if err := w.repo.CreateFileJob(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to create file job: %w", err)
		}
		jobs[i] = job
	}

	run.Status = StatusProcessing
	if err := w.repo.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update ingest run: %w", err)
	}

	if err := w.processFilesParallel(ctx, run, jobs); err != nil {
		w.refreshCounters(run)
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		now := time.Now()
		run.CompletedAt = &now
		w.repo.UpdateRun(context.WithoutCancel(ctx), run)
		return run, err
	}

	w.refreshCounters(run)
	run.Status = StatusCompleted
	now := time.Now()
	run.CompletedAt = &now
	if err := w.repo.UpdateRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete ingest run: %w", err)
	}

	log.Info().Str("source", w.config.Source).
		Int("processed", run.ProcessedFiles).Int("rows", run.TotalRows).
		Msg("ingest: batch completed")

	return run, nil
}

// refreshCounters pulls the worker-incremented counters back onto the run so
// the terminal UpdateRun does not clobber them with the stale local copy.
func (w *Worker) refreshCounters(run *Run) {
	stored, err := w.repo.GetRun(context.Background(), run.ID)
	if err != nil {
		log.Warn().Err(err).Int64("run", run.ID).Msg("ingest: failed to reload run counters")
		return
	}
	run.ProcessedFiles = stored.ProcessedFiles
	run.TotalRows = stored.TotalRows
}

// processFilesParallel processes files using a worker pool
func (w *Worker) processFilesParallel(ctx context.Context, run *Run, jobs []*FileJob) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan *FileJob, len(jobs))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if err := w.processFile(ctx, run, job); err != nil {
					log.Warn().Err(err).Int("worker", workerID).Str("key", job.Key).
						Msg("ingest: file failed")
					select {
					case errChan <- err:
					default:
					}
				}
			}
		}(i)
	}

	// jobChan is buffered to len(jobs), so sends never block; the only exit
	// mid-dispatch is cancellation, and the pool must drain before the run
	// state is touched again.
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			close(jobChan)
			wg.Wait()
			return err
		}
		jobChan <- job
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}
	return nil
}

// processFile normalizes one archived object and hands it to the sink
func (w *Worker) processFile(ctx context.Context, run *Run, job *FileJob) error {
	startTime := time.Now()

	job.Status = FileStatusProcessing
	if err := w.repo.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	obj, err := w.archive.GetObject(ctx, job.Key)
	if err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("archive read failed: %w", err))
	}
	header, rows, err := usage.ReadCSV(obj)
	obj.Close()
	if err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("csv read failed: %w", err))
	}

	normalized, err := usage.Normalize(header, rows)
	if err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("normalization failed: %w", err))
	}

	if err := w.sink.UpsertDaily(ctx, normalized.Daily); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("sink write failed: %w", err))
	}

	job.Status = FileStatusCompleted
	now := time.Now()
	job.ProcessedAt = &now
	if err := w.repo.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	if err := w.repo.IncrementProcessedFiles(ctx, run.ID); err != nil {
		log.Warn().Err(err).Msg("ingest: failed to increment processed files")
	}
	if err := w.repo.AddRowCount(ctx, run.ID, len(normalized.Daily)); err != nil {
		log.Warn().Err(err).Msg("ingest: failed to add row count")
	}

	log.Info().Str("key", job.Key).
		Int("rows", len(normalized.Daily)).Int("dropped", normalized.DroppedRows).
		Dur("took", time.Since(startTime)).
		Msg("ingest: file completed")

	return nil
}

// markJobFailed marks a job as failed and bumps its retry counter
func (w *Worker) markJobFailed(ctx context.Context, job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	job.RetryCount++

	if uerr := w.repo.UpdateFileJob(ctx, job); uerr != nil {
		log.Warn().Err(uerr).Str("key", job.Key).Msg("ingest: failed to update job status")
	}
	return err
}

// RetryFailed re-runs all failed jobs still under the retry limit.
func (w *Worker) RetryFailed(ctx context.Context) error {
	jobs, err := w.repo.GetFailedFileJobs(ctx, w.config.RetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to get failed jobs: %w", err)
	}
	if len(jobs) == 0 {
		log.Info().Msg("ingest: no failed jobs to retry")
		return nil
	}

	log.Info().Int("jobs", len(jobs)).Msg("ingest: retrying failed jobs")

	byRun := make(map[int64][]*FileJob)
	for _, job := range jobs {
		byRun[job.RunID] = append(byRun[job.RunID], job)
	}

	for runID, runJobs := range byRun {
		run, err := w.repo.GetRun(ctx, runID)
		if err != nil {
			log.Warn().Err(err).Int64("run", runID).Msg("ingest: failed to load run")
			continue
		}
		if err := w.processFilesParallel(ctx, run, runJobs); err != nil {
			log.Warn().Err(err).Int64("run", runID).Msg("ingest: retry batch failed")
		}
	}
	return nil
}
