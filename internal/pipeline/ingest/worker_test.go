package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTracker struct {
	mu     sync.Mutex
	runs   map[int64]*Run
	jobs   map[int64]*FileJob
	nextID int64
}

func newMemTracker() *memTracker {
	return &memTracker{runs: make(map[int64]*Run), jobs: make(map[int64]*FileJob)}
}

func (t *memTracker) CreateRun(_ context.Context, run *Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	run.ID = t.nextID
	copied := *run
	t.runs[run.ID] = &copied
	return nil
}

func (t *memTracker) UpdateRun(_ context.Context, run *Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := *run
	t.runs[run.ID] = &copied
	return nil
}

func (t *memTracker) GetRun(_ context.Context, id int64) (*Run, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := *t.runs[id]
	return &copied, nil
}

func (t *memTracker) CreateFileJob(_ context.Context, job *FileJob) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	job.ID = t.nextID
	copied := *job
	t.jobs[job.ID] = &copied
	return nil
}

func (t *memTracker) UpdateFileJob(_ context.Context, job *FileJob) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := *job
	t.jobs[job.ID] = &copied
	return nil
}

func (t *memTracker) IncrementProcessedFiles(_ context.Context, runID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[runID].ProcessedFiles++
	return nil
}

func (t *memTracker) AddRowCount(_ context.Context, runID int64, rows int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[runID].TotalRows += rows
	return nil
}

func (t *memTracker) GetFailedFileJobs(_ context.Context, maxRetries int) ([]*FileJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var failed []*FileJob
	for _, job := range t.jobs {
		if job.Status == FileStatusFailed && job.RetryCount < maxRetries {
			copied := *job
			failed = append(failed, &copied)
		}
	}
	return failed, nil
}

func (t *memTracker) jobByKey(key string) *FileJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, job := range t.jobs {
		if job.Key == key {
			copied := *job
			return &copied
		}
	}
	return nil
}

type memSink struct {
	mu   sync.Mutex
	rows []domain.DailyUsage
}

func (s *memSink) UpsertDaily(_ context.Context, rows []domain.DailyUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func archiveWith(t *testing.T, files map[string]string) storage.ObjectStorage {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	return store
}

func TestProcessBatchIngestsArchive(t *testing.T) {
	archive := archiveWith(t, map[string]string{
		"a.csv": "date,material,quantity\n2025-01-10,cement,100\n2025-01-11,cement,50\n",
		"b.csv": "date,material,quantity\n2025-01-10,sand,30\n",
	})
	tracker := newMemTracker()
	sink := &memSink{}

	worker := NewWorker(DefaultConfig("cli"), tracker, archive, sink)
	run, err := worker.ProcessBatch(context.Background(), []string{"a.csv", "b.csv"})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 2, run.ProcessedFiles)
	assert.Equal(t, 3, run.TotalRows)
	require.NotNil(t, run.CompletedAt)
	assert.Len(t, sink.rows, 3)

	job := tracker.jobByKey("a.csv")
	require.NotNil(t, job)
	assert.Equal(t, FileStatusCompleted, job.Status)
}

func TestProcessBatchMarksBadFileFailed(t *testing.T) {
	archive := archiveWith(t, map[string]string{
		"good.csv": "date,material,quantity\n2025-01-10,cement,100\n",
		"bad.csv":  "foo,bar\n1,2\n",
	})
	tracker := newMemTracker()

	worker := NewWorker(DefaultConfig("cli"), tracker, archive, &memSink{})
	run, err := worker.ProcessBatch(context.Background(), []string{"good.csv", "bad.csv"})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)

	job := tracker.jobByKey("bad.csv")
	require.NotNil(t, job)
	assert.Equal(t, FileStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.NotEmpty(t, job.ErrorMessage)
}

func TestProcessBatchStopsOnCancelledContext(t *testing.T) {
	archive := archiveWith(t, map[string]string{
		"a.csv": "date,material,quantity\n2025-01-10,cement,100\n",
		"b.csv": "date,material,quantity\n2025-01-11,cement,100\n",
	})
	tracker := newMemTracker()
	sink := &memSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(DefaultConfig("cli"), tracker, archive, sink)
	run, err := worker.ProcessBatch(ctx, []string{"a.csv", "b.csv"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, run.Status)

	// The pool has drained before ProcessBatch returns, so nothing touches
	// the run after this point.
	stored, err := tracker.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
	assert.Empty(t, sink.rows)
}
