package ingest

import "time"

// RunStatus represents the current state of an ingest run
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// Run tracks one execution of the ingest pipeline over a batch of archived
// usage logs.
type Run struct {
	ID             int64
	Source         string // "upload", "drive", "cli"
	Status         RunStatus
	TotalFiles     int
	ProcessedFiles int
	TotalRows      int
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   string
}

// FileJob tracks the processing of a single archived object
type FileJob struct {
	ID           int64
	RunID        int64
	Key          string
	Status       FileJobStatus
	ErrorMessage string
	ProcessedAt  *time.Time
	RetryCount   int
}

// Config holds configuration for an ingest run
type Config struct {
	Source        string
	WorkerCount   int // Number of concurrent workers
	RetryAttempts int // Number of retries on failure
}

// DefaultConfig returns sensible defaults
func DefaultConfig(source string) Config {
	return Config{
		Source:        source,
		WorkerCount:   4,
		RetryAttempts: 3,
	}
}
