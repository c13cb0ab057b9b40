package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/predichain/backend-go/internal/domain"
)

// FileIncidentLog appends incidents as JSON lines. It is the default sink
// when no database is configured.
type FileIncidentLog struct {
	mu   sync.Mutex
	path string
}

func NewFileIncidentLog(path string) (*FileIncidentLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create incident log dir: %w", err)
	}
	return &FileIncidentLog{path: path}, nil
}

func (l *FileIncidentLog) Append(_ context.Context, incident domain.Incident) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("encode incident: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open incident log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append incident: %w", err)
	}
	return nil
}
