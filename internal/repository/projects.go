package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/predichain/backend-go/internal/domain"
)

// ErrProjectNotFound is returned when removing a project that does not exist.
var ErrProjectNotFound = fmt.Errorf("project not found")

// ProjectStore is the registry of construction projects.
type ProjectStore interface {
	List(ctx context.Context) ([]domain.Project, error)
	Add(ctx context.Context, p domain.Project) (domain.Project, error)
	Remove(ctx context.Context, id int64) error
}

// FileProjectStore keeps projects in a single JSON file, rewritten whole on
// every mutation. Fine at registry scale; a database takes over past that.
type FileProjectStore struct {
	mu   sync.Mutex
	path string
}

func NewFileProjectStore(path string) (*FileProjectStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create project store dir: %w", err)
	}
	return &FileProjectStore{path: path}, nil
}

func (s *FileProjectStore) List(_ context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileProjectStore) Add(_ context.Context, p domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		return domain.Project{}, err
	}

	p.ID = nextID(projects)
	if p.Status == "" {
		p.Status = "active"
	}
	projects = append(projects, p)

	if err := s.save(projects); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (s *FileProjectStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		return err
	}

	kept := projects[:0]
	found := false
	for _, p := range projects {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrProjectNotFound
	}
	return s.save(kept)
}

func (s *FileProjectStore) load() ([]domain.Project, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Project{}, nil
		}
		return nil, fmt.Errorf("read project store: %w", err)
	}
	var projects []domain.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decode project store: %w", err)
	}
	return projects, nil
}

func (s *FileProjectStore) save(projects []domain.Project) error {
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// MemoryProjectStore is the in-process store used by tests and by deployments
// that do not care about persistence.
type MemoryProjectStore struct {
	mu       sync.Mutex
	projects []domain.Project
}

func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{}
}

func (s *MemoryProjectStore) List(_ context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

func (s *MemoryProjectStore) Add(_ context.Context, p domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = nextID(s.projects)
	if p.Status == "" {
		p.Status = "active"
	}
	s.projects = append(s.projects, p)
	return p, nil
}

func (s *MemoryProjectStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.projects[:0]
	found := false
	for _, p := range s.projects {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrProjectNotFound
	}
	s.projects = kept
	return nil
}

func nextID(projects []domain.Project) int64 {
	var max int64
	for _, p := range projects {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

// SortProjects orders a listing by id for stable API output.
func SortProjects(projects []domain.Project) {
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
}
