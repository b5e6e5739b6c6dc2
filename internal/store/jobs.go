package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
)

// JobStore keeps one JSON file per job under <dataDir>/jobs/<id>.json.
// Saves are guarded by a revision check so a stale read-modify-write loses
// instead of silently clobbering a newer record.
type JobStore struct {
	dir string
	mu  sync.Mutex
}

func NewJobStore(dataDir string) *JobStore {
	return &JobStore{dir: filepath.Join(dataDir, "jobs")}
}

func (s *JobStore) jobPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid job id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Create persists a new job with revision 1. An existing id is an error.
func (s *JobStore) Create(ctx context.Context, j *models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.jobPath(j.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("job %s already exists", j.ID)
	}
	now := time.Now().UTC()
	j.Revision = 1
	j.CreatedAt = now
	j.UpdatedAt = now
	return writeFileAtomic(path, j)
}

// Get loads a job or returns ErrNotFound.
func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.jobPath(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var j models.Job
	if err := readFile(path, &j); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// Save persists j if its revision matches the stored one, then bumps the
// revision. A mismatch returns ErrStaleRevision and writes nothing.
func (s *JobStore) Save(ctx context.Context, j *models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.jobPath(j.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var current models.Job
	if err := readFile(path, &current); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if current.Revision != j.Revision {
		return fmt.Errorf("%w: job %s has revision %d, save carried %d", ErrStaleRevision, j.ID, current.Revision, j.Revision)
	}
	j.Revision++
	j.UpdatedAt = time.Now().UTC()
	return writeFileAtomic(path, j)
}

// List returns every job, sorted by file name (id).
func (s *JobStore) List(ctx context.Context) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []models.Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var j models.Job
		if err := readFile(filepath.Join(s.dir, e.Name()), &j); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
