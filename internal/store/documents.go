package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
)

// DocumentStore holds the document metadata collection in documents.json.
// Versions are append-only; deletes only flip IsActive.
type DocumentStore struct {
	path string
	mu   sync.Mutex
}

func NewDocumentStore(dataDir string) *DocumentStore {
	return &DocumentStore{path: filepath.Join(dataDir, "documents.json")}
}

func (s *DocumentStore) ListAll(ctx context.Context) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			d := all[i]
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

// Upsert appends the document if its id is new, or replaces it otherwise.
func (s *DocumentStore) Upsert(ctx context.Context, d *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == d.ID {
			all[i] = *d
			return writeFileAtomic(s.path, all)
		}
	}
	all = append(all, *d)
	return writeFileAtomic(s.path, all)
}

func (s *DocumentStore) load() ([]models.Document, error) {
	var all []models.Document
	if err := readFile(s.path, &all); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return all, nil
}
