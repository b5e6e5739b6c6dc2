package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
)

// WorkOrderStore holds accepted engagements in work-orders.json.
type WorkOrderStore struct {
	path string
	mu   sync.Mutex
}

func NewWorkOrderStore(dataDir string) *WorkOrderStore {
	return &WorkOrderStore{path: filepath.Join(dataDir, "work-orders.json")}
}

func (s *WorkOrderStore) ListAll(ctx context.Context) ([]models.ConsultantWorkOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *WorkOrderStore) Get(ctx context.Context, id string) (*models.ConsultantWorkOrder, error) {
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
			o := all[i]
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

// FindActive returns the non-terminal work order matching the engagement key,
// or nil when none exists. Used to keep quote acceptance idempotent.
func (s *WorkOrderStore) FindActive(ctx context.Context, jobID, category, consultantID string) (*models.ConsultantWorkOrder, error) {
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
		o := all[i]
		if o.JobID == jobID && o.Category == category && o.ConsultantID == consultantID && !o.Terminal() {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *WorkOrderStore) Append(ctx context.Context, o *models.ConsultantWorkOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	all = append(all, *o)
	return writeFileAtomic(s.path, all)
}

func (s *WorkOrderStore) Update(ctx context.Context, o *models.ConsultantWorkOrder) error {
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
		if all[i].ID == o.ID {
			all[i] = *o
			return writeFileAtomic(s.path, all)
		}
	}
	return ErrNotFound
}

func (s *WorkOrderStore) load() ([]models.ConsultantWorkOrder, error) {
	var all []models.ConsultantWorkOrder
	if err := readFile(s.path, &all); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return all, nil
}
