package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
)

// TicketStore holds the consultant quote requests in tickets.json.
type TicketStore struct {
	path string
	mu   sync.Mutex
}

func NewTicketStore(dataDir string) *TicketStore {
	return &TicketStore{path: filepath.Join(dataDir, "tickets.json")}
}

// ListAll returns every ticket in insertion order.
func (s *TicketStore) ListAll(ctx context.Context) ([]models.ConsultantTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the ticket with the given id or ErrNotFound.
func (s *TicketStore) Get(ctx context.Context, id string) (*models.ConsultantTicket, error) {
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
			t := all[i]
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

// Append adds a new ticket to the collection.
func (s *TicketStore) Append(ctx context.Context, t *models.ConsultantTicket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	all = append(all, *t)
	return writeFileAtomic(s.path, all)
}

// Update replaces the ticket with the same id, or returns ErrNotFound.
func (s *TicketStore) Update(ctx context.Context, t *models.ConsultantTicket) error {
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
		if all[i].ID == t.ID {
			all[i] = *t
			return writeFileAtomic(s.path, all)
		}
	}
	return ErrNotFound
}

// SaveAll replaces the whole collection. Kept for legacy callers that still
// persist the array wholesale.
func (s *TicketStore) SaveAll(ctx context.Context, all []models.ConsultantTicket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.path, all)
}

func (s *TicketStore) load() ([]models.ConsultantTicket, error) {
	var all []models.ConsultantTicket
	if err := readFile(s.path, &all); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return all, nil
}
