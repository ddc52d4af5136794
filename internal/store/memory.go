package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
)

// MemoryStore is an in-process RegistrationStore. It enforces the same
// unique keys as the database table.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   uint
	rows     map[uint]models.Registration
	byAadhar map[string]uint
	byPAN    map[string]uint
	byNumber map[string]uint
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		rows:     make(map[uint]models.Registration),
		byAadhar: make(map[string]uint),
		byPAN:    make(map[string]uint),
		byNumber: make(map[string]uint),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byAadhar[reg.Aadhaar]; ok {
		return &DuplicateError{Key: KeyAadhaar}
	}
	if _, ok := s.byPAN[reg.PAN]; ok {
		return &DuplicateError{Key: KeyPAN}
	}
	if _, ok := s.byNumber[reg.RegistrationNumber]; ok {
		return &DuplicateError{Key: KeyRegistrationNumber}
	}

	now := s.now()
	reg.ID = s.nextID
	reg.CreatedAt = now
	reg.UpdatedAt = now
	if reg.RegistrationDate.IsZero() {
		reg.RegistrationDate = now
	}
	s.nextID++

	s.rows[reg.ID] = *reg
	s.byAadhar[reg.Aadhaar] = reg.ID
	s.byPAN[reg.PAN] = reg.ID
	s.byNumber[reg.RegistrationNumber] = reg.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uint) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id, id != 0)
}

func (s *MemoryStore) FindByAadhaar(_ context.Context, aadhaar string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAadhar[aadhaar]
	return s.get(id, ok)
}

func (s *MemoryStore) FindByPAN(_ context.Context, pan string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPAN[pan]
	return s.get(id, ok)
}

func (s *MemoryStore) FindByRegistrationNumber(_ context.Context, number string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	return s.get(id, ok)
}

// ListRecent returns up to limit rows, newest first. Ties on CreatedAt are
// broken by descending id.
func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Registration, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// get must be called with s.mu held.
func (s *MemoryStore) get(id uint, ok bool) (*models.Registration, error) {
	if !ok {
		return nil, ErrNotFound
	}
	r, exists := s.rows[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &r, nil
}
