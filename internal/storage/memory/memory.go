// Package memory provides a process-local implementation of the storage interfaces.
// Nothing is persisted; every restart begins from whatever is seeded.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mmynk/checkin/internal/models"
	"github.com/mmynk/checkin/internal/storage"
)

// Ensure Store implements the storage interfaces
var (
	_ storage.VisitorStore = (*Store)(nil)
	_ storage.AdminStore   = (*Store)(nil)
)

// Store keeps visitors in insertion order and admins keyed by email.
// All mutation is serialized by mu; IDs come from a counter that only grows,
// so an ID is never handed out twice even after deletes.
type Store struct {
	mu       sync.RWMutex
	visitors []models.Visitor
	lastID   int64
	admins   map[string]*models.Admin
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		admins: make(map[string]*models.Admin),
	}
}

// CreateVisitor appends a copy of visitor and sets visitor.ID.
func (s *Store) CreateVisitor(ctx context.Context, visitor *models.Visitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	visitor.ID = s.lastID
	s.visitors = append(s.visitors, visitor.Clone())
	return nil
}

// ListVisitors returns a deep copy of all visitors in insertion order.
func (s *Store) ListVisitors(ctx context.Context) ([]models.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Visitor, len(s.visitors))
	for i, v := range s.visitors {
		out[i] = v.Clone()
	}
	return out, nil
}

// GetVisitor retrieves a copy of the visitor with the given ID.
func (s *Store) GetVisitor(ctx context.Context, id int64) (*models.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("visitor %d: %w", id, storage.ErrNotFound)
	}
	v := s.visitors[i].Clone()
	return &v, nil
}

// DeleteVisitor removes the visitor with the given ID.
func (s *Store) DeleteVisitor(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("visitor %d: %w", id, storage.ErrNotFound)
	}
	s.visitors = slices.Delete(s.visitors, i, i+1)
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	for i := range s.visitors {
		if s.visitors[i].ID == id {
			return i
		}
	}
	return -1
}

// PutAdmin registers an admin account. Emails are matched case-insensitively
// and must be unique.
func (s *Store) PutAdmin(admin *models.Admin) error {
	key := emailKey(admin.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[key]; exists {
		return fmt.Errorf("admin %s already exists", admin.Email)
	}
	a := *admin
	s.admins[key] = &a
	return nil
}

// GetAdminByEmail looks up an admin account by email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.admins[emailKey(email)]
	if !ok {
		return nil, fmt.Errorf("admin %s: %w", email, storage.ErrNotFound)
	}
	a := *admin
	return &a, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Len returns the number of stored visitors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visitors)
}
