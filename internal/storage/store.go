// Package storage provides abstractions for visitor and admin storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/checkin/internal/models"
)

// ErrNotFound is returned when a record with the requested key does not exist.
var ErrNotFound = errors.New("not found")

// VisitorStore defines the interface for visitor record storage.
// This abstraction allows swapping the in-memory list for a persistent
// backend without changing the service layer.
type VisitorStore interface {
	// CreateVisitor stores a new visitor and assigns its ID.
	// The visitor.ID field is populated by the store.
	CreateVisitor(ctx context.Context, visitor *models.Visitor) error

	// ListVisitors returns every visitor in insertion order.
	// The returned slice is a copy owned by the caller.
	ListVisitors(ctx context.Context) ([]models.Visitor, error)

	// GetVisitor retrieves a visitor by ID.
	// Returns ErrNotFound if no such visitor exists.
	GetVisitor(ctx context.Context, id int64) (*models.Visitor, error)

	// DeleteVisitor removes the visitor with the given ID, keeping the
	// relative order of the remaining visitors.
	// Returns ErrNotFound if no such visitor exists.
	DeleteVisitor(ctx context.Context, id int64) error
}

// AdminStore defines lookup of admin accounts by their unique email.
type AdminStore interface {
	// GetAdminByEmail returns ErrNotFound for unknown emails.
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
}
