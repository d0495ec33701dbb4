package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/checkin/internal/models"
	"github.com/mmynk/checkin/internal/storage"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage storage.AdminStore
	// dummyHash is compared against when the email is unknown. It uses the
	// same cost as stored admin hashes so both failure paths take equally long.
	dummyHash []byte
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// cost should match the cost admin hashes were generated with; values outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func NewPasswordAuthenticator(storage storage.AdminStore, cost int) *PasswordAuthenticator {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Only fails for out-of-range costs or passwords over 72 bytes.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &PasswordAuthenticator{
		storage:   storage,
		dummyHash: dummy,
	}
}

// Authenticate verifies the email and password, returning the admin if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Admin, error) {
	admin, err := a.storage.GetAdminByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up admin: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(credential))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}
