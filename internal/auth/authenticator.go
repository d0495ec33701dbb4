package auth

import (
	"context"

	"github.com/mmynk/checkin/internal/models"
)

// Authenticator defines the interface for admin authentication implementations.
// This abstraction allows swapping the credential check (password, SSO, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the admin's credentials and returns the account if successful.
	// Unknown emails and wrong passwords both return ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.Admin, error)
}
