package memory

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/checkin/internal/models"
)

// Demo credentials used when the server runs in demo mode.
const (
	DemoAdminEmail    = "admin@demo.com"
	DemoAdminPassword = "admin123"
)

// SeedAdmin hashes password with bcrypt at the given cost and registers the
// account. A non-empty passwordHash is used as-is instead.
func (s *Store) SeedAdmin(id int64, name, email, password, passwordHash string, cost int) error {
	if passwordHash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		passwordHash = string(hashed)
	}
	return s.PutAdmin(&models.Admin{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	})
}

// DemoVisitors returns the sample check-ins loaded in demo mode.
func DemoVisitors() []models.Visitor {
	partnership := "Here to discuss partnership opportunities"
	interview := "Interview for Senior Developer position"
	acme, tech, fastShip := "Acme Corporation", "Tech Corp", "FastShip Delivery"

	return []models.Visitor{
		{
			Name:        "John Doe",
			Email:       "john@example.com",
			Phone:       "+1234567890",
			Company:     &acme,
			Purpose:     "Business Meeting",
			Message:     &partnership,
			CheckinTime: "2024-02-01T10:30:00",
		},
		{
			Name:        "Jane Smith",
			Email:       "jane@techcorp.com",
			Phone:       "+1987654321",
			Company:     &tech,
			Purpose:     "Interview",
			Message:     &interview,
			CheckinTime: "2024-02-02T14:00:00",
		},
		{
			Name:        "Bob Johnson",
			Email:       "bob@delivery.com",
			Phone:       "+1122334455",
			Company:     &fastShip,
			Purpose:     "Delivery",
			CheckinTime: "2024-02-03T09:15:00",
		},
	}
}

// SeedDemo loads the demo admin and sample visitors.
func (s *Store) SeedDemo(ctx context.Context, cost int) error {
	if err := s.SeedAdmin(1, "Admin User", DemoAdminEmail, DemoAdminPassword, "", cost); err != nil {
		return err
	}
	for _, v := range DemoVisitors() {
		v := v
		if err := s.CreateVisitor(ctx, &v); err != nil {
			return fmt.Errorf("failed to seed visitor %s: %w", v.Name, err)
		}
	}
	return nil
}
