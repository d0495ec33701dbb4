package models

// Admin represents an administrator account.
// Accounts are seeded at startup; there is no endpoint to create or edit them.
type Admin struct {
	// ID is the numeric account identifier carried in token claims.
	ID int64

	// Name is the display name returned on login.
	Name string

	// Email is the login key and is unique across admins.
	Email string

	// PasswordHash is the bcrypt hash of the admin's password.
	PasswordHash string
}

// AdminProfile is the public view of an Admin returned by the login endpoint.
type AdminProfile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the public view of the account.
func (a *Admin) Profile() AdminProfile {
	return AdminProfile{ID: a.ID, Name: a.Name, Email: a.Email}
}
