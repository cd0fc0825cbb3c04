package types

import "time"

// User represents an account in the system.
// It contains identity, role flags, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// IsActive reports whether the account has completed email
	// verification. Inactive accounts cannot authenticate at all,
	// regardless of credential correctness.
	IsActive bool `json:"is_active" db:"is_active"`

	// IsAdmin grants access to create/update/delete operations.
	// This is the only flag the authorization layer consults.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// IsStaff marks operator accounts. It carries no authorization
	// weight: staff does not imply admin.
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// LastLogin is the timestamp of the most recent successful login,
	// nil until the user has logged in once.
	LastLogin *time.Time `json:"last_login" db:"last_login"`
}
