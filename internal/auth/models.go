package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Username and Email keep the casing
// the user supplied; uniqueness is enforced on their lowercased forms.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}
