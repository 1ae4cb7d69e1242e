package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors an identity from the external auth provider.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
