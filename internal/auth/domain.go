package auth

import (
	"errors"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// APIKey is a stored credential mapping to an actor identity. The raw key
// presented by callers has the form "<id>.<secret>"; only the bcrypt hash
// of the secret is persisted.
type APIKey struct {
	ID          int64
	Name        string
	KeyHash     string
	Role        shared.Role
	LocationIDs []int64
	IsActive    bool
}

// ErrInvalidKey indicates a missing, malformed, revoked or mismatched key.
var ErrInvalidKey = errors.New("auth: invalid api key")
