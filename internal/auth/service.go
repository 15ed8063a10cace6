package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// KeyStore abstracts credential lookup for the service.
type KeyStore interface {
	GetActive(ctx context.Context, id int64) (*APIKey, error)
}

// Service resolves raw API keys into actors.
type Service struct {
	store KeyStore
}

// NewService builds Service.
func NewService(store KeyStore) *Service {
	return &Service{store: store}
}

// Resolve validates a raw "<id>.<secret>" key and returns the actor it
// represents. All failures collapse into ErrInvalidKey so callers cannot
// probe which part was wrong.
func (s *Service) Resolve(ctx context.Context, rawKey string) (shared.Actor, error) {
	id, secret, ok := splitKey(rawKey)
	if !ok {
		return shared.Actor{}, ErrInvalidKey
	}

	key, err := s.store.GetActive(ctx, id)
	if err != nil {
		return shared.Actor{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(secret)); err != nil {
		return shared.Actor{}, fmt.Errorf("%w: secret mismatch", ErrInvalidKey)
	}

	return shared.Actor{
		ID:          key.ID,
		Name:        key.Name,
		Role:        key.Role,
		LocationIDs: key.LocationIDs,
	}, nil
}

func splitKey(raw string) (int64, string, bool) {
	raw = strings.TrimSpace(raw)
	idPart, secret, found := strings.Cut(raw, ".")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, secret, true
}
