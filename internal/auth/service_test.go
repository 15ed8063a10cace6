package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

type mockKeyStore struct {
	keys map[int64]*APIKey
}

func (m *mockKeyStore) GetActive(ctx context.Context, id int64) (*APIKey, error) {
	key, ok := m.keys[id]
	if !ok {
		return nil, ErrInvalidKey
	}
	return key, nil
}

func newTestStore(t *testing.T) *mockKeyStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("sellersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockKeyStore{keys: map[int64]*APIKey{
		7: {
			ID:          7,
			Name:        "till-3",
			KeyHash:     string(hash),
			Role:        shared.RoleSeller,
			LocationIDs: []int64{1, 2},
			IsActive:    true,
		},
	}}
}

func TestResolveValidKey(t *testing.T) {
	svc := NewService(newTestStore(t))

	actor, err := svc.Resolve(context.Background(), "7.sellersecret")
	require.NoError(t, err)

	assert.Equal(t, int64(7), actor.ID)
	assert.Equal(t, shared.RoleSeller, actor.Role)
	assert.Equal(t, []int64{1, 2}, actor.LocationIDs)
}

func TestResolveWrongSecret(t *testing.T) {
	svc := NewService(newTestStore(t))

	_, err := svc.Resolve(context.Background(), "7.wrong")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestResolveUnknownID(t *testing.T) {
	svc := NewService(newTestStore(t))

	_, err := svc.Resolve(context.Background(), "99.sellersecret")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestResolveMalformedKeys(t *testing.T) {
	svc := NewService(newTestStore(t))

	for _, raw := range []string{"", "nosecret", "7.", ".secret", "abc.secret", "-1.secret"} {
		_, err := svc.Resolve(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidKey, "raw key %q", raw)
	}
}
