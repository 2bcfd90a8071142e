package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

var errNoSession = assert.AnError

type fakeSessionRepo struct {
	sessions map[string]int64 // token hash -> user id
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]int64)}
}

func (r *fakeSessionRepo) Create(_ context.Context, userID int64, tokenHash string, _ time.Time) error {
	r.sessions[tokenHash] = userID
	return nil
}

func (r *fakeSessionRepo) Validate(_ context.Context, tokenHash string) (int64, error) {
	userID, ok := r.sessions[tokenHash]
	if !ok {
		return 0, errNoSession
	}
	return userID, nil
}

func (r *fakeSessionRepo) DeleteByUser(_ context.Context, userID int64) error {
	for hash, id := range r.sessions {
		if id == userID {
			delete(r.sessions, hash)
		}
	}
	return nil
}

func TestService_CreateAndValidate(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	token, err := svc.Create(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Only the hash is at rest.
	_, stored := repo.sessions[token]
	assert.False(t, stored)

	userID, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestService_Validate_UnknownToken(t *testing.T) {
	svc := NewService(newFakeSessionRepo(), slog.Default())

	_, err := svc.Validate(context.Background(), "never-issued")
	assert.Error(t, err)
}

func TestService_Create_TokensAreUnique(t *testing.T) {
	svc := NewService(newFakeSessionRepo(), slog.Default())
	ctx := context.Background()

	t1, err := svc.Create(ctx, 1)
	require.NoError(t, err)
	t2, err := svc.Create(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}
