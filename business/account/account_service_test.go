package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adOptimizer/domain"
)

type fakeUserRepo struct {
	users    map[string]domain.APIUser
	touched  []uint
	findErr  error
	lookups  int
	nextID   uint
	touchErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.APIUser)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.APIUser) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.KeyPrefix] = *user
	return nil
}

func (f *fakeUserRepo) FindByPrefix(_ context.Context, prefix string) (domain.APIUser, error) {
	f.lookups++
	if f.findErr != nil {
		return domain.APIUser{}, f.findErr
	}
	u, ok := f.users[prefix]
	if !ok {
		return domain.APIUser{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) TouchActivity(_ context.Context, id uint, _ time.Time) error {
	f.touched = append(f.touched, id)
	return f.touchErr
}

type fakeCache struct {
	entries map[string]uint
	err     error
}

func (f *fakeCache) Get(_ context.Context, digest string) (uint, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.entries[digest]
	return id, ok, nil
}

func (f *fakeCache) Set(_ context.Context, digest string, userID uint, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.entries[digest] = userID
	return nil
}

func TestIssueAndAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	cache := &fakeCache{entries: map[string]uint{}}
	svc := NewAccountService(repo, cache, time.Minute)
	ctx := context.Background()

	key, user, err := svc.IssueKey(ctx, " agency ")
	require.NoError(t, err)
	assert.Equal(t, "agency", user.Name)
	assert.Equal(t, uint(1), user.ID)

	prefix, secret, ok := strings.Cut(key, ".")
	require.True(t, ok)
	assert.Equal(t, user.KeyPrefix, prefix)
	assert.Len(t, prefix, prefixLength)
	assert.NotContains(t, user.KeyHash, secret)

	id, err := svc.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, 1, repo.lookups)
	assert.Contains(t, cache.entries, keyDigest(key))

	// second call is served from the cache
	id, err = svc.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, 1, repo.lookups)
	assert.Equal(t, []uint{1, 1}, repo.touched)
}

func TestAuthenticateRejectsBadKeys(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAccountService(repo, nil, 0)
	ctx := context.Background()

	key, _, err := svc.IssueKey(ctx, "agency")
	require.NoError(t, err)
	prefix, _, _ := strings.Cut(key, ".")

	for _, bad := range []string{"", "nodot", ".secret", prefix + ".", prefix + ".wrong", "unknown.secret"} {
		_, err := svc.Authenticate(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
	assert.Empty(t, repo.touched)
}

func TestAuthenticateFallsBackWhenCacheFails(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAccountService(repo, &fakeCache{err: errors.New("redis down")}, time.Minute)
	ctx := context.Background()

	key, user, err := svc.IssueKey(ctx, "agency")
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestAuthenticateRepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.findErr = errors.New("connection refused")
	svc := NewAccountService(repo, nil, time.Minute)

	_, err := svc.Authenticate(context.Background(), "abc.def")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidKey)
}

func TestAuthenticateIgnoresActivityFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.touchErr = errors.New("read only")
	svc := NewAccountService(repo, nil, time.Minute)
	ctx := context.Background()

	key, _, err := svc.IssueKey(ctx, "agency")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, key)
	assert.NoError(t, err)
}

func TestIssueKeyRequiresName(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo(), nil, 0)
	_, _, err := svc.IssueKey(context.Background(), "  ")
	assert.Error(t, err)
}
