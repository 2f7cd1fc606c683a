package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartHandshake(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 0)
	ctx := context.Background()

	sess, err := svc.StartHandshake(ctx, "google")
	require.NoError(t, err)
	assert.Len(t, sess.ID, 64)
	assert.NotEmpty(t, sess.State)
	assert.NotEqual(t, sess.ID, sess.State)
	assert.NotEmpty(t, sess.CodeVerifier)
	assert.Equal(t, "google", sess.Provider)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, DefaultTTL, sess.ExpiresAt.Sub(sess.CreatedAt))

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.State, got.State)

	other, err := svc.StartHandshake(ctx, "google")
	require.NoError(t, err)
	assert.NotEqual(t, sess.State, other.State)
}

func TestRegenerateReplacesSession(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	hs, err := svc.StartHandshake(ctx, "linkedin")
	require.NoError(t, err)

	logged, err := svc.Regenerate(ctx, hs, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, hs.ID, logged.ID)
	assert.Equal(t, "user-1", logged.UserID)
	assert.Equal(t, "linkedin", logged.Provider)
	assert.Empty(t, logged.State)
	assert.Empty(t, logged.CodeVerifier)

	old, err := svc.Get(ctx, hs.ID)
	require.NoError(t, err)
	assert.Nil(t, old)
	assert.Equal(t, 1, repo.Len())

	_, err = svc.Regenerate(ctx, logged, "")
	require.Error(t, err)

	// no prior session is fine (password login)
	fresh, err := svc.Regenerate(ctx, nil, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "user-2", fresh.UserID)
}

func TestGetExpiredAndDestroy(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	sess, err := svc.Regenerate(ctx, nil, "user-1")
	require.NoError(t, err)

	got, err := svc.Get(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	later := time.Now().UTC().Add(2 * time.Hour)
	svc.now = func() time.Time { return later }
	got, err = svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, repo.Len())

	svc.now = func() time.Time { return time.Now().UTC() }
	sess, err = svc.Regenerate(ctx, nil, "user-1")
	require.NoError(t, err)
	require.NoError(t, svc.Destroy(ctx, sess.ID))
	require.NoError(t, svc.Destroy(ctx, sess.ID))
	require.NoError(t, svc.Destroy(ctx, ""))
	got, err = svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

type fakeFinder struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeFinder) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func TestSerializer(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), time.Hour)
	finder := &fakeFinder{users: map[string]*models.User{"u1": {ID: "u1", Email: "a@example.com"}}}
	z := NewSerializer(svc, finder)

	hs, err := svc.StartHandshake(ctx, "google")
	require.NoError(t, err)

	sess, err := z.Serialize(ctx, hs, &models.User{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.NotEqual(t, hs.ID, sess.ID)

	u, err := z.Deserialize(ctx, sess)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a@example.com", u.Email)

	// lookup happens on every call, so a deleted user reads as anonymous
	delete(finder.users, "u1")
	u, err = z.Deserialize(ctx, sess)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 2, finder.calls)

	u, err = z.Deserialize(ctx, hs)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 2, finder.calls)

	finder.err = errors.New("db down")
	_, err = z.Deserialize(ctx, sess)
	require.Error(t, err)

	_, err = z.Serialize(ctx, hs, nil)
	require.Error(t, err)
}

func TestCookieCodec(t *testing.T) {
	c := NewCookieCodec("secret-a")

	v := c.Encode("abc123")
	id, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = NewCookieCodec("secret-b").Decode(v)
	require.ErrorIs(t, err, ErrBadCookie)

	for _, bad := range []string{"", "abc123", ".sig", "abc124." + v[len("abc123."):], "abc123.!!!"} {
		_, err := c.Decode(bad)
		require.ErrorIs(t, err, ErrBadCookie, "value %q", bad)
	}
}
