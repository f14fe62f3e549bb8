package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sevr/internal/client/client"
	"github.com/dmitrijs2005/sevr/internal/client/repositories/metadata"
)

func TestSession_LoginCachesTokens(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	meta := newMetadata(t)
	s := NewSessionService(newAPI(b), meta)

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.RequestCode(ctx, "A@X.com"))

	res, err := s.Login(ctx, "a@x.com", b.codes.last("a@x.com"))
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, "a@x.com", res.User.Email)

	email, err := s.Email(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	token, err := meta.Get(ctx, metadata.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.RefreshToken, string(token))

	me, err := s.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, me.ID)
}

func TestSession_WrongCode(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	meta := newMetadata(t)
	s := NewSessionService(newAPI(b), meta)

	require.NoError(t, s.RequestCode(ctx, "a@x.com"))
	wrong := "000000"
	if b.codes.last("a@x.com") == wrong {
		wrong = "111111"
	}

	_, err := s.Login(ctx, "a@x.com", wrong)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	token, err := meta.Get(ctx, metadata.KeyRefreshToken)
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestSession_Resume(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	meta := newMetadata(t)

	first := NewSessionService(newAPI(b), meta)
	require.NoError(t, first.RequestCode(ctx, "a@x.com"))
	_, err := first.Login(ctx, "a@x.com", b.codes.last("a@x.com"))
	require.NoError(t, err)

	// a new process with the same cache
	second := NewSessionService(newAPI(b), meta)
	user, err := second.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	_, err = second.Me(ctx)
	require.NoError(t, err)
}

func TestSession_ResumeWithoutCache(t *testing.T) {
	b := newBackend(t)
	s := NewSessionService(newAPI(b), newMetadata(t))

	_, err := s.Resume(context.Background())
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestSession_ResumeAfterLogoutDropsToken(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	meta := newMetadata(t)

	first := NewSessionService(newAPI(b), meta)
	require.NoError(t, first.RequestCode(ctx, "a@x.com"))
	_, err := first.Login(ctx, "a@x.com", b.codes.last("a@x.com"))
	require.NoError(t, err)
	token, err := meta.Get(ctx, metadata.KeyRefreshToken)
	require.NoError(t, err)

	// revoke from another client, then try to resume with the stale token
	other := newAPI(b)
	other.SetRefreshToken(string(token))
	require.NoError(t, other.Logout(ctx))

	second := NewSessionService(newAPI(b), meta)
	_, err = second.Resume(ctx)
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)

	token, err = meta.Get(ctx, metadata.KeyRefreshToken)
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestSession_Logout(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	s, _, _ := loggedIn(t, b, "a@x.com")

	require.NoError(t, s.Logout(ctx))

	_, err := s.Resume(ctx)
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)

	email, err := s.Email(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email, "email is kept for the next login prompt")
}

func TestSession_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	s, _, _ := loggedIn(t, b, "a@x.com")

	require.NoError(t, s.DeleteAccount(ctx))

	email, err := s.Email(ctx)
	require.NoError(t, err)
	assert.Empty(t, email)

	_, err = s.Resume(ctx)
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}
