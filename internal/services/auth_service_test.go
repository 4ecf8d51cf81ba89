package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopapi/internal/domain"
	"shopapi/internal/repos"
	"shopapi/internal/services"
)

func newAuth(t *testing.T) *services.AuthService {
	t.Helper()
	return &services.AuthService{
		Users:  repos.NewUserRepo(memdb(t)),
		Tokens: &services.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Minute},
		Cost:   bcrypt.MinCost,
	}
}

func TestRegisterLoginCurrentUser(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	u, err := auth.Register(ctx, domain.NewUser{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.Hash)

	_, err = auth.Register(ctx, domain.NewUser{Username: "alice", Email: "x@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	for _, login := range []string{"alice", "ALICE@example.com"} {
		tok, err := auth.Login(ctx, login, "s3cret-pass")
		require.NoError(t, err, login)
		me, err := auth.CurrentUser(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, u.ID, me.ID)
	}

	_, err = auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = auth.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, services.ErrBadCreds)
}

func TestCurrentUserDeletedAccount(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)
	u, err := auth.Register(ctx, domain.NewUser{Username: "bob", Email: "bob@example.com", Password: "password1"})
	require.NoError(t, err)
	tok, err := auth.Tokens.Issue(u)
	require.NoError(t, err)

	require.NoError(t, auth.Users.Delete(ctx, u.ID))
	_, err = auth.CurrentUser(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	u, created, err := auth.EnsureAdmin(ctx, domain.NewUser{Username: "root", Email: "root@example.com", Password: "first-pass"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.IsAdmin)

	_, err = auth.Register(ctx, domain.NewUser{Username: "carol", Email: "carol@example.com", Password: "carol-pass"})
	require.NoError(t, err)
	u, created, err = auth.EnsureAdmin(ctx, domain.NewUser{Username: "carol", Email: "carol@example.com", Password: "new-pass"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, u.IsAdmin)
	_, err = auth.Login(ctx, "carol", "new-pass")
	assert.NoError(t, err)
}

func TestTokenVerify(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := &services.TokenIssuer{Secret: []byte("k1"), TTL: 30 * time.Minute, Now: func() time.Time { return now }}

	tok, err := issuer.Issue(&domain.User{ID: 42, Username: "dave"})
	require.NoError(t, err)
	id, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	other := &services.TokenIssuer{Secret: []byte("k2"), TTL: time.Minute, Now: issuer.Now}
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	now = now.Add(31 * time.Minute)
	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	issuer := &services.TokenIssuer{Secret: []byte("k"), TTL: time.Minute}
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(none)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginStoreFailureIsNotBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)
	_, err := auth.Register(ctx, domain.NewUser{Username: "erin", Email: "erin@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, auth.Users.DB.Close())
	_, err = auth.Login(ctx, "erin", "password1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrBadCreds)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = auth.EnsureAdmin(ctx, domain.NewUser{Username: "root", Email: "root@example.com", Password: "password1"})
	assert.Error(t, err)
}
