package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

// captureNotifier keeps the last confirmation key per e-mail.
type captureNotifier map[string]string

func (n captureNotifier) SendConfirmation(_ context.Context, u *domain.User, token string) error {
	n[u.Email] = token
	return nil
}

func newAuth(t *testing.T) (*services.AuthService, captureNotifier) {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := services.NewAuthService(db, "test-secret", time.Hour)
	notes := captureNotifier{}
	svc.Notify = notes
	return svc, notes
}

var alice = services.Registration{
	FirstName: "Alice", LastName: "Liddell", Email: "Alice@Example.test", Password: "Wonder1and!",
}

func TestRegisterConfirmLogin(t *testing.T) {
	auth, notes := newAuth(t)
	ctx := context.Background()

	u, err := auth.Register(ctx, alice, domain.RoleBuyer)
	require.NoError(t, err)
	assert.False(t, u.Active)
	assert.Equal(t, "alice@example.test", u.Email)
	assert.True(t, strings.HasPrefix(u.Hash, "$2"), "password must be stored as a bcrypt hash")

	_, _, err = auth.Login(ctx, "alice@example.test", alice.Password)
	assert.ErrorIs(t, err, services.ErrInactive)

	token := notes["alice@example.test"]
	require.NotEmpty(t, token)

	_, err = auth.Confirm(ctx, "alice@example.test", "wrong")
	assert.ErrorIs(t, err, services.ErrValidation)

	confirmed, err := auth.Confirm(ctx, "ALICE@example.test", token)
	require.NoError(t, err)
	assert.True(t, confirmed.Active)

	// a key works once
	_, err = auth.Confirm(ctx, "alice@example.test", token)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, _, err = auth.Login(ctx, "alice@example.test", "Wrong-pass1")
	assert.ErrorIs(t, err, services.ErrBadCredentials)
	_, _, err = auth.Login(ctx, "nobody@example.test", alice.Password)
	assert.ErrorIs(t, err, services.ErrBadCredentials)

	tok, logged, err := auth.Login(ctx, "Alice@Example.test", alice.Password)
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	who, err := auth.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)
	assert.Equal(t, domain.RoleBuyer, who.Role)
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	weak := alice
	weak.Password = "password"
	_, err := auth.Register(ctx, weak, domain.RoleBuyer)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")

	// partners need company and position
	_, err = auth.Register(ctx, alice, domain.RoleSeller)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "company")
	assert.Contains(t, ve.Fields, "position")

	_, err = auth.Register(ctx, alice, domain.RoleBuyer)
	require.NoError(t, err)
	again := alice
	again.Email = "ALICE@example.test"
	_, err = auth.Register(ctx, again, domain.RoleBuyer)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, services.ErrBadCredentials)

	other := services.NewAuthService(auth.DB, "another-secret", time.Hour)
	forged, err := other.Issue(&domain.User{ID: 1, Role: domain.RoleSeller})
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, services.ErrBadCredentials)

	expired := services.NewAuthService(auth.DB, "test-secret", -time.Minute)
	stale, err := expired.Issue(&domain.User{ID: 1})
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, stale)
	assert.ErrorIs(t, err, services.ErrBadCredentials)
}
