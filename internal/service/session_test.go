package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/tests/helpers"
)

func TestMintLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, carrier, err := env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: aliceEmail, Password: password})
	require.NoError(t, err)
	assert.Equal(t, "user-a", session.UserID())
	assert.Equal(t, "token-a", session.BackendToken())
	assert.NotContains(t, carrier, "token-a")

	resolved, err := env.svc.ResolveSession(ctx, carrier)
	require.NoError(t, err)
	assert.Equal(t, session.ID(), resolved.ID())
	assert.Equal(t, "token-a", resolved.BackendToken())
}

func TestMintErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: aliceEmail, Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: "nobody@x.com", Password: password})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = env.svc.Mint(ctx, MintRegister, domain.Credentials{Email: aliceEmail, Password: password})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: "not-an-email", Password: password})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	env.backend.SetError(helpers.OpLogin, errors.New("dial tcp: connection refused"))
	_, _, err = env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: aliceEmail, Password: password})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestMintRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, carrier, err := env.svc.Mint(ctx, MintRegister, domain.Credentials{Email: "new@x.com", Password: password})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", session.Email())

	_, err = env.svc.ResolveSession(ctx, carrier)
	require.NoError(t, err)

	_, _, err = env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: "new@x.com", Password: password})
	assert.NoError(t, err)
}

func TestResolveSessionExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carrier := env.login(t, aliceEmail)

	env.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := env.svc.ResolveSession(ctx, carrier)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolveSessionRejectsForeignSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A carrier naming Bob's session but claiming Alice as subject.
	bobSession, _, err := env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: bobEmail, Password: password})
	require.NoError(t, err)
	forged, err := env.svc.signer.Sign(bobSession.ID(), "user-a", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = env.svc.ResolveSession(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carrier := env.login(t, aliceEmail)

	require.NoError(t, env.svc.Revoke(ctx, carrier))
	_, err := env.svc.ResolveSession(ctx, carrier)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.NoError(t, env.svc.Revoke(ctx, carrier))
	assert.NoError(t, env.svc.Revoke(ctx, ""))
	assert.NoError(t, env.svc.Revoke(ctx, "garbage"))
}

func TestSweepExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _, err := env.svc.Mint(ctx, MintLogin, domain.Credentials{Email: aliceEmail, Password: password})
	require.NoError(t, err)

	env.svc.sweepExpiredSessions(ctx)
	got, err := env.store.GetSession(ctx, session.ID())
	require.NoError(t, err)
	assert.NotNil(t, got)

	env.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	env.svc.sweepExpiredSessions(ctx)
	got, err = env.store.GetSession(ctx, session.ID())
	require.NoError(t, err)
	assert.Nil(t, got)
}
