package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/auth"
	"github.com/bcmedia-dr/doctor-management-system/internal/infrastructure/cache"
	"github.com/bcmedia-dr/doctor-management-system/pkg/jwt"
)

const sessionTTL = time.Hour

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func setupAuth(t *testing.T) (auth.Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	accounts := []auth.Account{
		{Username: "Admin", PasswordHash: hash(t, "admin-pass"), IsAdmin: true},
		{Username: "staff", PasswordHash: hash(t, "staff-pass")},
		{Username: "nohash"},
	}
	svc := NewAuthService(accounts, cache.NewRedisCache(client), jwt.NewManager("test-secret"), sessionTTL)
	return svc, mr
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	svc, mr := setupAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, auth.LoginRequest{Username: " admin ", Password: "admin-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.Session.IsAdmin)
	assert.Equal(t, "Admin", res.Session.Username)
	assert.True(t, mr.Exists(auth.SessionKey(res.Session.ID)))
	assert.InDelta(t, sessionTTL.Seconds(), mr.TTL(auth.SessionKey(res.Session.ID)).Seconds(), 1)

	sess, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, sess.ID)
	assert.True(t, sess.IsAdmin)
}

func TestAuthService_LoginFailures(t *testing.T) {
	tests := []struct {
		name string
		req  auth.LoginRequest
	}{
		{name: "wrong password", req: auth.LoginRequest{Username: "staff", Password: "nope"}},
		{name: "unknown user", req: auth.LoginRequest{Username: "ghost", Password: "staff-pass"}},
		{name: "account without hash", req: auth.LoginRequest{Username: "nohash", Password: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupAuth(t)
			_, err := svc.Login(context.Background(), tt.req)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_LoginValidation(t *testing.T) {
	svc, _ := setupAuth(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{Username: "staff"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_ThrottlesAfterRepeatedFailures(t *testing.T) {
	svc, mr := setupAuth(t)
	ctx := context.Background()

	for i := 0; i < MaxFailedAttempts; i++ {
		_, err := svc.Login(ctx, auth.LoginRequest{Username: "staff", Password: "wrong"})
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	// Even the right password is refused while the window is open.
	_, err := svc.Login(ctx, auth.LoginRequest{Username: "STAFF", Password: "staff-pass"})
	assert.ErrorIs(t, err, auth.ErrTooManyAttempts)

	ttl := mr.TTL(auth.FailedLoginKey("staff"))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, FailedLoginWindow)

	mr.FastForward(FailedLoginWindow + time.Second)

	_, err = svc.Login(ctx, auth.LoginRequest{Username: "staff", Password: "staff-pass"})
	assert.NoError(t, err)
}

func TestAuthService_SuccessResetsCounter(t *testing.T) {
	svc, mr := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, auth.LoginRequest{Username: "staff", Password: "wrong"})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.True(t, mr.Exists(auth.FailedLoginKey("staff")))

	_, err = svc.Login(ctx, auth.LoginRequest{Username: "staff", Password: "staff-pass"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(auth.FailedLoginKey("staff")))
}

func TestAuthService_Logout(t *testing.T) {
	svc, mr := setupAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, auth.LoginRequest{Username: "staff", Password: "staff-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Token))
	assert.False(t, mr.Exists(auth.SessionKey(res.Session.ID)))

	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestAuthService_AuthenticateRejects(t *testing.T) {
	svc, mr := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	_, err = svc.Authenticate(ctx, "not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	forged, err := jwt.NewManager("other-secret").GenerateSessionToken("sid", "staff", true, time.Hour)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	res, err := svc.Login(ctx, auth.LoginRequest{Username: "staff", Password: "staff-pass"})
	require.NoError(t, err)
	mr.Del(auth.SessionKey(res.Session.ID))
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}
