package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/auth"
	"github.com/bcmedia-dr/doctor-management-system/pkg/cache"
	"github.com/bcmedia-dr/doctor-management-system/pkg/jwt"
)

const (
	MaxFailedAttempts = 5
	FailedLoginWindow = 15 * time.Minute
)

type authService struct {
	accounts   map[string]auth.Account
	cache      cache.Cache
	jwtManager *jwt.Manager
	sessionTTL time.Duration
}

// NewAuthService indexes accounts by lower-cased username. Accounts without a
// username or password hash are ignored.
func NewAuthService(accounts []auth.Account, c cache.Cache, jwtManager *jwt.Manager, sessionTTL time.Duration) auth.Service {
	index := make(map[string]auth.Account, len(accounts))
	for _, a := range accounts {
		name := strings.ToLower(strings.TrimSpace(a.Username))
		if name == "" || a.PasswordHash == "" {
			continue
		}
		index[name] = a
	}

	return &authService{
		accounts:   index,
		cache:      c,
		jwtManager: jwtManager,
		sessionTTL: sessionTTL,
	}
}

func (s *authService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	username := req.NormalizedUsername()
	failedKey := auth.FailedLoginKey(username)

	var attempts int64
	if _, err := s.cache.Get(ctx, failedKey, &attempts); err != nil {
		return nil, fmt.Errorf("read failed login counter: %w", err)
	}
	if attempts >= MaxFailedAttempts {
		log.Warn().Str("username", username).Msg("login blocked after repeated failures")
		return nil, auth.ErrTooManyAttempts
	}

	account, ok := s.accounts[username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		s.recordFailure(ctx, failedKey)
		return nil, auth.ErrInvalidCredentials
	}

	if err := s.cache.Delete(ctx, failedKey); err != nil {
		log.Warn().Err(err).Msg("failed to reset login counter")
	}

	session := &auth.Session{
		ID:        uuid.NewString(),
		Username:  account.Username,
		IsAdmin:   account.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, auth.SessionKey(session.ID), session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.jwtManager.GenerateSessionToken(session.ID, session.Username, session.IsAdmin, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	log.Info().Str("username", session.Username).Bool("is_admin", session.IsAdmin).Msg("user logged in")

	return &auth.LoginResult{
		Token:     token,
		ExpiresAt: session.CreatedAt.Add(s.sessionTTL),
		Session:   session,
	}, nil
}

// Logout removes the server-side session. An unknown or expired token is not
// an error.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil
	}

	if err := s.cache.Delete(ctx, auth.SessionKey(claims.SessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	log.Info().Str("username", claims.Username).Msg("user logged out")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	if token == "" {
		return nil, auth.ErrInvalidSession
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, errors.Join(auth.ErrInvalidSession, err)
	}

	var session auth.Session
	found, err := s.cache.Get(ctx, auth.SessionKey(claims.SessionID), &session)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, auth.ErrInvalidSession
	}

	return &session, nil
}

func (s *authService) recordFailure(ctx context.Context, key string) {
	n, err := s.cache.Increment(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count login failure")
		return
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, key, FailedLoginWindow); err != nil {
			log.Warn().Err(err).Msg("failed to set login failure window")
		}
	}
}
