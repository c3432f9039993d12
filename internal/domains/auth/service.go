package auth

import "context"

// Service is the session login contract used by the handler and the
// session middleware.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Session, error)
}
