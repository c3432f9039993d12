package auth

import "time"

// Account is a configured login. There is no user table, accounts come
// from the environment.
type Account struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
}

// Session is stored in Redis under SessionKey(ID) for the cookie lifetime.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult carries the signed cookie value back to the handler.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Session   *Session
}

// Me is the body of GET /auth/me.
type Me struct {
	LoggedIn bool   `json:"logged_in"`
	IsAdmin  bool   `json:"is_admin"`
	Username string `json:"username,omitempty"`
}

const (
	sessionKeyPrefix = "auth:session:"
	failedKeyPrefix  = "auth:failed:"
)

func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

func FailedLoginKey(username string) string {
	return failedKeyPrefix + username
}
