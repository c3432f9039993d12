package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/auth"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func get(r *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	w := get(r, "/")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := newEngine(RequestID(), Logger(), Recovery())
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := get(r, "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(time.Hour, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "buckets are per IP")
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(NewIPRateLimiter(time.Hour, 1)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, get(r, "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/").Code)
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionRequired(t *testing.T) {
	const cookie = "dms_session"

	tests := []struct {
		name     string
		cookie   *http.Cookie
		setup    func(*MockAuthService)
		wantCode int
	}{
		{
			name:     "no cookie",
			setup:    func(*MockAuthService) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:   "expired session",
			cookie: &http.Cookie{Name: cookie, Value: "stale"},
			setup: func(s *MockAuthService) {
				s.On("Authenticate", mock.Anything, "stale").Return(nil, auth.ErrInvalidSession)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:   "store failure",
			cookie: &http.Cookie{Name: cookie, Value: "tok"},
			setup: func(s *MockAuthService) {
				s.On("Authenticate", mock.Anything, "tok").Return(nil, assert.AnError)
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:   "valid",
			cookie: &http.Cookie{Name: cookie, Value: "good"},
			setup: func(s *MockAuthService) {
				s.On("Authenticate", mock.Anything, "good").Return(&auth.Session{Username: "staff"}, nil)
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setup(svc)

			r := newEngine(SessionRequired(svc, cookie))
			r.GET("/", func(c *gin.Context) {
				sess, ok := CurrentSession(c)
				require.True(t, ok)
				c.String(http.StatusOK, sess.Username)
			})

			var w *httptest.ResponseRecorder
			if tt.cookie != nil {
				w = get(r, "/", tt.cookie)
			} else {
				w = get(r, "/")
			}
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	withSession := func(sess *auth.Session) gin.HandlerFunc {
		return func(c *gin.Context) {
			if sess != nil {
				c.Set(sessionKey, sess)
			}
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	r := newEngine(withSession(&auth.Session{Username: "admin", IsAdmin: true}), AdminRequired())
	r.GET("/", ok)
	assert.Equal(t, http.StatusOK, get(r, "/").Code)

	r = newEngine(withSession(&auth.Session{Username: "staff"}), AdminRequired())
	r.GET("/", ok)
	assert.Equal(t, http.StatusForbidden, get(r, "/").Code)

	r = newEngine(withSession(nil), AdminRequired())
	r.GET("/", ok)
	assert.Equal(t, http.StatusForbidden, get(r, "/").Code)
}
