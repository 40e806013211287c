package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubSessions struct {
	sess *application.Session
	err  error
}

func (s stubSessions) Save(context.Context, application.Session, time.Duration) error { return nil }
func (s stubSessions) Get(context.Context, string) (*application.Session, error)      { return s.sess, s.err }
func (s stubSessions) Delete(context.Context, string) error                           { return nil }

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(CtxUserID), "role": c.GetString(CtxUserRole)})
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour, "test")
	token, _, err := jwt.GenerateAccessToken("u-1", "s-1", "ADMIN")
	require.NoError(t, err)

	withCookie := func(v string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if v != "" {
			req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: v})
		}
		return req
	}
	live := &application.Session{UserID: "u-1", SessionID: "s-1", Role: "ADMIN"}

	cases := []struct {
		name     string
		sessions stubSessions
		cookie   string
		status   int
	}{
		{"missing cookie", stubSessions{sess: live}, "", http.StatusUnauthorized},
		{"bad token", stubSessions{sess: live}, "garbage", http.StatusUnauthorized},
		{"no session", stubSessions{}, token, http.StatusUnauthorized},
		{"rotated session", stubSessions{sess: &application.Session{UserID: "u-1", SessionID: "s-2"}}, token, http.StatusUnauthorized},
		{"store down", stubSessions{err: errors.New("down")}, token, http.StatusServiceUnavailable},
		{"ok", stubSessions{sess: live}, token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(newEngine(Auth(tc.sessions, jwt)), withCookie(tc.cookie))
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"uid":"u-1","role":"ADMIN"}`, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	setRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(CtxUserRole, role) }
	}
	w := do(newEngine(setRole("USER"), RequireRole(entity.RoleAdmin)), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newEngine(setRole("ADMIN"), RequireRole(entity.RoleAdmin)), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := newEngine(RealIP(), RateLimit(rdb, 2, time.Minute, KeyByIP(), nil))
	req := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		return req
	}

	w := do(r, req())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, do(r, req()).Code)

	w = do(r, req())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.True(t, mr.Exists("rl:ip:203.0.113.7"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, req()).Code)
}

func TestRateLimit_FailsOpenAndAllowList(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	allowed := newEngine(RealIP(), RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()))
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.5")
		assert.Equal(t, http.StatusOK, do(allowed, req).Code)
	}

	mr.Close()
	r := newEngine(RateLimit(rdb, 1, time.Minute, KeyByIP(), nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "6f1c2b1e-8a43-4c0e-9d57-0b6f3b0f2a11")
	w = do(r, req)
	assert.Equal(t, "6f1c2b1e-8a43-4c0e-9d57-0b6f3b0f2a11", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "<script>")
	w = do(r, req)
	assert.NotEqual(t, "<script>", w.Header().Get("X-Request-ID"))
}

func TestRealIP(t *testing.T) {
	var got string
	r := gin.New()
	r.Use(RealIP())
	r.GET("/x", func(c *gin.Context) { got = c.GetString(CtxRealIP) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	do(r, req)
	assert.Equal(t, "198.51.100.1", got)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	do(r, req)
	assert.Equal(t, "203.0.113.9", got)
}
