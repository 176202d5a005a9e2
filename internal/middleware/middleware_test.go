package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/session"
)

func signedToken(t *testing.T, role string, expires time.Time) string {
	t.Helper()
	claims := session.Claims{
		UserID:   "u1",
		Username: "Ada",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

// newRouter serves /set?token=... to seed the cookie and /guarded behind the given handlers.
func newRouter(log *zap.Logger, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/set", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(constants.SessionKeyToken, c.Query("token"))
		_ = s.Save()
		c.Status(http.StatusNoContent)
	})
	handlers := append([]gin.HandlerFunc{LoadSession(log)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": GetSession(c).Authenticated()})
	})
	r.GET("/guarded", handlers...)
	return r
}

func call(r *gin.Engine, token string) *httptest.ResponseRecorder {
	set := httptest.NewRecorder()
	r.ServeHTTP(set, httptest.NewRequest(http.MethodGet, "/set?token="+token, nil))

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	for _, c := range set.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newRouter(zap.NewNop(), RequireAuth())

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, signedToken(t, "", time.Now().Add(-time.Hour))).Code)

	w := call(r, signedToken(t, "", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(zap.NewNop(), RequireAuth(), RequireAdmin())

	assert.Equal(t, http.StatusForbidden, call(r, signedToken(t, "user", time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusOK, call(r, signedToken(t, constants.AdminRole, time.Now().Add(time.Hour))).Code)
}

func TestLoadSession_AnonymousIsNotRejected(t *testing.T) {
	r := newRouter(zap.NewNop())

	w := call(r, "not-a-jwt")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newRouter(zap.New(core), RequireAuth())

	w := call(r, "")
	require.NotEmpty(t, w.Header().Get(requestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	last := entries[1]
	assert.Equal(t, zapcore.WarnLevel, last.Level)
	assert.Equal(t, "/guarded", last.ContextMap()["path"])
	assert.EqualValues(t, http.StatusUnauthorized, last.ContextMap()["status"])
	assert.Equal(t, w.Header().Get(requestIDHeader), last.ContextMap()["request_id"])
}
