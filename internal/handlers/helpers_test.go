package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/cache"
	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/gateway"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/services"
	"github.com/yukikurage/taskboard-web/internal/testutil"
	"github.com/yukikurage/taskboard-web/internal/validation"
)

// testEnv is a browser talking to the server, which talks to a fake API.
type testEnv struct {
	t        *testing.T
	api      *testutil.FakeAPI
	router   *gin.Engine
	registry *services.BoardRegistry
	cookies  map[string]*http.Cookie
}

type envOptions struct {
	users       *cache.UserCache
	suggestions *services.SuggestionService
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	api := testutil.NewFakeAPI(t)
	gw := gateway.New(gateway.Config{BaseURL: api.URL, Timeout: 2 * time.Second})
	registry := services.NewBoardRegistry(time.Hour, nil)
	log := zap.NewNop()

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	Routes(r, Handlers{
		Board:  NewBoardHandler(registry, gw, opts.suggestions, log),
		Auth:   NewAuthHandler(gw, opts.users, registry, log),
		Admin:  NewAdminHandler(gw, log),
		Logger: log,
	})

	return &testEnv{
		t:        t,
		api:      api,
		router:   r,
		registry: registry,
		cookies:  map[string]*http.Cookie{},
	}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		e.cookies[c.Name] = c
	}
	return w
}

// login registers an account with the fake API and signs in through the server.
func (e *testEnv) login(u models.User) {
	e.t.Helper()
	e.api.AddAccount(u, "secret1")
	w := e.do(http.MethodPost, "/api/auth/login", gin.H{"email": u.Email, "password": "secret1"})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
