package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"scaffold-api/app/server/cache"
	"scaffold-api/app/server/config"
	"scaffold-api/app/server/jwt"
	"scaffold-api/app/server/middlewares"
	"scaffold-api/app/server/models"
	"scaffold-api/app/server/store"
	"scaffold-api/app/server/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	e      *echo.Echo
	users  *store.UserStore
	tokens *jwt.JWT
	mr     *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.OpenDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens, err := jwt.New("handler-secret", time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.System.Environment = config.EnvTest

	l := zap.NewNop()
	users := store.New(db, testutil.FastHasher())
	roles := cache.NewUserRoles(rdb, users, l)
	app := NewApp(l, db, rdb, tokens, users, roles, cfg)

	e := echo.New()
	e.HTTPErrorHandler = app.HTTPErrorHandler
	app.RegisterHandlers(e, middlewares.NewAuth(tokens, roles, l))

	return &testEnv{e: e, users: users, tokens: tokens, mr: mr}
}

// seed creates a user directly in the store and returns it with a token.
func (env *testEnv) seed(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()

	u, err := env.users.Create(context.Background(), store.NewUser{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)

	tok, err := env.tokens.Issue(jwt.Identity{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
	require.NoError(t, err)

	return u, tok
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func (env *testEnv) call(t *testing.T, method, target, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var res apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	}
	return rec.Code, res
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type userWithToken struct {
	User  models.PublicProfile `json:"user"`
	Token string               `json:"token"`
}

type userList struct {
	Users      []models.PublicProfile `json:"users"`
	Pagination struct {
		Current int64 `json:"current"`
		Pages   int64 `json:"pages"`
		Total   int64 `json:"total"`
		Limit   int64 `json:"limit"`
	} `json:"pagination"`
}
