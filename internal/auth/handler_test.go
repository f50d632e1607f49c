package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/shared"
)

type stubRepo struct {
	users   map[string]*auth.User
	touched []int64
}

func newStubRepo(t *testing.T) *stubRepo {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubRepo{users: map[string]*auth.User{
		"agent@voyager.test": {ID: 1, Email: "agent@voyager.test", Role: shared.RoleAgent, PasswordHash: string(hashed), IsActive: true},
		"gone@voyager.test":  {ID: 2, Email: "gone@voyager.test", Role: shared.RoleAgent, PasswordHash: string(hashed)},
	}}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, shared.NotFound("user", email)
	}
	return u, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.NotFound("user", id)
}

func (s *stubRepo) Upsert(ctx context.Context, u auth.User) (*auth.User, error) {
	u.ID = int64(len(s.users) + 1)
	u.IsActive = true
	s.users[u.Email] = &u
	return &u, nil
}

func (s *stubRepo) TouchLogin(ctx context.Context, id int64) error {
	s.touched = append(s.touched, id)
	return nil
}

func newRouter(t *testing.T) (http.Handler, *stubRepo, *auth.TokenIssuer) {
	t.Helper()
	repo := newStubRepo(t)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	r := chi.NewRouter()
	r.Route("/auth", auth.NewHandler(nil, auth.NewService(repo, tokens, nil)).MountRoutes)
	return r, repo, tokens
}

func postLogin(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestLoginIssuesTokenAndMeResolvesIt(t *testing.T) {
	h, repo, _ := newRouter(t)

	res := postLogin(t, h, `{"email":"Agent@voyager.test","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var env struct {
		Success bool             `json:"success"`
		Data    auth.LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "Bearer", env.Data.TokenType)
	assert.NotEmpty(t, env.Data.Token)
	assert.Equal(t, []int64{1}, repo.touched)
	assert.NotContains(t, res.Body.String(), "password_hash")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.Data.Token)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"email":"agent@voyager.test"`)
}

func TestLoginRejections(t *testing.T) {
	h, _, _ := newRouter(t)

	cases := map[string]struct {
		body string
		code int
	}{
		"wrong password": {`{"email":"agent@voyager.test","password":"wrongpass"}`, http.StatusUnauthorized},
		"unknown user":   {`{"email":"nobody@voyager.test","password":"correctpass"}`, http.StatusUnauthorized},
		"inactive user":  {`{"email":"gone@voyager.test","password":"correctpass"}`, http.StatusUnauthorized},
		"invalid email":  {`{"email":"not-an-email","password":"correctpass"}`, http.StatusBadRequest},
		"malformed body": {`{"email":`, http.StatusBadRequest},
		"unknown field":  {`{"email":"agent@voyager.test","password":"correctpass","otp":"1"}`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := postLogin(t, h, tc.body)
			assert.Equal(t, tc.code, res.Code, res.Body.String())
			assert.Contains(t, res.Body.String(), `"success":false`)
		})
	}
}

func TestMiddlewareRejectsMissingAndForgedTokens(t *testing.T) {
	h, _, _ := newRouter(t)
	forged, _, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue(auth.User{ID: 1, Role: shared.RoleAdmin})
	require.NoError(t, err)

	for _, header := range []string{"", "Basic abc", "Bearer " + forged, "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code, header)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	r := chi.NewRouter()
	r.Use(auth.Middleware(tokens, nil))
	r.With(auth.RequireRole(nil, shared.RoleAdmin)).Delete("/vendors/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	call := func(role string) int {
		token, _, err := tokens.Issue(auth.User{ID: 9, Role: role})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodDelete, "/vendors/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		return res.Code
	}
	assert.Equal(t, http.StatusForbidden, call(shared.RoleAgent))
	assert.Equal(t, http.StatusNoContent, call(shared.RoleAdmin))
}

func TestExpiredTokenRejected(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Minute)
	token, _, err := tokens.Issue(auth.User{ID: 1, Role: shared.RoleAgent})
	require.NoError(t, err)

	later := auth.NewTokenIssuer("test-secret", time.Minute)
	later.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestEnsureUserHashesPassword(t *testing.T) {
	repo := newStubRepo(t)
	svc := auth.NewService(repo, auth.NewTokenIssuer("s", 0), nil)
	u, err := svc.EnsureUser(context.Background(), auth.CreateUserRequest{Email: " Admin@Voyager.test ", Password: "supersecret", Role: shared.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin@voyager.test", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("supersecret")))

	_, err = svc.EnsureUser(context.Background(), auth.CreateUserRequest{Email: "x@voyager.test", Password: "short", Role: "root"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
