package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/baseuac/uac-api/internal/api/handler"
	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
	"github.com/baseuac/uac-api/internal/core/service"
)

// memUserRepo is an in-memory ports.UserRepository for wiring the real
// services behind the router.
type memUserRepo struct {
	mu     sync.Mutex
	users  []*domain.User
	nextID int64
}

func (r *memUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUsernameOrEmail(_ context.Context, identifier string) (*domain.User, error) {
	if u, err := r.find(func(u *domain.User) bool { return u.Username == identifier }); err == nil {
		return u, nil
	}
	return r.find(func(u *domain.User) bool { return u.Email == identifier })
}

func (r *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.users = append(r.users, &stored)
	clone := stored
	return &clone, nil
}

func (r *memUserRepo) update(id int64, fn func(*domain.User)) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			fn(u)
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	_, err := r.update(id, func(u *domain.User) { u.LastLogin = &at })
	return err
}

func (r *memUserRepo) UpdateRoleCodes(_ context.Context, id int64, roleCodes string) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.RoleCodes = roleCodes })
}

type memReplay struct {
	mu   sync.Mutex
	keys map[string]ports.RegistrationReplay
}

func (m *memReplay) Lookup(_ context.Context, key string) (*ports.RegistrationReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.keys[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memReplay) Remember(_ context.Context, key string, r ports.RegistrationReplay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; !ok {
		m.keys[key] = r
	}
	return nil
}

func newServiceRouter(t *testing.T) *echo.Echo {
	t.Helper()
	repo := &memUserRepo{}
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	log := zerolog.Nop()

	if _, err := service.NewSeeder(repo, hasher, log).Seed(context.Background(), service.DefaultSeedAccounts("adminpass123", "managerpass123")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		AppName: "UAC API",
		Auth: service.NewAuthService(service.AuthServiceParams{
			Repo:   repo,
			Hasher: hasher,
			Tokens: service.NewTokenService("flow-secret", 30*time.Minute),
			Replay: &memReplay{keys: map[string]ports.RegistrationReplay{}},
			Log:    log,
		}),
		Roles:      service.NewRoleService(repo, log),
		Log:        log,
		Registerer: reg,
		Gatherer:   reg,
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/auth/login", "", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", username, rec.Code, rec.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(t, rec, &body)
	if body.AccessToken == "" || body.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %s", rec.Body.String())
	}
	return body.AccessToken
}

func TestRouter_RegisterLoginPromoteFlow(t *testing.T) {
	e := newServiceRouter(t)

	rec := do(e, http.MethodPost, "/api/v1/auth/register", "", `{"username":"alice","email":"alice@x.com","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var alice struct {
		UserID      int64  `json:"user_id"`
		UserLevelID string `json:"user_level_id"`
		IsActive    bool   `json:"is_active"`
	}
	decode(t, rec, &alice)
	if alice.UserLevelID != "3" || !alice.IsActive || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("unexpected registered user: %s", rec.Body.String())
	}

	aliceToken := login(t, e, "alice", "password123")

	rec = do(e, http.MethodGet, "/api/v1/auth/me", aliceToken, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("me: unexpected %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"last_login":"`) {
		t.Fatalf("me: expected last_login to be set after login: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/v1/admin/admin-only", aliceToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin-only as general user: expected 403, got %d", rec.Code)
	}

	adminToken := login(t, e, "test_admin_user", "adminpass123")
	rec = do(e, http.MethodPost, fmt.Sprintf("/api/v1/admin/assign-role/%d?role_ids=1,3", alice.UserID), adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("assign-role: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"new_roles":"1,3"`) || !strings.Contains(rec.Body.String(), `"assigned_by":"test_admin_user"`) {
		t.Fatalf("assign-role: unexpected body %s", rec.Body.String())
	}

	// The old token resolves the user fresh, so the new roles apply at once.
	rec = do(e, http.MethodGet, "/api/v1/admin/admin-only", aliceToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin-only after promotion: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/v1/admin/users", login(t, e, "alice", "password123"), "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"test_manager_user"`) {
		t.Fatalf("users: unexpected %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouter_RegisterIdempotencyKey(t *testing.T) {
	e := newServiceRouter(t)

	register := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(handler.HeaderIdempotencyKey, key)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	aliceBody := `{"username":"alice","email":"alice@x.com","password":"password123"}`
	if rec := register("k1", aliceBody); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec := register("k1", aliceBody)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("retry: expected 200 replay, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = register("k1", `{"username":"mallory","email":"mallory@x.com","password":"password456"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("reused key: expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "alice") {
		t.Fatalf("reused key must not disclose the first registration: %s", rec.Body.String())
	}
}
