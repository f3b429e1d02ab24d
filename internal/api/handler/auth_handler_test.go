package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/baseuac/uac-api/internal/api/middleware"
	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error)
	loginFn       func(ctx context.Context, identifier, password string) (*ports.LoginResult, error)
	currentUserFn func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return s.currentUserFn(ctx, token)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			if in.Username != "alice" || in.Email != "alice@example.com" || in.FirstName != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.Password != "  secret-pass " {
				t.Fatalf("password must not be trimmed, got %q", in.Password)
			}
			return &ports.RegisterResult{User: &domain.User{
				ID:           1,
				Username:     in.Username,
				Email:        in.Email,
				PasswordHash: "$2a$10$hash",
				FirstName:    in.FirstName,
				IsActive:     true,
				RoleCodes:    "3",
				CreatedAt:    created,
			}}, nil
		},
	}
	h := NewAuthHandler(stub)

	body := `{"username":"  alice ","email":"alice@example.com","password":"  secret-pass ","first_name":" Alice"}`
	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", body)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["user_level_id"] != "3" || resp["is_active"] != true {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["user_id"] != float64(1) {
		t.Fatalf("expected user_id 1, got %v", resp["user_id"])
	}
	if resp["last_login"] != nil {
		t.Fatalf("expected null last_login, got %v", resp["last_login"])
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("response leaks password hash: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_IdempotentReplay(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			if in.IdempotencyKey != "req-42" {
				t.Fatalf("expected idempotency key, got %q", in.IdempotencyKey)
			}
			return &ports.RegisterResult{
				User:           &domain.User{ID: 9, Username: in.Username, RoleCodes: "3"},
				AlreadyExisted: true,
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	body := `{"username":"alice","email":"alice@example.com","password":"secret-pass"}`
	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", body)
	c.Request().Header.Set(HeaderIdempotencyKey, "req-42")

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	h := NewAuthHandler(stub)

	body := `{"username":"bob","email":"bob@example.com","password":"secret-pass"}`
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", body)

	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"short username":  `{"username":"ab","email":"a@example.com","password":"secret-pass"}`,
		"bad email":       `{"username":"alice","email":"not-an-email","password":"secret-pass"}`,
		"short password":  `{"username":"alice","email":"a@example.com","password":"short"}`,
		"long mobile":     `{"username":"alice","email":"a@example.com","password":"secret-pass","mobile_number":"012345678901234567890"}`,
		"blank username":  `{"username":"    ","email":"a@example.com","password":"secret-pass"}`,
		"missing payload": `{}`,
	}

	for name, body := range cases {
		e := newEcho()
		stub := &stubAuthService{
			registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
				t.Fatalf("%s: service must not be called", name)
				return nil, nil
			},
		}
		h := NewAuthHandler(stub)
		c, _ := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", body)

		var ve *domain.ValidationError
		if err := h.Register(c); !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", name, err)
		}
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{})
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/auth/register", `{"username":`)

	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			if identifier != "alice@example.com" || password != "secret-pass" {
				t.Fatalf("unexpected credentials: %s %s", identifier, password)
			}
			return &ports.LoginResult{
				Token:     &domain.AccessToken{Value: "signed.jwt.token", Subject: "alice"},
				User:      &domain.User{ID: 1, Username: "alice"},
				ExpiresIn: 30 * time.Minute,
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/auth/login", `{"username":"alice@example.com","password":"secret-pass"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "signed.jwt.token" || resp["token_type"] != "bearer" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["expires_in"] != float64(1800) {
		t.Fatalf("expected expires_in 1800, got %v", resp["expires_in"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"wrong"}`)

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_MissingPassword(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/auth/login", `{"username":"alice"}`)

	var ve *domain.ValidationError
	if err := h.Login(c); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAuthHandler_LoginForm(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			if identifier != "alice" || password != "secret-pass" {
				t.Fatalf("unexpected credentials: %s %s", identifier, password)
			}
			return &ports.LoginResult{
				Token:     &domain.AccessToken{Value: "form.jwt.token"},
				User:      &domain.User{ID: 1, Username: "alice"},
				ExpiresIn: time.Hour,
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	form := url.Values{"username": {"alice"}, "password": {"secret-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login/form", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.LoginForm(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"expires_in":3600`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetCurrentUser(c, &domain.User{ID: 3, Username: "carol", Email: "carol@example.com", RoleCodes: "2", IsActive: true})

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"username":"carol"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Me_WithoutUser(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.Me(c); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
