package ports

import (
	"context"
	"time"

	"github.com/baseuac/uac-api/internal/core/domain"
)

// PasswordHasher hashes and verifies stored credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(subject string) (*domain.AccessToken, error)
	// Verify returns the token subject, or domain.ErrInvalidToken /
	// domain.ErrTokenExpired.
	Verify(token string) (string, error)
	TTL() time.Duration
}

// LastLoginRecorder persists a successful login time.
type LastLoginRecorder interface {
	Record(ctx context.Context, userID int64, at time.Time)
}

// RegistrationReplay is what an Idempotency-Key remembers.
type RegistrationReplay struct {
	UserID int64
	// Fingerprint identifies the registration request that created UserID.
	Fingerprint string
}

// RegistrationReplayStore remembers which registration an Idempotency-Key created.
type RegistrationReplayStore interface {
	// Lookup returns nil, nil when key is unknown.
	Lookup(ctx context.Context, key string) (*RegistrationReplay, error)
	Remember(ctx context.Context, key string, r RegistrationReplay) error
}

// RegisterInput is the DTO passed from the transport layer to AuthService.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	FirstName      string
	MiddleName     string
	LastName       string
	MobileNumber   string
	IdempotencyKey string
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	User *domain.User
	// AlreadyExisted is true when the Idempotency-Key matched an earlier registration.
	AlreadyExisted bool
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token *domain.AccessToken
	User  *domain.User
	// ExpiresIn is the configured token lifetime.
	ExpiresIn time.Duration
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	// CurrentUser resolves a bearer token to an active user.
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}
