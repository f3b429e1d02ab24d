package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
)

// dummyPassword is hashed once and verified against when an identifier does
// not resolve, so unknown users cost the same as wrong passwords.
const dummyPassword = "uac-dummy-password"

// AuthServiceParams groups AuthService collaborators. LastLogin defaults to a
// synchronous recorder; Replay is optional.
type AuthServiceParams struct {
	Repo      ports.UserRepository
	Hasher    ports.PasswordHasher
	Tokens    ports.TokenIssuer
	LastLogin ports.LastLoginRecorder
	Replay    ports.RegistrationReplayStore
	Log       zerolog.Logger
}

// AuthService implements registration, login and token resolution.
type AuthService struct {
	repo      ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	lastLogin ports.LastLoginRecorder
	replay    ports.RegistrationReplayStore
	log       zerolog.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(p AuthServiceParams) *AuthService {
	lastLogin := p.LastLogin
	if lastLogin == nil {
		lastLogin = NewSyncLastLoginRecorder(p.Repo, p.Log)
	}
	return &AuthService{
		repo:      p.Repo,
		hasher:    p.Hasher,
		tokens:    p.Tokens,
		lastLogin: lastLogin,
		replay:    p.Replay,
		log:       p.Log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a general-user account. Username and email uniqueness are
// pre-checked separately; a uniqueness violation surfacing from the store at
// insert time is reported as domain.ErrRegistrationConflict.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	replayed, err := s.replayed(ctx, in)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &ports.RegisterResult{User: replayed, AlreadyExisted: true}, nil
	}

	if err := s.ensureAbsent(ctx, s.repo.FindByUsername, in.Username, domain.ErrDuplicateUsername); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, s.repo.FindByEmail, in.Email, domain.ErrDuplicateEmail); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		MiddleName:   in.MiddleName,
		LastName:     in.LastName,
		MobileNumber: in.MobileNumber,
		IsActive:     true,
		RoleCodes:    domain.DefaultRole.Code(),
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.log.Warn().Str("username", in.Username).Msg("registration lost uniqueness race")
			return nil, domain.ErrRegistrationConflict
		}
		return nil, err
	}

	if in.IdempotencyKey != "" && s.replay != nil {
		rec := ports.RegistrationReplay{UserID: created.ID, Fingerprint: registrationFingerprint(in)}
		if err := s.replay.Remember(ctx, in.IdempotencyKey, rec); err != nil {
			s.log.Warn().Err(err).Int64("user_id", created.ID).Msg("failed to store registration replay key")
		}
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return &ports.RegisterResult{User: created}, nil
}

// replayed returns the user an earlier request with the same Idempotency-Key
// created. The key only replays for the same username and email, and only
// when the caller also presents that user's password; anything else is
// domain.ErrIdempotencyKeyReused. Store failures fall back to a normal
// registration.
func (s *AuthService) replayed(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.IdempotencyKey == "" || s.replay == nil {
		return nil, nil
	}
	rec, err := s.replay.Lookup(ctx, in.IdempotencyKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("registration replay lookup failed, registering normally")
		return nil, nil
	}
	if rec == nil {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(rec.Fingerprint), []byte(registrationFingerprint(in))) != 1 {
		return nil, domain.ErrIdempotencyKeyReused
	}
	user, err := s.repo.FindByID(ctx, rec.UserID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", rec.UserID).Msg("replayed registration points at missing user")
		return nil, nil
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, domain.ErrIdempotencyKeyReused
	}
	return user, nil
}

// registrationFingerprint binds an Idempotency-Key to the identity fields of
// the request. The password is checked against the stored hash instead.
func registrationFingerprint(in ports.RegisterInput) string {
	sum := sha256.Sum256([]byte(in.Username + "\x00" + in.Email))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) ensureAbsent(
	ctx context.Context,
	find func(context.Context, string) (*domain.User, error),
	value string,
	dup error,
) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return dup
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// Authenticate resolves identifier (username or email) and password to an
// active user. Unknown identifier, wrong password and inactive account all
// yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// UpdateLastLogin stamps the current time on user. Best-effort: concurrent
// logins race and the last write wins.
func (s *AuthService) UpdateLastLogin(ctx context.Context, user *domain.User) {
	now := s.now()
	s.lastLogin.Record(ctx, user.ID, now)
	user.LastLogin = &now
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	user, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	s.UpdateLastLogin(ctx, user)

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Debug().Int64("user_id", user.ID).Msg("login succeeded")
	return &ports.LoginResult{Token: token, User: user, ExpiresIn: s.tokens.TTL()}, nil
}

// CurrentUser verifies token and loads its subject. A subject that no longer
// exists is reported as domain.ErrInvalidToken.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}
	return user, nil
}
