package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCredentials   = errors.New("incorrect username or password")
	ErrInactiveUser         = errors.New("inactive user")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrRegistrationConflict = errors.New("user registration failed due to data conflict")
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for a different registration")

	ErrMissingCredentials = errors.New("not authenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")

	ErrNoRoleAssigned = errors.New("user has no assigned role")
	ErrForbidden      = errors.New("insufficient permissions")
	ErrInvalidRole    = errors.New("invalid role")
)

// InvalidRoleError names the first unknown code in a proposed role string.
type InvalidRoleError struct {
	Code string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role ID: %s. valid roles are: %s", e.Code, RoleCodeList())
}

func (e *InvalidRoleError) Is(target error) bool { return target == ErrInvalidRole }

// ValidationError carries per-field input problems.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}
