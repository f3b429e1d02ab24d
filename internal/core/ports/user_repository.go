package ports

import (
	"context"
	"time"

	"github.com/baseuac/uac-api/internal/core/domain"
)

// UserRepository persists user records. Implementations enforce uniqueness of
// username and email and report a violation as domain.ErrUserExists.
// Lookups that match nothing return domain.ErrUserNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByUsernameOrEmail matches identifier exactly against either column.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Create assigns ID and CreatedAt and returns the stored record.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// UpdateRoleCodes overwrites the role string verbatim and returns the
	// updated record.
	UpdateRoleCodes(ctx context.Context, id int64, roleCodes string) (*domain.User, error)
}

// Pinger is implemented by backing stores that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
