package ports

import (
	"context"

	"github.com/baseuac/uac-api/internal/core/domain"
)

// RoleAssignment is the result of an admin changing a user's roles.
type RoleAssignment struct {
	User *domain.User
	// AssignedBy is the acting admin's username, for display only.
	AssignedBy string
}

// RoleService holds the administrative role operations.
type RoleService interface {
	AssignRoles(ctx context.Context, actor *domain.User, targetID int64, roleCodes string) (*RoleAssignment, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
