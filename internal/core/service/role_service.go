package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
)

// RoleService implements the admin-only role operations.
type RoleService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewRoleService(repo ports.UserRepository, log zerolog.Logger) *RoleService {
	return &RoleService{repo: repo, log: log}
}

// AssignRoles overwrites the target's role string verbatim. The actor must
// hold the admin role; the target must exist before the proposed string is
// validated. Nothing is written on any failure.
func (s *RoleService) AssignRoles(ctx context.Context, actor *domain.User, targetID int64, roleCodes string) (*ports.RoleAssignment, error) {
	if err := domain.GuardAdmin.Check(actor); err != nil {
		return nil, err
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateRoleCodes(roleCodes); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateRoleCodes(ctx, target.ID, roleCodes)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", updated.ID).
		Str("roles", roleCodes).
		Str("assigned_by", actor.Username).
		Msg("roles assigned")

	return &ports.RoleAssignment{User: updated, AssignedBy: actor.Username}, nil
}

func (s *RoleService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}
