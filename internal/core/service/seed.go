package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
)

// SeedAccount describes an account created at startup when seeding is enabled.
type SeedAccount struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role
}

// DefaultSeedAccounts returns the admin and manager test accounts.
func DefaultSeedAccounts(adminPassword, managerPassword string) []SeedAccount {
	return []SeedAccount{
		{
			Username:  "test_admin_user",
			Email:     "test_admin@example.com",
			Password:  adminPassword,
			FirstName: "Test",
			LastName:  "Admin",
			Role:      domain.RoleAdmin,
		},
		{
			Username:  "test_manager_user",
			Email:     "test_manager@example.com",
			Password:  managerPassword,
			FirstName: "Test",
			LastName:  "Manager",
			Role:      domain.RoleManager,
		},
	}
}

// Seeder creates missing seed accounts. Running it twice is a no-op.
type Seeder struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewSeeder(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *Seeder {
	return &Seeder{repo: repo, hasher: hasher, log: log}
}

// Seed returns how many accounts were created.
func (s *Seeder) Seed(ctx context.Context, accounts []SeedAccount) (int, error) {
	created := 0
	for _, acc := range accounts {
		_, err := s.repo.FindByUsername(ctx, acc.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return created, fmt.Errorf("seed %s: %w", acc.Username, err)
		}

		hash, err := s.hasher.Hash(acc.Password)
		if err != nil {
			return created, fmt.Errorf("seed %s: hash password: %w", acc.Username, err)
		}

		_, err = s.repo.Create(ctx, &domain.User{
			Username:     acc.Username,
			Email:        acc.Email,
			PasswordHash: hash,
			FirstName:    acc.FirstName,
			LastName:     acc.LastName,
			IsActive:     true,
			RoleCodes:    acc.Role.Code(),
		})
		if err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", acc.Username, err)
		}
		created++
	}

	if created > 0 {
		s.log.Info().Int("created", created).Msg("seed accounts created")
	} else {
		s.log.Info().Msg("seed accounts already present, skipping")
	}
	return created, nil
}
