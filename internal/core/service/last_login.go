package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/baseuac/uac-api/internal/core/ports"
)

// SyncLastLoginRecorder writes the last-login timestamp inline. Failures are
// logged and otherwise ignored; the login itself has already succeeded.
type SyncLastLoginRecorder struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewSyncLastLoginRecorder(repo ports.UserRepository, log zerolog.Logger) *SyncLastLoginRecorder {
	return &SyncLastLoginRecorder{repo: repo, log: log}
}

func (r *SyncLastLoginRecorder) Record(ctx context.Context, userID int64, at time.Time) {
	if err := r.repo.UpdateLastLogin(ctx, userID, at); err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to update last login")
	}
}
