package handler

import (
	"time"

	"github.com/baseuac/uac-api/internal/core/domain"
)

// userResponse is the public user view. It never carries the password hash.
type userResponse struct {
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	MiddleName   string     `json:"middle_name"`
	LastName     string     `json:"last_name"`
	MobileNumber string     `json:"mobile_number"`
	DateCreated  time.Time  `json:"date_created"`
	LastLogin    *time.Time `json:"last_login"`
	IsActive     bool       `json:"is_active"`
	UserLevelID  string     `json:"user_level_id"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		MiddleName:   u.MiddleName,
		LastName:     u.LastName,
		MobileNumber: u.MobileNumber,
		DateCreated:  u.CreatedAt.UTC(),
		LastLogin:    utcPtr(u.LastLogin),
		IsActive:     u.IsActive,
		UserLevelID:  u.RoleCodes,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
