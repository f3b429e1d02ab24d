package domain

import "time"

// User is the identity and authorization record of an account.
// RoleCodes keeps the stored comma-separated form; use EffectiveRoles or a
// Guard to interpret it.
type User struct {
	ID           int64      `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	MiddleName   string     `json:"middle_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	MobileNumber string     `json:"mobile_number,omitempty"`
	IsActive     bool       `json:"is_active"`
	RoleCodes    string     `json:"user_level_id"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"date_created"`
}

// AccessToken is a signed bearer token issued at login. It is never persisted.
type AccessToken struct {
	Value     string
	Subject   string
	ExpiresAt time.Time
}
