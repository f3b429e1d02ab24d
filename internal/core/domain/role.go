package domain

import (
	"strconv"
	"strings"
)

// Role is one of the three fixed access levels. The zero value is not a role.
type Role int

const (
	RoleAdmin Role = iota + 1
	RoleManager
	RoleGeneralUser
)

// DefaultRole is assigned to every self-registered account.
const DefaultRole = RoleGeneralUser

var allRoles = []Role{RoleAdmin, RoleManager, RoleGeneralUser}

// AllRoles returns the roles in code order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Code is the storage and wire representation ("1", "2", "3").
func (r Role) Code() string {
	return strconv.Itoa(int(r))
}

func (r Role) Name() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleGeneralUser:
		return "general user"
	default:
		return "unknown"
	}
}

func (r Role) Description() string {
	switch r {
	case RoleAdmin:
		return "Administrator with full access"
	case RoleManager:
		return "Manager with limited administrative access"
	case RoleGeneralUser:
		return "General user with basic access"
	default:
		return ""
	}
}

func (r Role) String() string { return r.Name() }

// ParseRole maps an exact role code to its Role. Codes are compared verbatim,
// so "01" or " 1" are not roles.
func ParseRole(code string) (Role, bool) {
	for _, r := range allRoles {
		if r.Code() == code {
			return r, true
		}
	}
	return 0, false
}

// SplitRoleCodes splits a stored role string on commas and trims each
// segment. Empty, duplicate and unknown segments are kept as-is.
func SplitRoleCodes(codes string) []string {
	if codes == "" {
		return []string{}
	}
	parts := strings.Split(codes, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// EffectiveRoles returns the distinct valid roles named by codes, in input
// order. Unknown segments are ignored.
func EffectiveRoles(codes string) []Role {
	var (
		out  []Role
		seen = make(map[Role]struct{}, len(allRoles))
	)
	for _, c := range SplitRoleCodes(codes) {
		r, ok := ParseRole(c)
		if !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ValidateRoleCodes checks every trimmed segment of a proposed role string and
// returns an *InvalidRoleError naming the first one that is not a role code.
// An empty segment (for example from "1,") is rejected like any other
// unknown code.
func ValidateRoleCodes(codes string) error {
	segments := strings.Split(codes, ",")
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if _, ok := ParseRole(s); !ok {
			return &InvalidRoleError{Code: s}
		}
	}
	return nil
}

// RoleCodeList renders every valid code, e.g. "1, 2, 3".
func RoleCodeList() string {
	codes := make([]string, len(allRoles))
	for i, r := range allRoles {
		codes[i] = r.Code()
	}
	return strings.Join(codes, ", ")
}
