package domain

// Guard is a role-membership predicate built from a fixed allowed-role set.
// It holds no state beyond that set and is safe for concurrent use.
type Guard struct {
	name    string
	allowed map[Role]struct{}
}

// NewGuard builds a Guard admitting any user holding at least one of allowed.
func NewGuard(name string, allowed ...Role) Guard {
	set := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return Guard{name: name, allowed: set}
}

var (
	GuardAdmin          = NewGuard("admin", RoleAdmin)
	GuardManagerOrAdmin = NewGuard("manager_or_admin", RoleAdmin, RoleManager)
	GuardAnyRole        = NewGuard("any_role", RoleAdmin, RoleManager, RoleGeneralUser)
)

// Name identifies the guard in logs and metrics.
func (g Guard) Name() string { return g.name }

// Check returns ErrNoRoleAssigned when the user carries no role string and
// ErrForbidden when none of the user's roles is allowed. The user itself is
// never modified.
func (g Guard) Check(u *User) error {
	if u == nil || u.RoleCodes == "" {
		return ErrNoRoleAssigned
	}
	for _, r := range EffectiveRoles(u.RoleCodes) {
		if _, ok := g.allowed[r]; ok {
			return nil
		}
	}
	return ErrForbidden
}

// HasRole reports whether the user's role string contains r.
func HasRole(u *User, r Role) bool {
	return HasAnyRole(u, r)
}

// HasAnyRole reports whether the user's role string contains any of roles.
func HasAnyRole(u *User, roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, have := range EffectiveRoles(u.RoleCodes) {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
