package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/baseuac/uac-api/internal/api/metrics"
	"github.com/baseuac/uac-api/internal/core/domain"
	"github.com/baseuac/uac-api/internal/core/ports"
)

// maxRoleIDsLen matches the width of the stored user_level_id column.
const maxRoleIDsLen = 255

// AdminHandler serves the role-gated /admin routes. Route guards are applied
// by the RBAC middleware; handlers assume the caller already passed them.
type AdminHandler struct {
	roles ports.RoleService
}

func NewAdminHandler(roles ports.RoleService) *AdminHandler {
	return &AdminHandler{roles: roles}
}

type accessResponse struct {
	Message     string `json:"message"`
	AccessLevel string `json:"access_level"`
	Description string `json:"description"`
}

type permissionsResponse struct {
	IsAdmin       bool `json:"is_admin"`
	IsManager     bool `json:"is_manager"`
	IsGeneralUser bool `json:"is_general_user"`
}

type myRolesResponse struct {
	UserID      int64               `json:"user_id"`
	Username    string              `json:"username"`
	UserLevelID string              `json:"user_level_id"`
	Roles       []string            `json:"roles"`
	RoleNames   []string            `json:"role_names"`
	Permissions permissionsResponse `json:"permissions"`
}

type userLevelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type userLevelsResponse struct {
	UserLevels []userLevelResponse `json:"user_levels"`
}

type assignRoleResponse struct {
	Message    string `json:"message"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	NewRoles   string `json:"new_roles"`
	AssignedBy string `json:"assigned_by"`
}

// AdminOnly
//
// @Summary      Admin-only probe
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accessResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/admin/admin-only [get]
func (h *AdminHandler) AdminOnly(c echo.Context) error {
	return c.JSON(http.StatusOK, accessResponse{
		Message:     "This is an admin-only endpoint",
		AccessLevel: "admin",
		Description: "Only users with admin role (1) can access this",
	})
}

// ManagerOrAdmin
//
// @Summary      Manager-or-admin probe
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accessResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/admin/manager-admin [get]
func (h *AdminHandler) ManagerOrAdmin(c echo.Context) error {
	return c.JSON(http.StatusOK, accessResponse{
		Message:     "This endpoint is for managers and admins",
		AccessLevel: "manager_or_admin",
		Description: "Users with manager (2) or admin (1) roles can access this",
	})
}

// AnyRole
//
// @Summary      Any-role probe
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accessResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/admin/all-users [get]
func (h *AdminHandler) AnyRole(c echo.Context) error {
	return c.JSON(http.StatusOK, accessResponse{
		Message:     "This endpoint is for all authenticated users",
		AccessLevel: "any_authenticated_user",
		Description: "Users with any role (1, 2, or 3) can access this",
	})
}

// MyRoles describes the caller's role string and what it grants.
//
// @Summary      Caller roles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  myRolesResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/admin/my-roles [get]
func (h *AdminHandler) MyRoles(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	codes := domain.SplitRoleCodes(user.RoleCodes)
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		if r, ok := domain.ParseRole(code); ok {
			names = append(names, r.Name())
		}
	}

	return c.JSON(http.StatusOK, myRolesResponse{
		UserID:      user.ID,
		Username:    user.Username,
		UserLevelID: user.RoleCodes,
		Roles:       codes,
		RoleNames:   names,
		Permissions: permissionsResponse{
			IsAdmin:       domain.HasRole(user, domain.RoleAdmin),
			IsManager:     domain.HasRole(user, domain.RoleManager),
			IsGeneralUser: domain.HasRole(user, domain.RoleGeneralUser),
		},
	})
}

// ListUsers
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.roles.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// UserLevels lists the role catalog.
//
// @Summary      Role catalog
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userLevelsResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/admin/user-levels [get]
func (h *AdminHandler) UserLevels(c echo.Context) error {
	roles := domain.AllRoles()
	levels := make([]userLevelResponse, 0, len(roles))
	for _, r := range roles {
		levels = append(levels, userLevelResponse{
			ID:          r.Code(),
			Name:        r.Name(),
			Description: r.Description(),
		})
	}
	return c.JSON(http.StatusOK, userLevelsResponse{UserLevels: levels})
}

// AssignRole replaces a user's role string with role_ids.
//
// @Summary      Assign roles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id   path      int     true  "Target user id"
// @Param        role_ids  query     string  true  "Comma-separated role codes, e.g. 1,2"
// @Success      200       {object}  assignRoleResponse
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      422       {object}  map[string]string
// @Router       /api/v1/admin/assign-role/{user_id} [post]
func (h *AdminHandler) AssignRole(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}

	targetID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return &domain.ValidationError{Fields: []string{"user_id must be an integer"}}
	}

	roleIDs, ok := roleIDsParam(c)
	if !ok {
		return &domain.ValidationError{Fields: []string{"role_ids is required"}}
	}
	if len(roleIDs) > maxRoleIDsLen {
		return &domain.ValidationError{Fields: []string{fmt.Sprintf("role_ids must be at most %d characters", maxRoleIDsLen)}}
	}

	res, err := h.roles.AssignRoles(c.Request().Context(), actor, targetID, roleIDs)
	if err != nil {
		metrics.RoleAssignmentsTotal.WithLabelValues(assignmentResult(err)).Inc()
		return err
	}
	metrics.RoleAssignmentsTotal.WithLabelValues("assigned").Inc()

	return c.JSON(http.StatusOK, assignRoleResponse{
		Message:    fmt.Sprintf("Roles assigned successfully to user %s", res.User.Username),
		UserID:     res.User.ID,
		Username:   res.User.Username,
		NewRoles:   res.User.RoleCodes,
		AssignedBy: res.AssignedBy,
	})
}

// roleIDsParam reads role_ids, falling back to the camelCase roleIds.
// Presence matters: an explicitly empty value is passed on to validation.
func roleIDsParam(c echo.Context) (string, bool) {
	params := c.QueryParams()
	for _, name := range []string{"role_ids", "roleIds"} {
		if _, ok := params[name]; ok {
			return params.Get(name), true
		}
	}
	return "", false
}

func assignmentResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNoRoleAssigned):
		return "forbidden"
	default:
		return "error"
	}
}
