package middleware

import (
	"context"

	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RoleLookup resolves a user's role inside an organization. Implemented by
// the membership registry; returns "" when the user has no membership there.
type RoleLookup interface {
	RoleInOrg(ctx context.Context, userID, orgID uuid.UUID) (string, error)
}

const orgRoleLocal = "org_role"

// AuthorizePermission gates an org-scoped route. It reads the organization
// from the :org_id route param, resolves the actor's membership role and
// checks it against the permission-roles table. A user with no membership in
// the org is forbidden regardless of memberships elsewhere.
//
// On success the resolved role is stored in Locals("org_role") so handlers
// can apply finer-grained checks without a second lookup.
func AuthorizePermission(lookup RoleLookup, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := Actor(c)
		if actor == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		orgID, err := uuid.Parse(c.Params("org_id"))
		if err != nil {
			return response.Error(c, "Invalid organization id", fiber.StatusBadRequest, nil)
		}
		userID, err := uuid.Parse(actor.UserID)
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		roles, ok := constants.PermissionRoles[permission]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}

		role, err := lookup.RoleInOrg(c.Context(), userID, orgID)
		if err != nil {
			return response.Error(c, "Authorization error", fiber.StatusInternalServerError, nil)
		}
		if role == "" || !constants.AllowedRole(permission, role) {
			return response.Forbidden(c, "Forbidden")
		}

		c.Locals(orgRoleLocal, role)
		return c.Next()
	}
}

// OrgRole returns the role resolved by AuthorizePermission for this request.
func OrgRole(c *fiber.Ctx) string {
	r, _ := c.Locals(orgRoleLocal).(string)
	return r
}
