// Package access holds the role-membership rule every guard in the
// dashboard applies, on the server and in clients alike.
package access

import "github.com/dimitrije/aiden-dashboard/internal/models"

// Allowed reports whether role is a member of required. An empty required
// set allows nobody.
func Allowed(role models.Role, required []models.Role) bool {
	if !role.IsValid() {
		return false
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// Routes maps each protected dashboard area to the roles that may enter it.
var Routes = map[string][]models.Role{
	"dashboard":      models.AllRoles(),
	"team":           {models.RoleSuperAdmin, models.RoleLeadership},
	"projects":       models.AllRoles(),
	"certifications": models.AllRoles(),
	"portfolio":      models.AllRoles(),
	"reports":        {models.RoleSuperAdmin, models.RoleLeadership},
	"profile":        models.AllRoles(),
	"settings":       models.AllRoles(),
	"export":         {models.RoleSuperAdmin, models.RoleLeadership},
}

// RolesFor returns the required-role set of a named area. Unknown areas get
// an empty set and are therefore closed.
func RolesFor(area string) []models.Role {
	return Routes[area]
}
