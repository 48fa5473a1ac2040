package domain

// Role is the authorization role carried by a user profile. The set is closed:
// anything outside the constants below is treated as no role at all.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleResponsable Role = "responsable"
	RoleVoluntario  Role = "voluntario"
	RoleVeterinario Role = "veterinario"
	RoleUsuario     Role = "usuario"
)

// IsValid reports whether r is one of the known roles. Matching is exact and
// case-sensitive.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleResponsable, RoleVoluntario, RoleVeterinario, RoleUsuario:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw role string, reporting whether it is known.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}

// AllRoles returns every known role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleResponsable, RoleVoluntario, RoleVeterinario, RoleUsuario}
}
