package domain

import (
	"sort"
	"strings"
)

// RouteAuthSpec binds a guarded path to the roles allowed to reach it.
// Specs are immutable once built.
type RouteAuthSpec struct {
	path  string
	roles map[Role]struct{}
}

// NewRouteAuthSpec builds a spec. Unknown roles are dropped so they can never
// be admitted, and an empty role list yields a spec that denies everyone.
func NewRouteAuthSpec(path string, roles ...Role) RouteAuthSpec {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			set[r] = struct{}{}
		}
	}
	return RouteAuthSpec{path: path, roles: set}
}

// Path returns the route pattern (echo syntax, e.g. /gatos/:id).
func (s RouteAuthSpec) Path() string { return s.path }

// Allows reports whether role is a member of the allowed set.
func (s RouteAuthSpec) Allows(role Role) bool {
	if !role.IsValid() {
		return false
	}
	_, ok := s.roles[role]
	return ok
}

// AllowedRoles returns the allowed set in a stable order.
func (s RouteAuthSpec) AllowedRoles() []Role {
	out := make([]Role, 0, len(s.roles))
	for r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RouteTable is the static set of guarded screens, keyed by path pattern.
type RouteTable struct {
	specs map[string]RouteAuthSpec
	order []string
}

// NewRouteTable indexes specs by path. A later spec for the same path wins.
func NewRouteTable(specs ...RouteAuthSpec) *RouteTable {
	t := &RouteTable{specs: make(map[string]RouteAuthSpec, len(specs))}
	for _, s := range specs {
		if _, seen := t.specs[s.path]; !seen {
			t.order = append(t.order, s.path)
		}
		t.specs[s.path] = s
	}
	return t
}

// Lookup returns the spec for a path pattern.
func (t *RouteTable) Lookup(path string) (RouteAuthSpec, bool) {
	s, ok := t.specs[path]
	return s, ok
}

// Match finds the spec whose pattern matches a concrete path, so /gatos/12
// resolves to /gatos/:id. Exact patterns win over parameterized ones.
func (t *RouteTable) Match(path string) (RouteAuthSpec, bool) {
	if s, ok := t.specs[path]; ok {
		return s, true
	}
	segs := splitPath(path)
	for _, p := range t.order {
		if matchSegments(splitPath(p), segs) {
			return t.specs[p], true
		}
	}
	return RouteAuthSpec{}, false
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}

// Specs returns every spec in declaration order.
func (t *RouteTable) Specs() []RouteAuthSpec {
	out := make([]RouteAuthSpec, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.specs[p])
	}
	return out
}

// DefaultRoutes is the screen table of the colony management console.
func DefaultRoutes() *RouteTable {
	return NewRouteTable(
		NewRouteAuthSpec("/gatos", RoleAdmin, RoleResponsable, RoleVoluntario, RoleVeterinario),
		NewRouteAuthSpec("/gatos/:id", RoleAdmin, RoleResponsable, RoleVoluntario, RoleVeterinario, RoleUsuario),
		NewRouteAuthSpec("/crear-gato", RoleAdmin, RoleResponsable, RoleVoluntario),
		NewRouteAuthSpec("/partes", RoleAdmin),
		NewRouteAuthSpec("/actividades", RoleAdmin, RoleVeterinario),
		NewRouteAuthSpec("/colonias", RoleAdmin, RoleResponsable),
		NewRouteAuthSpec("/mis-colonias", RoleVoluntario),
		NewRouteAuthSpec("/campanas", RoleAdmin, RoleResponsable, RoleVeterinario),
		NewRouteAuthSpec("/quejas", RoleAdmin, RoleResponsable, RoleUsuario),
		NewRouteAuthSpec("/inspecciones", RoleAdmin, RoleResponsable),
		NewRouteAuthSpec("/informes", RoleAdmin, RoleResponsable),
		NewRouteAuthSpec("/voluntarios", RoleAdmin, RoleResponsable),
		NewRouteAuthSpec("/registrovoluntarios", RoleAdmin, RoleResponsable),
		NewRouteAuthSpec("/backup", RoleAdmin),
		NewRouteAuthSpec("/colonias-listado", RoleUsuario, RoleVeterinario),
		NewRouteAuthSpec("/mis-quejas", RoleUsuario, RoleVoluntario),
		NewRouteAuthSpec("/mis-inspecciones", RoleUsuario, RoleVoluntario),
		NewRouteAuthSpec("/mis-gatos", RoleUsuario, RoleVoluntario),
		NewRouteAuthSpec("/cambiar-contrasena", AllRoles()...),
	)
}

// PublicPaths are screens reachable without a session.
func PublicPaths() []string {
	return []string{
		"/preview",
		"/quienes-somos",
		"/contacto",
		"/demo",
		"/mapa",
		"/condiciones-uso",
		"/politica-privacidad",
		"/no-autorizado",
		"/graficos",
		"/solicitar-recuperacion",
		"/resetear-contrasena",
	}
}
