package domain

// MenuItem is one entry of the role navigation bar.
type MenuItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Menu returns the navigation entries for a role. Unknown roles get none.
func Menu(role Role) []MenuItem {
	switch role {
	case RoleAdmin:
		return []MenuItem{
			{Path: "/colonias", Label: "Colonias", Icon: "bi-house-door"},
			{Path: "/gatos", Label: "Listado Gatos", Icon: "bi-list-ul"},
			{Path: "/partes", Label: "Partes", Icon: "bi-journal-text"},
			{Path: "/actividades", Label: "Actividades", Icon: "bi-activity"},
			{Path: "/campanas", Label: "Campañas", Icon: "bi-calendar2-event"},
			{Path: "/quejas", Label: "Incidencias", Icon: "bi-chat-dots"},
			{Path: "/inspecciones", Label: "Inspecciones", Icon: "bi-search"},
			{Path: "/informes", Label: "Informes", Icon: "bi-file-earmark-text"},
			{Path: "/voluntarios", Label: "Voluntarios", Icon: "bi-people"},
			{Path: "/registrovoluntarios", Label: "Registro Voluntarios", Icon: "bi-people"},
			{Path: "/backup", Label: "Gestión Backups", Icon: "bi-database"},
		}
	case RoleResponsable:
		return []MenuItem{
			{Path: "/colonias", Label: "Colonias", Icon: "bi-house-door"},
			{Path: "/crear-gato", Label: "Nuevo Gato", Icon: "bi-plus-circle"},
			{Path: "/gatos", Label: "Listado Gatos", Icon: "bi-list-ul"},
			{Path: "/campanas", Label: "Campañas", Icon: "bi-calendar2-event"},
			{Path: "/quejas", Label: "Incidencias", Icon: "bi-chat-dots"},
			{Path: "/inspecciones", Label: "Inspecciones", Icon: "bi-search"},
			{Path: "/informes", Label: "Informes", Icon: "bi-file-earmark-text"},
			{Path: "/voluntarios", Label: "Voluntarios", Icon: "bi-people"},
			{Path: "/registrovoluntarios", Label: "Registro Voluntarios", Icon: "bi-people"},
		}
	case RoleVoluntario:
		return []MenuItem{
			{Path: "/mis-colonias", Label: "Mis Colonias", Icon: "bi-house-door"},
			{Path: "/mis-gatos", Label: "Mis Gatos", Icon: "bi-people"},
			{Path: "/mis-quejas", Label: "Listado de Incidencias", Icon: "bi-chat-dots"},
			{Path: "/mis-inspecciones", Label: "Listado de Inspecciones", Icon: "bi-chat-dots"},
		}
	case RoleVeterinario:
		return []MenuItem{
			{Path: "/gatos", Label: "Listado de Gatos", Icon: "bi-list-ul"},
			{Path: "/colonias-listado", Label: "Listado de Colonias", Icon: "bi-house-door"},
			{Path: "/campanas", Label: "Campañas", Icon: "bi-calendar2-event"},
			{Path: "/actividades", Label: "Actividades", Icon: "bi-activity"},
		}
	case RoleUsuario:
		return []MenuItem{
			{Path: "/mis-gatos", Label: "Mis Gatos", Icon: "bi-person-lines-fill"},
			{Path: "/mis-quejas", Label: "Listado de Incidencias", Icon: "bi-chat-dots"},
			{Path: "/mis-inspecciones", Label: "Listado de Inspecciones", Icon: "bi-chat-dots"},
		}
	default:
		return nil
	}
}

// LandingPath is where a freshly signed-in user is sent.
func LandingPath(role Role) string {
	switch role {
	case RoleAdmin, RoleResponsable:
		return "/colonias"
	case RoleVoluntario:
		return "/mis-colonias"
	case RoleVeterinario:
		return "/gatos"
	case RoleUsuario:
		return "/mis-gatos"
	default:
		return "/"
	}
}
