package models

// Role identifies an actor role within the faculty administration.
type Role string

const (
	RoleDoyen           Role = "DOYEN"
	RoleViceDoyen       Role = "VICE_DOYEN"
	RoleChefDepartement Role = "CHEF_DE_DEPARTEMENT"
	RoleChefSpecialite  Role = "CHEF_DE_SPECIALITE"
	RoleSecretaire      Role = "SECRETAIRE"
	RoleEnseignant      Role = "ENSEIGNANT"
	RoleEtudiant        Role = "ETUDIANT"
)

// HierarchyEntry describes one administrative role: its display rank and the
// set of roles it is allowed to manage. The canManage sets are authoritative;
// rank is used for ordering only and must never be used to infer
// manageability (CHEF_DE_SPECIALITE outranks SECRETAIRE yet manages nobody).
type HierarchyEntry struct {
	Role      Role   `json:"role"`
	Rank      int    `json:"rank"`
	CanManage []Role `json:"canManage"`
}

// hierarchy is process-wide constant data, ordered by descending rank.
var hierarchy = []HierarchyEntry{
	{Role: RoleDoyen, Rank: 5, CanManage: []Role{RoleViceDoyen, RoleChefDepartement, RoleChefSpecialite, RoleSecretaire}},
	{Role: RoleViceDoyen, Rank: 4, CanManage: []Role{RoleChefDepartement, RoleChefSpecialite, RoleSecretaire}},
	{Role: RoleChefDepartement, Rank: 3, CanManage: []Role{RoleChefSpecialite, RoleSecretaire}},
	{Role: RoleChefSpecialite, Rank: 2, CanManage: nil},
	{Role: RoleSecretaire, Rank: 1, CanManage: nil},
}

// Hierarchy returns the administrative role table ordered by descending rank.
// The returned slice is a copy; callers may not mutate the table.
func Hierarchy() []HierarchyEntry {
	out := make([]HierarchyEntry, len(hierarchy))
	for i, entry := range hierarchy {
		out[i] = HierarchyEntry{
			Role:      entry.Role,
			Rank:      entry.Rank,
			CanManage: append([]Role(nil), entry.CanManage...),
		}
	}
	return out
}

// ManageableRoles returns the canManage set for the actor role. Roles outside
// the administrative hierarchy (ENSEIGNANT, ETUDIANT) yield an empty set.
func ManageableRoles(actor Role) []Role {
	for _, entry := range hierarchy {
		if entry.Role == actor {
			return append([]Role(nil), entry.CanManage...)
		}
	}
	return nil
}

// IsAdministrative reports whether the role belongs to the hierarchy table.
func IsAdministrative(role Role) bool {
	for _, entry := range hierarchy {
		if entry.Role == role {
			return true
		}
	}
	return false
}

// CanAccessRole reports whether the actor role may manage the target role.
func CanAccessRole(actor, target Role) bool {
	for _, entry := range hierarchy {
		if entry.Role != actor {
			continue
		}
		for _, managed := range entry.CanManage {
			if managed == target {
				return true
			}
		}
		return false
	}
	return false
}

// CanManageAdministrator reports whether the actor may manage the given
// administrator, based on the administrator's current role.
func CanManageAdministrator(actor Role, admin *User) bool {
	if admin == nil {
		return false
	}
	return CanAccessRole(actor, admin.Role)
}

// delegableTasks whitelists task types per target role. A role with no entry
// accepts any task type.
var delegableTasks = map[Role][]string{
	RoleSecretaire:      {"GESTION_COURRIER", "SAISIE_NOTES", "PREPARATION_DOSSIERS"},
	RoleChefSpecialite:  {"SUIVI_PEDAGOGIQUE", "VALIDATION_NOTES", "ORGANISATION_RATTRAPAGE"},
	RoleChefDepartement: {"COORDINATION_SECTIONS", "VALIDATION_EMPLOIS", "RAPPORT_ACTIVITE"},
}

// TaskAllowedForRole reports whether the task type may be delegated to the
// target role.
func TaskAllowedForRole(target Role, taskType string) bool {
	allowed, ok := delegableTasks[target]
	if !ok {
		return true
	}
	for _, task := range allowed {
		if task == taskType {
			return true
		}
	}
	return false
}
