package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyIsOrderedByRank(t *testing.T) {
	entries := Hierarchy()
	require.Len(t, entries, 5)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].Rank, entries[i].Rank)
	}
	assert.Equal(t, RoleDoyen, entries[0].Role)
	assert.Equal(t, RoleSecretaire, entries[len(entries)-1].Role)
}

func TestHierarchyReturnsCopies(t *testing.T) {
	first := Hierarchy()
	first[0].CanManage[0] = RoleEtudiant
	first[0].Rank = 99

	second := Hierarchy()
	assert.Equal(t, RoleViceDoyen, second[0].CanManage[0])
	assert.Equal(t, 5, second[0].Rank)
}

func TestManageableRoles(t *testing.T) {
	assert.ElementsMatch(t,
		[]Role{RoleViceDoyen, RoleChefDepartement, RoleChefSpecialite, RoleSecretaire},
		ManageableRoles(RoleDoyen))
	assert.ElementsMatch(t,
		[]Role{RoleChefDepartement, RoleChefSpecialite, RoleSecretaire},
		ManageableRoles(RoleViceDoyen))
	assert.Empty(t, ManageableRoles(RoleChefSpecialite))
	assert.Empty(t, ManageableRoles(RoleSecretaire))
	assert.Empty(t, ManageableRoles(RoleEnseignant))
	assert.Empty(t, ManageableRoles(RoleEtudiant))
}

func TestCanAccessRole(t *testing.T) {
	assert.True(t, CanAccessRole(RoleDoyen, RoleViceDoyen))
	assert.True(t, CanAccessRole(RoleViceDoyen, RoleSecretaire))
	assert.False(t, CanAccessRole(RoleSecretaire, RoleDoyen))
	assert.False(t, CanAccessRole(RoleViceDoyen, RoleDoyen))

	for _, target := range []Role{RoleDoyen, RoleViceDoyen, RoleChefDepartement, RoleChefSpecialite, RoleSecretaire, RoleEnseignant, RoleEtudiant} {
		assert.False(t, CanAccessRole(RoleChefSpecialite, target), "CHEF_DE_SPECIALITE must manage nobody, got access to %s", target)
	}
}

func TestCanManageAdministrator(t *testing.T) {
	admin := &User{ID: "adm-1", Role: RoleSecretaire}
	assert.True(t, CanManageAdministrator(RoleChefDepartement, admin))
	assert.False(t, CanManageAdministrator(RoleSecretaire, admin))
	assert.False(t, CanManageAdministrator(RoleDoyen, nil))
}

func TestIsAdministrative(t *testing.T) {
	assert.True(t, IsAdministrative(RoleDoyen))
	assert.True(t, IsAdministrative(RoleSecretaire))
	assert.False(t, IsAdministrative(RoleEnseignant))
	assert.False(t, IsAdministrative(RoleEtudiant))
}

func TestTaskAllowedForRole(t *testing.T) {
	assert.True(t, TaskAllowedForRole(RoleSecretaire, "SAISIE_NOTES"))
	assert.False(t, TaskAllowedForRole(RoleSecretaire, "VALIDATION_EMPLOIS"))
	// Roles without a whitelist entry accept any task type.
	assert.True(t, TaskAllowedForRole(RoleViceDoyen, "ANYTHING"))
}
