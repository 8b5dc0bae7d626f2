package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	"github.com/univ-adm/faculte-api/internal/repository"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type adminStoreStub struct {
	users     map[string]*models.User
	created   []*models.User
	updated   []*models.User
	deleted   []string
	listRoles []models.Role
	listed    []models.User
	createErr error
	updateErr error
}

func newAdminStoreStub() *adminStoreStub {
	return &adminStoreStub{users: map[string]*models.User{}}
}

func (s *adminStoreStub) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	user.ID = "generated-id"
	s.created = append(s.created, user)
	return nil
}

func (s *adminStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *adminStoreStub) ListByRoles(ctx context.Context, roles []models.Role) ([]models.User, error) {
	s.listRoles = roles
	return s.listed, nil
}

func (s *adminStoreStub) Update(ctx context.Context, user *models.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, user)
	return nil
}

func (s *adminStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func claimsFor(role models.Role) *models.JWTClaims {
	return &models.JWTClaims{UserID: "actor-1", Role: role, Email: "actor@univ.dz", FullName: "Actor"}
}

func validCreatePayload(role models.Role) dto.CreateAdministratorRequest {
	return dto.CreateAdministratorRequest{
		Email:    "new.admin@univ.dz",
		Password: "motdepasse",
		FullName: "Nouvel Admin",
		Role:     role,
	}
}

func TestAdminServiceCreateHashesPasswordAndPersists(t *testing.T) {
	store := newAdminStoreStub()
	svc := NewAdminService(store, nil, nil)

	user, err := svc.Create(context.Background(), claimsFor(models.RoleDoyen), validCreatePayload(models.RoleChefDepartement))
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, models.RoleChefDepartement, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("motdepasse")))
}

func TestAdminServiceCreateRejectsUnmanageableRole(t *testing.T) {
	store := newAdminStoreStub()
	svc := NewAdminService(store, nil, nil)

	cases := []struct {
		name   string
		actor  models.Role
		target models.Role
	}{
		{"secretaire cannot create anyone", models.RoleSecretaire, models.RoleSecretaire},
		{"chef de specialite manages nobody", models.RoleChefSpecialite, models.RoleSecretaire},
		{"vice-doyen cannot create a peer", models.RoleViceDoyen, models.RoleViceDoyen},
		{"chef de departement cannot reach upward", models.RoleChefDepartement, models.RoleViceDoyen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), claimsFor(tc.actor), validCreatePayload(tc.target))
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
			assert.Empty(t, store.created)
		})
	}
}

func TestAdminServiceOnlyDoyenCreatesViceDoyen(t *testing.T) {
	store := newAdminStoreStub()
	svc := NewAdminService(store, nil, nil)

	_, err := svc.Create(context.Background(), claimsFor(models.RoleViceDoyen), validCreatePayload(models.RoleViceDoyen))
	require.Error(t, err)

	_, err = svc.Create(context.Background(), claimsFor(models.RoleDoyen), validCreatePayload(models.RoleViceDoyen))
	require.NoError(t, err)
}

func TestAdminServiceCreateRejectsNonAdministrativeRole(t *testing.T) {
	store := newAdminStoreStub()
	svc := NewAdminService(store, nil, nil)

	_, err := svc.Create(context.Background(), claimsFor(models.RoleDoyen), validCreatePayload(models.RoleEtudiant))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceCreateMapsDuplicateEmail(t *testing.T) {
	store := newAdminStoreStub()
	store.createErr = repository.ErrDuplicateKey
	svc := NewAdminService(store, nil, nil)

	_, err := svc.Create(context.Background(), claimsFor(models.RoleDoyen), validCreatePayload(models.RoleSecretaire))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceGetEnforcesHierarchy(t *testing.T) {
	store := newAdminStoreStub()
	store.users["admin-1"] = &models.User{ID: "admin-1", Role: models.RoleViceDoyen}
	svc := NewAdminService(store, nil, nil)

	_, err := svc.Get(context.Background(), claimsFor(models.RoleChefDepartement), "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin, err := svc.Get(context.Background(), claimsFor(models.RoleDoyen), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", admin.ID)
}

func TestAdminServiceGetHidesNonAdministrativeUsers(t *testing.T) {
	store := newAdminStoreStub()
	store.users["student-1"] = &models.User{ID: "student-1", Role: models.RoleEtudiant}
	svc := NewAdminService(store, nil, nil)

	_, err := svc.Get(context.Background(), claimsFor(models.RoleDoyen), "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceListScopesToManageableRoles(t *testing.T) {
	store := newAdminStoreStub()
	svc := NewAdminService(store, nil, nil)

	_, err := svc.List(context.Background(), claimsFor(models.RoleChefDepartement), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Role{models.RoleChefSpecialite, models.RoleSecretaire}, store.listRoles)

	admins, err := svc.List(context.Background(), claimsFor(models.RoleSecretaire), nil)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestAdminServiceListRejectsOutOfScopeRoleFilter(t *testing.T) {
	store := newAdminStoreStub()
	svc := NewAdminService(store, nil, nil)

	role := models.RoleViceDoyen
	_, err := svc.List(context.Background(), claimsFor(models.RoleChefDepartement), &role)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceUpdateValidatesRoleChangeBothWays(t *testing.T) {
	store := newAdminStoreStub()
	store.users["admin-1"] = &models.User{ID: "admin-1", Role: models.RoleSecretaire, FullName: "Sec"}
	svc := NewAdminService(store, nil, nil)

	// Vice-doyen may manage a secretaire but may not promote to vice-doyen.
	promoted := models.RoleViceDoyen
	_, err := svc.Update(context.Background(), claimsFor(models.RoleViceDoyen), "admin-1",
		dto.UpdateAdministratorRequest{Role: &promoted})
	require.Error(t, err)
	assert.Empty(t, store.updated)

	target := models.RoleChefSpecialite
	admin, err := svc.Update(context.Background(), claimsFor(models.RoleViceDoyen), "admin-1",
		dto.UpdateAdministratorRequest{Role: &target})
	require.NoError(t, err)
	assert.Equal(t, models.RoleChefSpecialite, admin.Role)
	require.Len(t, store.updated, 1)
}

func TestAdminServiceDeleteEnforcesHierarchy(t *testing.T) {
	store := newAdminStoreStub()
	store.users["admin-1"] = &models.User{ID: "admin-1", Role: models.RoleChefDepartement}
	svc := NewAdminService(store, nil, nil)

	err := svc.Delete(context.Background(), claimsFor(models.RoleChefDepartement), "admin-1")
	require.Error(t, err)
	assert.Empty(t, store.deleted)

	err = svc.Delete(context.Background(), claimsFor(models.RoleViceDoyen), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin-1"}, store.deleted)
}

func TestAdminServiceCheckAccess(t *testing.T) {
	svc := NewAdminService(newAdminStoreStub(), nil, nil)

	assert.True(t, svc.CheckAccess(claimsFor(models.RoleDoyen), models.RoleViceDoyen).Allowed)
	assert.False(t, svc.CheckAccess(claimsFor(models.RoleSecretaire), models.RoleDoyen).Allowed)
	assert.False(t, svc.CheckAccess(nil, models.RoleSecretaire).Allowed)
}
