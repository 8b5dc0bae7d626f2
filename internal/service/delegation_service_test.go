package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type delegationStoreStub struct {
	created []*models.Delegation
	listed  []models.Delegation
}

func (s *delegationStoreStub) Create(ctx context.Context, delegation *models.Delegation) error {
	delegation.ID = "generated-delegation"
	s.created = append(s.created, delegation)
	return nil
}

func (s *delegationStoreStub) ListBySender(ctx context.Context, senderID string) ([]models.Delegation, error) {
	return s.listed, nil
}

type delegationUserStoreStub struct {
	users map[string]*models.User
}

func (s delegationUserStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func newTestDelegationService(store *delegationStoreStub, users delegationUserStoreStub, notifications *notificationStoreStub) *DelegationService {
	var notifier *NotificationService
	if notifications != nil {
		notifier = NewNotificationService(notifications, nil, nil)
	}
	return NewDelegationService(store, users, notifier, nil, nil)
}

func TestDelegationServiceDelegatesToSubordinate(t *testing.T) {
	store := &delegationStoreStub{}
	users := delegationUserStoreStub{users: map[string]*models.User{
		"actor-1":  {ID: "actor-1", Role: models.RoleChefDepartement, FullName: "M. Larbi"},
		"sec-user": {ID: "sec-user", Role: models.RoleSecretaire, FullName: "Mme Cherif"},
	}}
	notifications := &notificationStoreStub{}
	svc := newTestDelegationService(store, users, notifications)

	ack, err := svc.Delegate(context.Background(), claimsFor(models.RoleChefDepartement), dto.DelegateTaskRequest{
		TargetID: "sec-user",
		TaskType: "GESTION_COURRIER",
		Details:  "Trier le courrier entrant de la semaine",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mme Cherif", ack.TargetName)
	require.Len(t, store.created, 1)
	assert.Equal(t, "actor-1", store.created[0].SenderID)
	require.Len(t, notifications.notifications, 1)
	assert.Equal(t, "sec-user", notifications.notifications[0].UserID)
}

func TestDelegationServiceRejectsNonSubordinateTarget(t *testing.T) {
	store := &delegationStoreStub{}
	users := delegationUserStoreStub{users: map[string]*models.User{
		"actor-1": {ID: "actor-1", Role: models.RoleChefDepartement},
		"vd-user": {ID: "vd-user", Role: models.RoleViceDoyen},
	}}
	svc := newTestDelegationService(store, users, nil)

	_, err := svc.Delegate(context.Background(), claimsFor(models.RoleChefDepartement), dto.DelegateTaskRequest{
		TargetID: "vd-user",
		TaskType: "GESTION_COURRIER",
		Details:  "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestDelegationServiceEnforcesTaskWhitelist(t *testing.T) {
	store := &delegationStoreStub{}
	users := delegationUserStoreStub{users: map[string]*models.User{
		"actor-1":  {ID: "actor-1", Role: models.RoleDoyen},
		"sec-user": {ID: "sec-user", Role: models.RoleSecretaire},
	}}
	svc := newTestDelegationService(store, users, nil)

	_, err := svc.Delegate(context.Background(), claimsFor(models.RoleDoyen), dto.DelegateTaskRequest{
		TargetID: "sec-user",
		TaskType: "VALIDATION_NOTES",
		Details:  "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestDelegationServiceUnknownTarget(t *testing.T) {
	store := &delegationStoreStub{}
	users := delegationUserStoreStub{users: map[string]*models.User{
		"actor-1": {ID: "actor-1", Role: models.RoleDoyen},
	}}
	svc := newTestDelegationService(store, users, nil)

	_, err := svc.Delegate(context.Background(), claimsFor(models.RoleDoyen), dto.DelegateTaskRequest{
		TargetID: "ghost",
		TaskType: "GESTION_COURRIER",
		Details:  "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDelegationServiceDeletedSenderCannotDelegate(t *testing.T) {
	// A still-valid token for a deleted administrator must not delegate.
	store := &delegationStoreStub{}
	users := delegationUserStoreStub{users: map[string]*models.User{
		"sec-user": {ID: "sec-user", Role: models.RoleSecretaire},
	}}
	svc := newTestDelegationService(store, users, nil)

	_, err := svc.Delegate(context.Background(), claimsFor(models.RoleDoyen), dto.DelegateTaskRequest{
		TargetID: "sec-user",
		TaskType: "GESTION_COURRIER",
		Details:  "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestDelegationServiceListSent(t *testing.T) {
	store := &delegationStoreStub{listed: []models.Delegation{{ID: "del-1"}}}
	svc := newTestDelegationService(store, delegationUserStoreStub{}, nil)

	delegations, err := svc.ListSent(context.Background(), claimsFor(models.RoleDoyen))
	require.NoError(t, err)
	assert.Len(t, delegations, 1)
}
