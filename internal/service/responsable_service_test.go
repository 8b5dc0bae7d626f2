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

type responsableUpsertStub struct {
	bySlot    map[string]*models.SectionResponsable
	upserts   []*models.SectionResponsable
	deleted   []string
	upsertErr error
}

func newResponsableUpsertStub() *responsableUpsertStub {
	return &responsableUpsertStub{bySlot: map[string]*models.SectionResponsable{}}
}

func (s *responsableUpsertStub) Upsert(ctx context.Context, responsable *models.SectionResponsable) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, responsable)
	key := responsable.SectionID + "/" + string(responsable.Role)
	if existing, ok := s.bySlot[key]; ok {
		// Replacement keeps the slot, swaps the holder.
		existing.TeacherID = responsable.TeacherID
		existing.GroupID = responsable.GroupID
		return nil
	}
	s.bySlot[key] = responsable
	return nil
}

func (s *responsableUpsertStub) ListBySection(ctx context.Context, sectionID string) ([]models.SectionResponsable, error) {
	var out []models.SectionResponsable
	for _, responsable := range s.bySlot {
		if responsable.SectionID == sectionID {
			out = append(out, *responsable)
		}
	}
	return out, nil
}

func (s *responsableUpsertStub) DeleteByID(ctx context.Context, sectionID, id string) error {
	for key, responsable := range s.bySlot {
		if responsable.ID == id && responsable.SectionID == sectionID {
			delete(s.bySlot, key)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *responsableUpsertStub) Coverage(ctx context.Context) ([]dto.SectionCoverage, error) {
	return nil, nil
}

type teacherByIDStub struct {
	teachers map[string]*models.Teacher
}

func (s teacherByIDStub) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func newTestResponsableService(store *responsableUpsertStub, teachers teacherByIDStub, sections sectionStoreStub, groups *groupStoreStub, notifications *notificationStoreStub) *ResponsableService {
	var notifier *NotificationService
	if notifications != nil {
		notifier = NewNotificationService(notifications, nil, nil)
	}
	return NewResponsableService(store, teachers, sections, groups, notifier, nil, nil)
}

func TestResponsableServiceAssignCreatesAndNotifies(t *testing.T) {
	store := newResponsableUpsertStub()
	teachers := teacherByIDStub{teachers: map[string]*models.Teacher{
		"ens-1": {ID: "ens-1", UserID: "user-teacher", FullName: "Pr. Benali"},
	}}
	sections := sectionStoreStub{sections: map[string]*models.Section{"sec-1": {ID: "sec-1", Name: "L2 Info A"}}}
	notifications := &notificationStoreStub{}
	svc := newTestResponsableService(store, teachers, sections, newGroupStoreStub(), notifications)

	responsable, err := svc.Assign(context.Background(), "sec-1", dto.AssignResponsableRequest{
		TeacherID: "ens-1", Role: models.ResponsableSection,
	})
	require.NoError(t, err)
	assert.Equal(t, "ens-1", responsable.TeacherID)
	require.Len(t, notifications.notifications, 1)
	assert.Equal(t, "user-teacher", notifications.notifications[0].UserID)
}

func TestResponsableServiceAssignReplacesSlotHolder(t *testing.T) {
	store := newResponsableUpsertStub()
	teachers := teacherByIDStub{teachers: map[string]*models.Teacher{
		"ens-1": {ID: "ens-1", UserID: "user-1"},
		"ens-2": {ID: "ens-2", UserID: "user-2"},
	}}
	sections := sectionStoreStub{sections: map[string]*models.Section{"sec-1": {ID: "sec-1"}}}
	svc := newTestResponsableService(store, teachers, sections, newGroupStoreStub(), nil)

	_, err := svc.Assign(context.Background(), "sec-1", dto.AssignResponsableRequest{
		TeacherID: "ens-1", Role: models.ResponsableTD,
	})
	require.NoError(t, err)
	_, err = svc.Assign(context.Background(), "sec-1", dto.AssignResponsableRequest{
		TeacherID: "ens-2", Role: models.ResponsableTD,
	})
	require.NoError(t, err)

	listed, err := svc.ListBySection(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "ens-2", listed[0].TeacherID)
}

func TestResponsableServiceAssignValidatesReferences(t *testing.T) {
	store := newResponsableUpsertStub()
	teachers := teacherByIDStub{teachers: map[string]*models.Teacher{"ens-1": {ID: "ens-1"}}}
	sections := sectionStoreStub{sections: map[string]*models.Section{"sec-1": {ID: "sec-1"}}}
	groups := newGroupStoreStub()
	groups.groups["td-other"] = &models.Group{ID: "td-other", SectionID: "sec-2", Type: models.GroupTypeTD}
	svc := newTestResponsableService(store, teachers, sections, groups, nil)

	_, err := svc.Assign(context.Background(), "sec-missing", dto.AssignResponsableRequest{
		TeacherID: "ens-1", Role: models.ResponsableSection,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Assign(context.Background(), "sec-1", dto.AssignResponsableRequest{
		TeacherID: "ghost", Role: models.ResponsableSection,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	groupID := "td-other"
	_, err = svc.Assign(context.Background(), "sec-1", dto.AssignResponsableRequest{
		TeacherID: "ens-1", Role: models.ResponsableTD, GroupID: &groupID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Assign(context.Background(), "sec-1", dto.AssignResponsableRequest{
		TeacherID: "ens-1", Role: "PRESIDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResponsableServiceBulkAssignContinuesPastFailures(t *testing.T) {
	store := newResponsableUpsertStub()
	teachers := teacherByIDStub{teachers: map[string]*models.Teacher{
		"ens-1": {ID: "ens-1", UserID: "user-1"},
	}}
	sections := sectionStoreStub{sections: map[string]*models.Section{"sec-1": {ID: "sec-1"}}}
	svc := newTestResponsableService(store, teachers, sections, newGroupStoreStub(), nil)

	result, err := svc.BulkAssign(context.Background(), "sec-1", dto.BulkAssignResponsablesRequest{
		Assignments: []dto.AssignResponsableRequest{
			{TeacherID: "ghost", Role: models.ResponsableFiliere},
			{TeacherID: "ens-1", Role: models.ResponsableSection},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Assigned, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ghost", result.Failed[0].TeacherID)
	assert.NotEmpty(t, result.Failed[0].Reason)
}

func TestResponsableServiceRemove(t *testing.T) {
	store := newResponsableUpsertStub()
	store.bySlot["sec-1/SECTION"] = &models.SectionResponsable{
		ID: "resp-1", SectionID: "sec-1", TeacherID: "ens-1", Role: models.ResponsableSection,
	}
	svc := newTestResponsableService(store, teacherByIDStub{}, sectionStoreStub{}, newGroupStoreStub(), nil)

	require.NoError(t, svc.Remove(context.Background(), "sec-1", "resp-1"))

	err := svc.Remove(context.Background(), "sec-1", "resp-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
