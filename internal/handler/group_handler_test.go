package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type groupServiceMock struct {
	group        *models.Group
	err          error
	roster       []dto.RosterEntry
	availability *models.GroupAvailability

	lastGroupID   string
	lastStudentID string
	assignCalled  bool
	removeCalled  bool
}

func (m *groupServiceMock) Create(context.Context, dto.CreateGroupRequest) (*models.Group, error) {
	return m.group, m.err
}

func (m *groupServiceMock) Get(context.Context, string) (*models.Group, error) {
	return m.group, m.err
}

func (m *groupServiceMock) ListBySection(context.Context, string) ([]models.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.group == nil {
		return []models.Group{}, nil
	}
	return []models.Group{*m.group}, nil
}

func (m *groupServiceMock) Delete(context.Context, string) error {
	return m.err
}

func (m *groupServiceMock) AssignStudent(_ context.Context, groupID string, req dto.AssignStudentRequest) (*models.Group, error) {
	m.assignCalled = true
	m.lastGroupID = groupID
	m.lastStudentID = req.StudentID
	return m.group, m.err
}

func (m *groupServiceMock) RemoveStudent(_ context.Context, groupID, studentID string) (*models.Group, error) {
	m.removeCalled = true
	m.lastGroupID = groupID
	m.lastStudentID = studentID
	return m.group, m.err
}

func (m *groupServiceMock) Roster(context.Context, string) ([]dto.RosterEntry, error) {
	return m.roster, m.err
}

func (m *groupServiceMock) Availability(context.Context, string) (*models.GroupAvailability, error) {
	return m.availability, m.err
}

func TestGroupHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		group: &models.Group{ID: "td-1", Name: "TD 1", Type: models.GroupTypeTD, Capacity: 30},
	}
	handler := NewGroupHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateGroupRequest{
		Name:      "TD 1",
		Type:      models.GroupTypeTD,
		SectionID: "sec-1",
		Capacity:  30,
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groupes", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestGroupHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGroupHandler(&groupServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groupes", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupHandlerAssignStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		group: &models.Group{ID: "td-1", CurrentOccupancy: 5, Capacity: 30},
	}
	handler := NewGroupHandler(mockSvc)

	payload, _ := json.Marshal(dto.AssignStudentRequest{StudentID: "etu-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groupes/td-1/etudiants", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "td-1"}}

	handler.AssignStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.assignCalled)
	assert.Equal(t, "td-1", mockSvc.lastGroupID)
	assert.Equal(t, "etu-1", mockSvc.lastStudentID)
}

func TestGroupHandlerAssignStudentCapacityExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		err: appErrors.Clone(appErrors.ErrCapacityExceeded, "group is already at capacity"),
	}
	handler := NewGroupHandler(mockSvc)

	payload, _ := json.Marshal(dto.AssignStudentRequest{StudentID: "etu-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groupes/td-1/etudiants", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "td-1"}}

	handler.AssignStudent(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CAPACITY_EXCEEDED", envelope.Error.Code)
}

func TestGroupHandlerRemoveStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		group: &models.Group{ID: "td-1", CurrentOccupancy: 4, Capacity: 30},
	}
	handler := NewGroupHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/groupes/td-1/etudiants/etu-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "td-1"}, {Key: "etudiantId", Value: "etu-1"}}

	handler.RemoveStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.removeCalled)
	assert.Equal(t, "etu-1", mockSvc.lastStudentID)
}

func TestGroupHandlerAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		availability: &models.GroupAvailability{GroupID: "td-1", Available: true, CurrentOccupancy: 5, Capacity: 30},
	}
	handler := NewGroupHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/groupes/td-1/disponibilite", nil)
	c.Params = gin.Params{{Key: "id", Value: "td-1"}}

	handler.Availability(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["available"])
}
