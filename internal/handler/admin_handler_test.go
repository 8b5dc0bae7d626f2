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
	"github.com/univ-adm/faculte-api/internal/middleware"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type adminServiceMock struct {
	user *models.User
	list []models.User
	err  error

	lastRoleFilter *models.Role
	createCalled   bool
}

func (m *adminServiceMock) Create(context.Context, *models.JWTClaims, dto.CreateAdministratorRequest) (*models.User, error) {
	m.createCalled = true
	return m.user, m.err
}

func (m *adminServiceMock) Get(context.Context, *models.JWTClaims, string) (*models.User, error) {
	return m.user, m.err
}

func (m *adminServiceMock) List(_ context.Context, _ *models.JWTClaims, role *models.Role) ([]models.User, error) {
	m.lastRoleFilter = role
	return m.list, m.err
}

func (m *adminServiceMock) Update(context.Context, *models.JWTClaims, string, dto.UpdateAdministratorRequest) (*models.User, error) {
	return m.user, m.err
}

func (m *adminServiceMock) Delete(context.Context, *models.JWTClaims, string) error {
	return m.err
}

func (m *adminServiceMock) Hierarchy() []models.HierarchyEntry {
	return models.Hierarchy()
}

func (m *adminServiceMock) CheckAccess(actor *models.JWTClaims, target models.Role) dto.HierarchyAccessResponse {
	if actor == nil {
		return dto.HierarchyAccessResponse{}
	}
	return dto.HierarchyAccessResponse{Allowed: models.CanAccessRole(actor.Role, target)}
}

func doyenContext(w *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-doyen", Role: models.RoleDoyen})
	return c
}

func TestAdminHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &adminServiceMock{
		user: &models.User{ID: "adm-1", Role: models.RoleSecretaire},
	}
	handler := NewAdminHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateAdministratorRequest{
		Email:    "secretaire@univ.dz",
		Password: "motdepasse1",
		FullName: "Amina Khelifi",
		Role:     models.RoleSecretaire,
	})
	w := httptest.NewRecorder()
	c := doyenContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/administrateurs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
}

func TestAdminHandlerCreateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &adminServiceMock{err: appErrors.ErrForbidden}
	handler := NewAdminHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateAdministratorRequest{
		Email:    "vice@univ.dz",
		Password: "motdepasse1",
		FullName: "Karim Saidi",
		Role:     models.RoleViceDoyen,
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/administrateurs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-vd", Role: models.RoleViceDoyen})

	handler.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandlerListParsesRoleFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &adminServiceMock{list: []models.User{}}
	handler := NewAdminHandler(mockSvc)

	w := httptest.NewRecorder()
	c := doyenContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/administrateurs?role=SECRETAIRE", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastRoleFilter)
	assert.Equal(t, models.RoleSecretaire, *mockSvc.lastRoleFilter)
}

func TestAdminHandlerHierarchy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&adminServiceMock{})

	w := httptest.NewRecorder()
	c := doyenContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/hierarchie", nil)

	handler.Hierarchy(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.HierarchyEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 5)
	assert.Equal(t, models.RoleDoyen, envelope.Data[0].Role)
}

func TestAdminHandlerCheckAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&adminServiceMock{})

	payload, _ := json.Marshal(dto.HierarchyAccessRequest{TargetRole: models.RoleSecretaire})
	w := httptest.NewRecorder()
	c := doyenContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/hierarchie/acces", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CheckAccess(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["allowed"])
}

func TestAdminHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&adminServiceMock{})

	w := httptest.NewRecorder()
	c := doyenContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/administrateurs/adm-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "adm-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, w.Code)
}
