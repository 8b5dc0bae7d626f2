package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
	"github.com/univ-adm/faculte-api/pkg/response"
)

type adminService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateAdministratorRequest) (*models.User, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.User, error)
	List(ctx context.Context, actor *models.JWTClaims, role *models.Role) ([]models.User, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateAdministratorRequest) (*models.User, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Hierarchy() []models.HierarchyEntry
	CheckAccess(actor *models.JWTClaims, target models.Role) dto.HierarchyAccessResponse
}

// AdminHandler exposes administrator management and the role hierarchy.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service adminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Create godoc
// @Summary Create an administrator
// @Tags Administrators
// @Accept json
// @Produce json
// @Param payload body dto.CreateAdministratorRequest true "Administrator payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /administrateurs [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req dto.CreateAdministratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid administrator payload"))
		return
	}
	admin, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Get godoc
// @Summary Fetch one administrator
// @Tags Administrators
// @Produce json
// @Param id path string true "Administrator ID"
// @Success 200 {object} response.Envelope
// @Router /administrateurs/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	admin, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// List godoc
// @Summary List manageable administrators
// @Tags Administrators
// @Produce json
// @Param role query string false "Restrict to one role"
// @Success 200 {object} response.Envelope
// @Router /administrateurs [get]
func (h *AdminHandler) List(c *gin.Context) {
	var roleFilter *models.Role
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role := models.Role(raw)
		roleFilter = &role
	}
	admins, err := h.service.List(c.Request.Context(), claimsFromContext(c), roleFilter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, nil)
}

// Update godoc
// @Summary Update an administrator
// @Tags Administrators
// @Accept json
// @Produce json
// @Param id path string true "Administrator ID"
// @Param payload body dto.UpdateAdministratorRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /administrateurs/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	var req dto.UpdateAdministratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	admin, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Delete godoc
// @Summary Delete an administrator
// @Tags Administrators
// @Param id path string true "Administrator ID"
// @Success 204 {object} response.Envelope
// @Router /administrateurs/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Hierarchy godoc
// @Summary Role hierarchy table
// @Tags Hierarchy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hierarchie [get]
func (h *AdminHandler) Hierarchy(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Hierarchy(), nil)
}

// CheckAccess godoc
// @Summary Check manageability of a target role
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param payload body dto.HierarchyAccessRequest true "Target role"
// @Success 200 {object} response.Envelope
// @Router /hierarchie/acces [post]
func (h *AdminHandler) CheckAccess(c *gin.Context) {
	var req dto.HierarchyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "target_role is required"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.CheckAccess(claimsFromContext(c), req.TargetRole), nil)
}
