package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
	"github.com/univ-adm/faculte-api/pkg/response"
)

type responsableService interface {
	Assign(ctx context.Context, sectionID string, req dto.AssignResponsableRequest) (*models.SectionResponsable, error)
	BulkAssign(ctx context.Context, sectionID string, req dto.BulkAssignResponsablesRequest) (*dto.BulkAssignResult, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.SectionResponsable, error)
	Remove(ctx context.Context, sectionID, id string) error
}

// ResponsableHandler exposes section responsable assignment.
type ResponsableHandler struct {
	service responsableService
}

// NewResponsableHandler constructs the handler.
func NewResponsableHandler(service responsableService) *ResponsableHandler {
	return &ResponsableHandler{service: service}
}

// Assign godoc
// @Summary Assign a responsable to a section role
// @Tags Responsables
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body dto.AssignResponsableRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/responsables [post]
func (h *ResponsableHandler) Assign(c *gin.Context) {
	var req dto.AssignResponsableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	responsable, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, responsable, nil)
}

// BulkAssign godoc
// @Summary Assign several responsables at once
// @Tags Responsables
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body dto.BulkAssignResponsablesRequest true "Assignments payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/responsables/lot [post]
func (h *ResponsableHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignResponsablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	result, err := h.service.BulkAssign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List responsables of a section
// @Tags Responsables
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/responsables [get]
func (h *ResponsableHandler) List(c *gin.Context) {
	responsables, err := h.service.ListBySection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, responsables, nil)
}

// Remove godoc
// @Summary Remove a responsable assignment
// @Tags Responsables
// @Param id path string true "Section ID"
// @Param responsableId path string true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Router /sections/{id}/responsables/{responsableId} [delete]
func (h *ResponsableHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id"), c.Param("responsableId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
