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

type groupService interface {
	Create(ctx context.Context, req dto.CreateGroupRequest) (*models.Group, error)
	Get(ctx context.Context, id string) (*models.Group, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.Group, error)
	Delete(ctx context.Context, id string) error
	AssignStudent(ctx context.Context, groupID string, req dto.AssignStudentRequest) (*models.Group, error)
	RemoveStudent(ctx context.Context, groupID, studentID string) (*models.Group, error)
	Roster(ctx context.Context, groupID string) ([]dto.RosterEntry, error)
	Availability(ctx context.Context, groupID string) (*models.GroupAvailability, error)
}

// GroupHandler exposes the TD/TP group registry.
type GroupHandler struct {
	service groupService
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(service groupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// Create godoc
// @Summary Create a TD/TP group
// @Tags Groupes
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groupes [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Get godoc
// @Summary Fetch one group
// @Tags Groupes
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groupes/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// ListBySection godoc
// @Summary List groups of a section
// @Tags Groupes
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/groupes [get]
func (h *GroupHandler) ListBySection(c *gin.Context) {
	groups, err := h.service.ListBySection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Delete godoc
// @Summary Delete a group
// @Tags Groupes
// @Param id path string true "Group ID"
// @Success 204 {object} response.Envelope
// @Router /groupes/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignStudent godoc
// @Summary Assign a student to a group
// @Tags Groupes
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.AssignStudentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /groupes/{id}/etudiants [post]
func (h *GroupHandler) AssignStudent(c *gin.Context) {
	var req dto.AssignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	group, err := h.service.AssignStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// RemoveStudent godoc
// @Summary Remove a student from a group
// @Tags Groupes
// @Produce json
// @Param id path string true "Group ID"
// @Param etudiantId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /groupes/{id}/etudiants/{etudiantId} [delete]
func (h *GroupHandler) RemoveStudent(c *gin.Context) {
	group, err := h.service.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("etudiantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Roster godoc
// @Summary List members of a group
// @Tags Groupes
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groupes/{id}/etudiants [get]
func (h *GroupHandler) Roster(c *gin.Context) {
	entries, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Availability godoc
// @Summary Group availability snapshot
// @Tags Groupes
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groupes/{id}/disponibilite [get]
func (h *GroupHandler) Availability(c *gin.Context) {
	availability, err := h.service.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}
