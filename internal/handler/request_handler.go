package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
	"github.com/univ-adm/faculte-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateChangeRequestRequest) (*models.ChangeRequest, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.ChangeRequest, error)
	ListForStudent(ctx context.Context, actor *models.JWTClaims, query dto.ChangeRequestQuery, page models.PageQuery) ([]models.ChangeRequest, error)
	ListForStaff(ctx context.Context, actor *models.JWTClaims, query dto.ChangeRequestQuery, page models.PageQuery) ([]models.ChangeRequest, error)
	ListForTeacher(ctx context.Context, actor *models.JWTClaims, query dto.ChangeRequestQuery, page models.PageQuery) ([]models.ChangeRequest, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRequestStatusRequest) (*models.ChangeRequest, error)
	ReviewGroupChange(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewGroupChangeRequest) (*dto.GroupChangeDecision, error)
}

// RequestHandler exposes the change-request workflow.
type RequestHandler struct {
	service requestService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(service requestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Create godoc
// @Summary Submit a change request
// @Tags Demandes
// @Accept json
// @Produce json
// @Param payload body dto.CreateChangeRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /demandes [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Get godoc
// @Summary Fetch one change request
// @Tags Demandes
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /demandes/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// List godoc
// @Summary List change requests for the calling role
// @Description Students see their own requests, teachers the requests of
// their sections, administrative roles everything.
// @Tags Demandes
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param type query string false "Request type"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /demandes [get]
func (h *RequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := parseRequestQuery(c)
	page := parsePageQuery(c)

	var (
		requests []models.ChangeRequest
		err      error
	)
	switch claims.Role {
	case models.RoleEtudiant:
		requests, err = h.service.ListForStudent(c.Request.Context(), claims, query, page)
	case models.RoleEnseignant:
		requests, err = h.service.ListForTeacher(c.Request.Context(), claims, query, page)
	default:
		requests, err = h.service.ListForStaff(c.Request.Context(), claims, query, page)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// UpdateStatus godoc
// @Summary Review a change request (administrative)
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestStatusRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /demandes/{id}/statut [put]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	request, err := h.service.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Review godoc
// @Summary Review a group change request (responsable)
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewGroupChangeRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /demandes/{id}/revue [post]
func (h *RequestHandler) Review(c *gin.Context) {
	var req dto.ReviewGroupChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	decision, err := h.service.ReviewGroupChange(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

func parseRequestQuery(c *gin.Context) dto.ChangeRequestQuery {
	query := dto.ChangeRequestQuery{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if status := strings.TrimSpace(part); status != "" {
				query.Status = append(query.Status, models.ChangeRequestStatus(status))
			}
		}
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		query.Type = models.ChangeRequestType(raw)
	}
	return query
}

func parsePageQuery(c *gin.Context) models.PageQuery {
	page := models.PageQuery{}
	if raw := c.Query("page"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			page.Page = value
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			page.PageSize = value
		}
	}
	return page
}
