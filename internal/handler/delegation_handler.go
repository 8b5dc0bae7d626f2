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

type delegationService interface {
	Delegate(ctx context.Context, actor *models.JWTClaims, req dto.DelegateTaskRequest) (*dto.DelegationAck, error)
	ListSent(ctx context.Context, actor *models.JWTClaims) ([]models.Delegation, error)
}

// DelegationHandler exposes task delegation.
type DelegationHandler struct {
	service delegationService
}

// NewDelegationHandler constructs the handler.
func NewDelegationHandler(service delegationService) *DelegationHandler {
	return &DelegationHandler{service: service}
}

// Delegate godoc
// @Summary Delegate a task to a subordinate
// @Tags Delegations
// @Accept json
// @Produce json
// @Param payload body dto.DelegateTaskRequest true "Delegation payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /delegations [post]
func (h *DelegationHandler) Delegate(c *gin.Context) {
	var req dto.DelegateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delegation payload"))
		return
	}
	ack, err := h.service.Delegate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ack)
}

// ListSent godoc
// @Summary List delegations issued by the caller
// @Tags Delegations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /delegations [get]
func (h *DelegationHandler) ListSent(c *gin.Context) {
	delegations, err := h.service.ListSent(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, delegations, nil)
}
