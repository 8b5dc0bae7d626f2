package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/middleware"
	"github.com/univ-adm/faculte-api/internal/models"
	"github.com/univ-adm/faculte-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context, actor *models.JWTClaims) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler exposes the administrative dashboard.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Administrative dashboard
// @Description Administrator counts scoped to the caller's manageable roles,
// pending request pressure, group fill rates and responsable coverage.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, cacheHit, err := h.service.Overview(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}
