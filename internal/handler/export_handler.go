package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/univ-adm/faculte-api/internal/service"
	"github.com/univ-adm/faculte-api/pkg/response"
)

type exportService interface {
	Roster(ctx context.Context, groupID string, format service.ExportFormat) (*service.ExportFile, error)
	Occupancy(ctx context.Context, sectionIDs []string, format service.ExportFormat) (*service.ExportFile, error)
}

// ExportHandler streams roster and occupancy exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Roster godoc
// @Summary Export a group roster
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Group ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /groupes/{id}/export [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	file, err := h.service.Roster(c.Request.Context(), c.Param("id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, file)
}

// Occupancy godoc
// @Summary Export the group fill-rate report
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param sections query string false "Comma-separated section IDs"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /exports/occupation [get]
func (h *ExportHandler) Occupancy(c *gin.Context) {
	var sectionIDs []string
	if raw := strings.TrimSpace(c.Query("sections")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id := strings.TrimSpace(part); id != "" {
				sectionIDs = append(sectionIDs, id)
			}
		}
	}
	file, err := h.service.Occupancy(c.Request.Context(), sectionIDs, exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, file)
}

func exportFormat(c *gin.Context) service.ExportFormat {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	return service.ExportFormat(format)
}

func stream(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
