package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/univ-adm/faculte-api/internal/dto"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
	"github.com/univ-adm/faculte-api/pkg/export"
)

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type exportFillRateProvider interface {
	FillRates(ctx context.Context, sectionIDs []string) ([]dto.GroupFillRate, error)
}

// ExportService renders rosters and occupancy reports as CSV or PDF.
type ExportService struct {
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	groups    *GroupService
	fillRates exportFillRateProvider
	logger    *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(groups *GroupService, fillRates exportFillRateProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		groups:    groups,
		fillRates: fillRates,
		logger:    logger,
	}
}

// Roster exports the member list of one group.
func (s *ExportService) Roster(ctx context.Context, groupID string, format ExportFormat) (*ExportFile, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := s.groups.Roster(ctx, groupID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Matricule", "Nom complet"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Matricule":   entry.Matricule,
			"Nom complet": entry.FullName,
		})
	}

	title := fmt.Sprintf("Liste du groupe %s (%s)", group.Name, group.Type)
	return s.render(dataset, title, fmt.Sprintf("groupe-%s", sanitizeFileName(group.Name)), format)
}

// Occupancy exports the fill-rate report of every group, optionally filtered
// by section.
func (s *ExportService) Occupancy(ctx context.Context, sectionIDs []string, format ExportFormat) (*ExportFile, error) {
	rates, err := s.fillRates.FillRates(ctx, sectionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fill rates")
	}

	dataset := export.Dataset{
		Headers: []string{"Groupe", "Type", "Effectif", "Capacité", "Taux"},
		Rows:    make([]map[string]string, 0, len(rates)),
	}
	for _, rate := range rates {
		ratio := "0%"
		if rate.Capacity > 0 {
			ratio = strconv.Itoa(100*rate.Occupancy/rate.Capacity) + "%"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Groupe":   rate.Name,
			"Type":     string(rate.Type),
			"Effectif": strconv.Itoa(rate.Occupancy),
			"Capacité": strconv.Itoa(rate.Capacity),
			"Taux":     ratio,
		})
	}

	return s.render(dataset, "Taux de remplissage des groupes", "occupation-groupes", format)
}

func (s *ExportService) render(dataset export.Dataset, title, baseName string, format ExportFormat) (*ExportFile, error) {
	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("%s-%s.csv", baseName, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("%s-%s.pdf", baseName, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func sanitizeFileName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, name)
}
