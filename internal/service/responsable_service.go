package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type responsableStore interface {
	Upsert(ctx context.Context, responsable *models.SectionResponsable) error
	ListBySection(ctx context.Context, sectionID string) ([]models.SectionResponsable, error)
	DeleteByID(ctx context.Context, sectionID, id string) error
	Coverage(ctx context.Context) ([]dto.SectionCoverage, error)
}

type responsableTeacherStore interface {
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
}

type responsableSectionStore interface {
	GetByID(ctx context.Context, id string) (*models.Section, error)
}

type responsableGroupStore interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
}

// ResponsableService assigns teachers to section responsable roles. An
// assignment to an occupied (section, role) slot replaces the current holder.
type ResponsableService struct {
	responsables  responsableStore
	teachers      responsableTeacherStore
	sections      responsableSectionStore
	groups        responsableGroupStore
	notifications *NotificationService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewResponsableService constructs the service.
func NewResponsableService(responsables responsableStore, teachers responsableTeacherStore, sections responsableSectionStore, groups responsableGroupStore, notifications *NotificationService, validate *validator.Validate, logger *zap.Logger) *ResponsableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ResponsableService{
		responsables:  responsables,
		teachers:      teachers,
		sections:      sections,
		groups:        groups,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
	svc.validator.RegisterValidation("responsablerole", func(fl validator.FieldLevel) bool {
		switch models.ResponsableRole(fl.Field().String()) {
		case models.ResponsableFiliere, models.ResponsableSection, models.ResponsableTD, models.ResponsableTP:
			return true
		}
		return false
	})
	return svc
}

// Assign binds one teacher to a responsable role of the section, replacing
// any current holder of the (section, role) slot.
func (s *ResponsableService) Assign(ctx context.Context, sectionID string, req dto.AssignResponsableRequest) (*models.SectionResponsable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	teacher, err := s.teachers.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if req.GroupID != nil {
		group, err := s.groups.GetByID(ctx, *req.GroupID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
		if group.SectionID != sectionID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "group does not belong to this section")
		}
	}

	responsable := &models.SectionResponsable{
		SectionID: sectionID,
		TeacherID: teacher.ID,
		Role:      req.Role,
		GroupID:   req.GroupID,
	}
	if err := s.responsables.Upsert(ctx, responsable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign responsable")
	}

	if s.notifications != nil && teacher.UserID != "" {
		s.notifications.Notify(ctx, teacher.UserID,
			"Nouvelle responsabilité",
			fmt.Sprintf("Vous êtes désormais responsable %s de la section %s.", req.Role, section.Name),
			"")
	}
	s.logger.Info("responsable assigned",
		zap.String("section_id", sectionID),
		zap.String("enseignant_id", teacher.ID),
		zap.String("role", string(req.Role)))
	return responsable, nil
}

// BulkAssign processes independent assignments; failures are collected, not
// fatal.
func (s *ResponsableService) BulkAssign(ctx context.Context, sectionID string, req dto.BulkAssignResponsablesRequest) (*dto.BulkAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	result := &dto.BulkAssignResult{Assigned: []models.SectionResponsable{}}
	for _, assignment := range req.Assignments {
		responsable, err := s.Assign(ctx, sectionID, assignment)
		if err != nil {
			result.Failed = append(result.Failed, dto.BulkAssignFailure{
				TeacherID: assignment.TeacherID,
				Role:      assignment.Role,
				Reason:    appErrors.FromError(err).Message,
			})
			continue
		}
		result.Assigned = append(result.Assigned, *responsable)
	}
	return result, nil
}

// ListBySection lists the responsables of a section.
func (s *ResponsableService) ListBySection(ctx context.Context, sectionID string) ([]models.SectionResponsable, error) {
	responsables, err := s.responsables.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list responsables")
	}
	if responsables == nil {
		responsables = []models.SectionResponsable{}
	}
	return responsables, nil
}

// Remove deletes one responsable assignment under a section.
func (s *ResponsableService) Remove(ctx context.Context, sectionID, id string) error {
	if err := s.responsables.DeleteByID(ctx, sectionID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "responsable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove responsable")
	}
	return nil
}
