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
	"github.com/univ-adm/faculte-api/internal/repository"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type groupStore interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.Group, error)
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, group *models.Group) ([]dto.RosterEntry, error)
	AssignStudent(ctx context.Context, studentID, groupID string) (*models.Group, bool, error)
	RemoveStudent(ctx context.Context, studentID, groupID string) (*models.Group, bool, error)
}

type groupStudentStore interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

type groupSectionStore interface {
	GetByID(ctx context.Context, id string) (*models.Section, error)
}

// GroupService manages the TD/TP group registry: creation, membership
// mutations, rosters and availability. Capacity enforcement itself lives in
// the repository transaction; this layer maps outcomes to domain errors and
// emits notifications.
type GroupService struct {
	groups        groupStore
	students      groupStudentStore
	sections      groupSectionStore
	notifications *NotificationService
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewGroupService constructs the service.
func NewGroupService(groups groupStore, students groupStudentStore, sections groupSectionStore, notifications *NotificationService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GroupService{
		groups:        groups,
		students:      students,
		sections:      sections,
		notifications: notifications,
		cache:         cache,
		validator:     validate,
		logger:        logger,
	}
	svc.validator.RegisterValidation("grouptype", func(fl validator.FieldLevel) bool {
		switch models.GroupType(fl.Field().String()) {
		case models.GroupTypeTD, models.GroupTypeTP:
			return true
		}
		return false
	})
	return svc
}

// Create registers a new empty group in an existing section.
func (s *GroupService) Create(ctx context.Context, req dto.CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	if _, err := s.sections.GetByID(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	group := &models.Group{
		Name:             req.Name,
		Type:             req.Type,
		SectionID:        req.SectionID,
		Capacity:         req.Capacity,
		CurrentOccupancy: 0,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	s.invalidateOccupancyCaches(ctx)
	return group, nil
}

// Get fetches a single group.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// ListBySection returns all groups of a section.
func (s *GroupService) ListBySection(ctx context.Context, sectionID string) ([]models.Group, error) {
	groups, err := s.groups.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

// Delete removes a group; members are unlinked first inside the repository
// transaction.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	s.invalidateOccupancyCaches(ctx)
	return nil
}

// AssignStudent places a student into a group. Assigning an existing member
// again is a no-op; a full group yields a capacity conflict.
func (s *GroupService) AssignStudent(ctx context.Context, groupID string, req dto.AssignStudentRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	group, alreadyMember, err := s.groups.AssignStudent(ctx, student.ID, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrStudentVanished) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		if errors.Is(err, repository.ErrGroupFull) {
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "group is already at capacity")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student")
	}

	if !alreadyMember {
		s.invalidateOccupancyCaches(ctx)
		if s.notifications != nil && student.UserID != "" {
			s.notifications.Notify(ctx, student.UserID,
				"Affectation de groupe",
				fmt.Sprintf("Vous avez été affecté au groupe %s (%s).", group.Name, group.Type),
				"")
		}
	}
	return group, nil
}

// RemoveStudent takes a student out of a group. Removing a non-member is a
// no-op.
func (s *GroupService) RemoveStudent(ctx context.Context, groupID, studentID string) (*models.Group, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	group, removed, err := s.groups.RemoveStudent(ctx, student.ID, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}

	if removed {
		s.invalidateOccupancyCaches(ctx)
		if s.notifications != nil && student.UserID != "" {
			s.notifications.Notify(ctx, student.UserID,
				"Retrait de groupe",
				fmt.Sprintf("Vous avez été retiré du groupe %s (%s).", group.Name, group.Type),
				"")
		}
	}
	return group, nil
}

// Roster lists the current members of a group.
func (s *GroupService) Roster(ctx context.Context, groupID string) ([]dto.RosterEntry, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries, err := s.groups.Roster(ctx, group)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if entries == nil {
		entries = []dto.RosterEntry{}
	}
	return entries, nil
}

// Availability reports whether a group can accept one more student.
func (s *GroupService) Availability(ctx context.Context, groupID string) (*models.GroupAvailability, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &models.GroupAvailability{
		GroupID:          group.ID,
		Available:        group.CurrentOccupancy < group.Capacity,
		CurrentOccupancy: group.CurrentOccupancy,
		Capacity:         group.Capacity,
	}, nil
}

func (s *GroupService) invalidateOccupancyCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, "dashboard:*")
}
