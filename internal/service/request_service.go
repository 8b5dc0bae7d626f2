package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	"github.com/univ-adm/faculte-api/internal/repository"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*models.ChangeRequest, error)
	List(ctx context.Context, filter models.ChangeRequestFilter) ([]models.ChangeRequest, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
	ApplyGroupTransfer(ctx context.Context, params repository.ApplyGroupTransferParams) error
	ApplySectionTransfer(ctx context.Context, params repository.ApplySectionTransferParams) error
}

type requestStudentStore interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type requestTeacherStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type requestGroupStore interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
}

type requestResponsableStore interface {
	IsResponsableForSection(ctx context.Context, teacherID, sectionID string) (bool, error)
	SectionIDsForTeacher(ctx context.Context, teacherID string) ([]string, error)
}

// RequestService runs the change-request workflow: students submit transfer
// requests, staff or the responsable of the current group's section review
// them, and approvals apply the transfer atomically.
type RequestService struct {
	requests      requestStore
	students      requestStudentStore
	teachers      requestTeacherStore
	groups        requestGroupStore
	responsables  requestResponsableStore
	notifications *NotificationService
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(requests requestStore, students requestStudentStore, teachers requestTeacherStore, groups requestGroupStore, responsables requestResponsableStore, notifications *NotificationService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RequestService{
		requests:      requests,
		students:      students,
		teachers:      teachers,
		groups:        groups,
		responsables:  responsables,
		notifications: notifications,
		cache:         cache,
		validator:     validate,
		logger:        logger,
	}
	svc.validator.RegisterValidation("requesttype", func(fl validator.FieldLevel) bool {
		switch models.ChangeRequestType(fl.Field().String()) {
		case models.ChangeRequestSection, models.ChangeRequestGroupeTD, models.ChangeRequestGroupeTP:
			return true
		}
		return false
	})
	return svc
}

// Create submits a change request for the calling student. Requested refs are
// stored as opaque identifiers and only resolved when the request is applied.
func (s *RequestService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateChangeRequestRequest) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may submit change requests")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	request := &models.ChangeRequest{
		Type:          req.Type,
		StudentID:     student.ID,
		Justification: req.Justification,
		Status:        models.ChangeRequestPending,
	}
	if req.RequestedRefID != "" {
		requested := req.RequestedRefID
		request.RequestedRefID = &requested
	}
	if req.CurrentRefID != "" {
		current := req.CurrentRefID
		request.CurrentRefID = &current
	} else {
		// Default the current ref from the student's own record.
		switch req.Type {
		case models.ChangeRequestGroupeTD:
			request.CurrentRefID = student.GroupTDID
		case models.ChangeRequestGroupeTP:
			request.CurrentRefID = student.GroupTPID
		case models.ChangeRequestSection:
			request.CurrentRefID = student.SectionID
		}
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.logger.Info("change request submitted",
		zap.String("request_id", request.ID),
		zap.String("etudiant_id", student.ID),
		zap.String("type", string(request.Type)))
	return request, nil
}

// Get returns one request. Students only see their own; teachers only see
// requests scoped to their sections; administrative roles see everything.
func (s *RequestService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case models.IsAdministrative(actor.Role):
		return request, nil
	case actor.Role == models.RoleEtudiant:
		student, err := s.students.GetByUserID(ctx, actor.UserID)
		if err != nil || student.ID != request.StudentID {
			return nil, appErrors.ErrForbidden
		}
		return request, nil
	case actor.Role == models.RoleEnseignant:
		allowed, err := s.teacherOwnsRequest(ctx, actor.UserID, request)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, appErrors.ErrForbidden
		}
		return request, nil
	default:
		return nil, appErrors.ErrForbidden
	}
}

// ListForStudent lists the calling student's own requests.
func (s *RequestService) ListForStudent(ctx context.Context, actor *models.JWTClaims, query dto.ChangeRequestQuery, page models.PageQuery) ([]models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no student record bound to this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return s.list(ctx, models.ChangeRequestFilter{
		StudentID: student.ID,
		Status:    query.Status,
		Type:      query.Type,
		Limit:     page.Limit(),
		Offset:    page.Offset(),
	})
}

// ListForStaff lists requests without a section scope.
func (s *RequestService) ListForStaff(ctx context.Context, actor *models.JWTClaims, query dto.ChangeRequestQuery, page models.PageQuery) ([]models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.IsAdministrative(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	return s.list(ctx, models.ChangeRequestFilter{
		Status: query.Status,
		Type:   query.Type,
		Limit:  page.Limit(),
		Offset: page.Offset(),
	})
}

// ListForTeacher lists the requests whose current group belongs to a section
// the calling teacher is responsable for. A teacher without responsabilities
// gets an empty list, not an error.
func (s *RequestService) ListForTeacher(ctx context.Context, actor *models.JWTClaims, query dto.ChangeRequestQuery, page models.PageQuery) ([]models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	teacher, err := s.teachers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.ChangeRequest{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	sectionIDs, err := s.responsables.SectionIDsForTeacher(ctx, teacher.ID)
	if err != nil {
		// Listing must not break the teacher dashboard; log and show nothing.
		s.logger.Warn("failed to resolve teacher sections",
			zap.String("enseignant_id", teacher.ID), zap.Error(err))
		return []models.ChangeRequest{}, nil
	}
	if len(sectionIDs) == 0 {
		return []models.ChangeRequest{}, nil
	}
	return s.list(ctx, models.ChangeRequestFilter{
		SectionIDs: sectionIDs,
		Status:     query.Status,
		Type:       query.Type,
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	})
}

// UpdateStatus is the administrative review path. Approving a transfer
// request applies its effect in the same transaction as the status flip; a
// request already reviewed yields a conflict.
func (s *RequestService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRequestStatusRequest) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.IsAdministrative(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Status != models.ChangeRequestApproved && req.Status != models.ChangeRequestRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}

	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.review(ctx, actor, request, req.Status, req.ResponseMessage); err != nil {
		return nil, err
	}
	return s.loadRequest(ctx, id)
}

// ReviewGroupChange is the responsable review path for GROUPE_* requests:
// only a teacher responsable for the section of the student's current group
// may decide.
func (s *RequestService) ReviewGroupChange(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewGroupChangeRequest) (*dto.GroupChangeDecision, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Decision != models.ChangeRequestApproved && req.Decision != models.ChangeRequestRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}

	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Type != models.ChangeRequestGroupeTD && request.Type != models.ChangeRequestGroupeTP {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only group change requests can be reviewed here")
	}

	allowed, err := s.teacherOwnsRequest(ctx, actor.UserID, request)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not responsable for this section")
	}

	if err := s.review(ctx, actor, request, req.Decision, req.Message); err != nil {
		return nil, err
	}
	return &dto.GroupChangeDecision{ID: request.ID, Status: req.Decision, Message: req.Message}, nil
}

// review applies the decision. Approval of a transfer request runs the
// transfer transaction; rejection and SECTION-less approvals use the CAS
// status update. Either way a terminal request surfaces as a conflict.
func (s *RequestService) review(ctx context.Context, actor *models.JWTClaims, request *models.ChangeRequest, status models.ChangeRequestStatus, message string) error {
	now := time.Now().UTC()
	var responseMessage *string
	if message != "" {
		responseMessage = &message
	}

	var err error
	switch {
	case status == models.ChangeRequestApproved &&
		(request.Type == models.ChangeRequestGroupeTD || request.Type == models.ChangeRequestGroupeTP):
		err = s.approveGroupTransfer(ctx, actor, request, responseMessage, now)
	case status == models.ChangeRequestApproved && request.Type == models.ChangeRequestSection:
		err = s.approveSectionTransfer(ctx, actor, request, responseMessage, now)
	default:
		err = s.requests.UpdateStatus(ctx, repository.UpdateStatusParams{
			ID:              request.ID,
			Status:          status,
			ResponseMessage: responseMessage,
			ReviewedBy:      actor.UserID,
			ReviewedAt:      now,
		})
		if err != nil && errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
		} else if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
		}
	}
	if err != nil {
		return err
	}

	s.invalidateCaches(ctx)
	s.notifyStudent(ctx, request, status)
	s.logger.Info("change request reviewed",
		zap.String("request_id", request.ID),
		zap.String("status", string(status)),
		zap.String("reviewed_by", actor.UserID))
	return nil
}

func (s *RequestService) approveGroupTransfer(ctx context.Context, actor *models.JWTClaims, request *models.ChangeRequest, responseMessage *string, now time.Time) error {
	if request.RequestedRefID == nil || request.CurrentRefID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "request is missing group references")
	}
	destination, err := s.groups.GetByID(ctx, *request.RequestedRefID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "requested group no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requested group")
	}

	groupType := models.GroupTypeTD
	if request.Type == models.ChangeRequestGroupeTP {
		groupType = models.GroupTypeTP
	}
	if destination.Type != groupType {
		return appErrors.Clone(appErrors.ErrValidation, "requested group type does not match the request")
	}
	if _, err := s.groups.GetByID(ctx, *request.CurrentRefID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "current group no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current group")
	}

	err = s.requests.ApplyGroupTransfer(ctx, repository.ApplyGroupTransferParams{
		RequestID:       request.ID,
		ResponseMessage: responseMessage,
		ReviewedBy:      actor.UserID,
		ReviewedAt:      now,
		StudentID:       request.StudentID,
		GroupType:       groupType,
		FromGroupID:     *request.CurrentRefID,
		ToGroupID:       destination.ID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transfer")
	}
	return nil
}

func (s *RequestService) approveSectionTransfer(ctx context.Context, actor *models.JWTClaims, request *models.ChangeRequest, responseMessage *string, now time.Time) error {
	if request.RequestedRefID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "request is missing the requested section")
	}
	err := s.requests.ApplySectionTransfer(ctx, repository.ApplySectionTransferParams{
		RequestID:       request.ID,
		ResponseMessage: responseMessage,
		ReviewedBy:      actor.UserID,
		ReviewedAt:      now,
		StudentID:       request.StudentID,
		ToSectionID:     *request.RequestedRefID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply section transfer")
	}
	return nil
}

func (s *RequestService) notifyStudent(ctx context.Context, request *models.ChangeRequest, status models.ChangeRequestStatus) {
	if s.notifications == nil {
		return
	}
	student, err := s.students.GetByID(ctx, request.StudentID)
	if err != nil {
		s.logger.Warn("failed to load student for notification",
			zap.String("etudiant_id", request.StudentID), zap.Error(err))
		return
	}
	if student.UserID == "" {
		return
	}
	title := "Demande rejetée"
	message := "Votre demande de changement a été rejetée."
	if status == models.ChangeRequestApproved {
		title = "Demande approuvée"
		message = "Votre demande de changement a été approuvée."
	}
	s.notifications.Notify(ctx, student.UserID, title, message,
		fmt.Sprintf("demandes.html?id=%s", request.ID))
}

func (s *RequestService) teacherOwnsRequest(ctx context.Context, userID string, request *models.ChangeRequest) (bool, error) {
	teacher, err := s.teachers.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if request.CurrentRefID == nil {
		return false, nil
	}
	group, err := s.groups.GetByID(ctx, *request.CurrentRefID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current group")
	}
	allowed, err := s.responsables.IsResponsableForSection(ctx, teacher.ID, group.SectionID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check responsabilities")
	}
	return allowed, nil
}

func (s *RequestService) list(ctx context.Context, filter models.ChangeRequestFilter) ([]models.ChangeRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if requests == nil {
		requests = []models.ChangeRequest{}
	}
	return requests, nil
}

func (s *RequestService) loadRequest(ctx context.Context, id string) (*models.ChangeRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

func (s *RequestService) invalidateCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, "dashboard:*")
}
