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

type delegationStore interface {
	Create(ctx context.Context, delegation *models.Delegation) error
	ListBySender(ctx context.Context, senderID string) ([]models.Delegation, error)
}

type delegationUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// DelegationService records an administrator handing a task to a subordinate.
// The target must be manageable by the sender and the task must belong to the
// whitelist of the target's role.
type DelegationService struct {
	delegations   delegationStore
	users         delegationUserStore
	notifications *NotificationService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewDelegationService constructs the service.
func NewDelegationService(delegations delegationStore, users delegationUserStore, notifications *NotificationService, validate *validator.Validate, logger *zap.Logger) *DelegationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DelegationService{
		delegations:   delegations,
		users:         users,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
}

// Delegate records the task hand-off and notifies the target.
func (s *DelegationService) Delegate(ctx context.Context, actor *models.JWTClaims, req dto.DelegateTaskRequest) (*dto.DelegationAck, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delegation payload")
	}

	sender, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sender administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sender")
	}
	target, err := s.users.FindByID(ctx, req.TargetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target")
	}
	// The sender row is authoritative over the token claims.
	if !models.CanAccessRole(sender.Role, target.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "target is not a subordinate of yours")
	}
	if !models.TaskAllowedForRole(target.Role, req.TaskType) {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("task %s cannot be delegated to a %s", req.TaskType, target.Role))
	}

	delegation := &models.Delegation{
		SenderID: sender.ID,
		TargetID: target.ID,
		TaskType: req.TaskType,
		Details:  req.Details,
	}
	if err := s.delegations.Create(ctx, delegation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record delegation")
	}

	if s.notifications != nil {
		s.notifications.Notify(ctx, target.ID,
			"Nouvelle tâche déléguée",
			fmt.Sprintf("%s vous a délégué la tâche %s : %s", sender.FullName, req.TaskType, req.Details),
			"")
	}
	s.logger.Info("task delegated",
		zap.String("delegation_id", delegation.ID),
		zap.String("sender_id", actor.UserID),
		zap.String("target_id", target.ID),
		zap.String("task_type", req.TaskType))

	return &dto.DelegationAck{
		ID:         delegation.ID,
		TargetName: target.FullName,
		TaskType:   delegation.TaskType,
		Message:    fmt.Sprintf("Tâche %s déléguée à %s.", delegation.TaskType, target.FullName),
		CreatedAt:  delegation.CreatedAt,
	}, nil
}

// ListSent returns the delegations issued by the calling administrator.
func (s *DelegationService) ListSent(ctx context.Context, actor *models.JWTClaims) ([]models.Delegation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	delegations, err := s.delegations.ListBySender(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list delegations")
	}
	if delegations == nil {
		delegations = []models.Delegation{}
	}
	return delegations, nil
}
