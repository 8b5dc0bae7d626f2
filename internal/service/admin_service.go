package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	"github.com/univ-adm/faculte-api/internal/repository"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type adminStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRoles(ctx context.Context, roles []models.Role) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// AdminService manages administrator accounts under the role hierarchy.
// Every mutation is permission-checked against the actor's canManage set
// before anything is written.
type AdminService struct {
	store     adminStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(store adminStore, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AdminService{store: store, validator: validate, logger: logger}
	svc.validator.RegisterValidation("adminrole", func(fl validator.FieldLevel) bool {
		return models.IsAdministrative(models.Role(fl.Field().String()))
	})
	return svc
}

// authorizeTarget runs the hierarchy checks for creating or re-assigning the
// target role. The VICE_DOYEN rule is evaluated before the generic canManage
// lookup.
func authorizeTarget(actor models.Role, target models.Role) error {
	if target == models.RoleViceDoyen && actor != models.RoleDoyen {
		return appErrors.Clone(appErrors.ErrForbidden, "only the doyen may manage a vice-doyen")
	}
	if !models.CanAccessRole(actor, target) {
		return appErrors.Clone(appErrors.ErrForbidden, "role hierarchy does not permit this action")
	}
	return nil
}

// Create registers a new administrator after hierarchy authorization.
func (s *AdminService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateAdministratorRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid administrator payload")
	}
	if err := authorizeTarget(actor.Role, req.Role); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Phone:        req.Phone,
		Active:       true,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create administrator")
	}
	s.logger.Info("administrator created",
		zap.String("admin_id", user.ID), zap.String("role", string(user.Role)), zap.String("created_by", actor.UserID))
	return user, nil
}

// Get returns one administrator the actor is allowed to manage.
func (s *AdminService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	admin, err := s.loadAdministrator(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanManageAdministrator(actor.Role, admin) {
		return nil, appErrors.ErrForbidden
	}
	return admin, nil
}

// List returns administrators visible to the actor. When role is non-nil the
// actor must manage that role; otherwise the full manageable set is listed.
func (s *AdminService) List(ctx context.Context, actor *models.JWTClaims, role *models.Role) ([]models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var roles []models.Role
	if role != nil {
		if !models.CanAccessRole(actor.Role, *role) {
			return nil, appErrors.ErrForbidden
		}
		roles = []models.Role{*role}
	} else {
		roles = models.ManageableRoles(actor.Role)
	}
	if len(roles) == 0 {
		return []models.User{}, nil
	}
	admins, err := s.store.ListByRoles(ctx, roles)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list administrators")
	}
	return admins, nil
}

// Update mutates an administrator. A role change is validated against both
// the current role and the requested one.
func (s *AdminService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateAdministratorRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	admin, err := s.loadAdministrator(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanManageAdministrator(actor.Role, admin) {
		return nil, appErrors.ErrForbidden
	}
	if req.Role != nil && *req.Role != admin.Role {
		if err := authorizeTarget(actor.Role, *req.Role); err != nil {
			return nil, err
		}
		admin.Role = *req.Role
	}
	if req.FullName != nil {
		admin.FullName = *req.FullName
	}
	if req.Phone != nil {
		admin.Phone = req.Phone
	}
	if req.Active != nil {
		admin.Active = *req.Active
	}
	if err := s.store.Update(ctx, admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update administrator")
	}
	return admin, nil
}

// Delete removes an administrator the actor manages.
func (s *AdminService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	admin, err := s.loadAdministrator(ctx, id)
	if err != nil {
		return err
	}
	if !models.CanManageAdministrator(actor.Role, admin) {
		return appErrors.ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete administrator")
	}
	s.logger.Info("administrator deleted", zap.String("admin_id", id), zap.String("deleted_by", actor.UserID))
	return nil
}

// Hierarchy exposes the static role table.
func (s *AdminService) Hierarchy() []models.HierarchyEntry {
	return models.Hierarchy()
}

// CheckAccess reports whether the actor may manage the target role.
func (s *AdminService) CheckAccess(actor *models.JWTClaims, target models.Role) dto.HierarchyAccessResponse {
	if actor == nil {
		return dto.HierarchyAccessResponse{Allowed: false}
	}
	return dto.HierarchyAccessResponse{Allowed: models.CanAccessRole(actor.Role, target)}
}

func (s *AdminService) loadAdministrator(ctx context.Context, id string) (*models.User, error) {
	admin, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}
	if !models.IsAdministrative(admin.Role) {
		return nil, appErrors.ErrNotFound
	}
	return admin, nil
}
