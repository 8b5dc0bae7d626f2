package dto

import "github.com/univ-adm/faculte-api/internal/models"

// CreateAdministratorRequest is the payload for creating an administrator.
type CreateAdministratorRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	FullName string      `json:"full_name" validate:"required"`
	Role     models.Role `json:"role" validate:"required,adminrole"`
	Phone    *string     `json:"phone"`
}

// UpdateAdministratorRequest carries partial updates; nil fields are ignored.
type UpdateAdministratorRequest struct {
	FullName *string      `json:"full_name"`
	Phone    *string      `json:"phone"`
	Role     *models.Role `json:"role" validate:"omitempty,adminrole"`
	Active   *bool        `json:"active"`
}

// HierarchyAccessRequest asks whether the actor may manage a target role.
type HierarchyAccessRequest struct {
	TargetRole models.Role `json:"target_role" validate:"required"`
}

// HierarchyAccessResponse is the access-check verdict.
type HierarchyAccessResponse struct {
	Allowed bool `json:"allowed"`
}
