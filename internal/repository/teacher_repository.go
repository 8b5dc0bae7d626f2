package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/univ-adm/faculte-api/internal/models"
)

// TeacherRepository reads enseignant records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, user_id, full_name, grade, created_at, updated_at`

// GetByID fetches a teacher by identifier.
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, `SELECT `+teacherColumns+` FROM enseignants WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// GetByUserID resolves the teacher record bound to a user account.
func (r *TeacherRepository) GetByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, `SELECT `+teacherColumns+` FROM enseignants WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}
