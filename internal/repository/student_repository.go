package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/univ-adm/faculte-api/internal/models"
)

// StudentRepository reads etudiant records. Group pointers are mutated only
// through GroupRepository and RequestRepository transactions.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, user_id, matricule, full_name, section_id, groupe_td_id, groupe_tp_id, created_at, updated_at`

// GetByID fetches a student by identifier.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, `SELECT `+studentColumns+` FROM etudiants WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetByUserID resolves the student record bound to a user account.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, `SELECT `+studentColumns+` FROM etudiants WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &student, nil
}
