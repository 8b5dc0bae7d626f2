package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
)

// ResponsableRepository persists section responsable assignments.
type ResponsableRepository struct {
	db *sqlx.DB
}

// NewResponsableRepository constructs the repository.
func NewResponsableRepository(db *sqlx.DB) *ResponsableRepository {
	return &ResponsableRepository{db: db}
}

const responsableColumns = `id, section_id, enseignant_id, role, group_id, assigned_at`

// Upsert inserts the assignment or, when the (section, role) slot is already
// held, replaces the holder and refreshes assigned_at. The unique index on
// (section_id, role) makes the replacement race-free.
func (r *ResponsableRepository) Upsert(ctx context.Context, responsable *models.SectionResponsable) error {
	if responsable.ID == "" {
		responsable.ID = uuid.NewString()
	}
	if responsable.AssignedAt.IsZero() {
		responsable.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO section_responsables (id, section_id, enseignant_id, role, group_id, assigned_at)
	VALUES (:id, :section_id, :enseignant_id, :role, :group_id, :assigned_at)
	ON CONFLICT (section_id, role)
	DO UPDATE SET enseignant_id = EXCLUDED.enseignant_id, group_id = EXCLUDED.group_id, assigned_at = EXCLUDED.assigned_at`
	if _, err := r.db.NamedExecContext(ctx, query, responsable); err != nil {
		return fmt.Errorf("upsert responsable: %w", err)
	}
	return nil
}

// ListBySection returns all responsables of a section.
func (r *ResponsableRepository) ListBySection(ctx context.Context, sectionID string) ([]models.SectionResponsable, error) {
	var responsables []models.SectionResponsable
	query := `SELECT ` + responsableColumns + ` FROM section_responsables WHERE section_id = $1 ORDER BY role`
	if err := r.db.SelectContext(ctx, &responsables, query, sectionID); err != nil {
		return nil, fmt.Errorf("list responsables: %w", err)
	}
	return responsables, nil
}

// SectionIDsForTeacher returns the sections the teacher is responsable for.
func (r *ResponsableRepository) SectionIDsForTeacher(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	const query = `SELECT DISTINCT section_id FROM section_responsables WHERE enseignant_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("sections for teacher: %w", err)
	}
	return ids, nil
}

// IsResponsableForSection reports whether the teacher holds any responsable
// role over the section.
func (r *ResponsableRepository) IsResponsableForSection(ctx context.Context, teacherID, sectionID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM section_responsables WHERE enseignant_id = $1 AND section_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, teacherID, sectionID); err != nil {
		return false, fmt.Errorf("check responsable: %w", err)
	}
	return exists, nil
}

// DeleteByID removes one assignment under a section; sql.ErrNoRows when the
// responsable does not exist under that section.
func (r *ResponsableRepository) DeleteByID(ctx context.Context, sectionID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM section_responsables WHERE id = $1 AND section_id = $2`, id, sectionID)
	if err != nil {
		return fmt.Errorf("delete responsable: %w", err)
	}
	return requireRowsAffected(result)
}

// Coverage counts filled responsable roles per section for dashboards.
func (r *ResponsableRepository) Coverage(ctx context.Context) ([]dto.SectionCoverage, error) {
	var coverage []dto.SectionCoverage
	const query = `SELECT s.id AS section_id, s.name AS section_name, COUNT(sr.id) AS filled_roles
	FROM sections s
	LEFT JOIN section_responsables sr ON sr.section_id = s.id
	GROUP BY s.id, s.name
	ORDER BY s.name ASC`
	if err := r.db.SelectContext(ctx, &coverage, query); err != nil {
		return nil, fmt.Errorf("responsable coverage: %w", err)
	}
	return coverage, nil
}
