package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/univ-adm/faculte-api/internal/models"
)

// SectionRepository reads sections and departments.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, name, department_id, filiere, created_at, updated_at`

// GetByID fetches a section by identifier.
func (r *SectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	var section models.Section
	if err := r.db.GetContext(ctx, &section, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// List returns every section ordered by name.
func (r *SectionRepository) List(ctx context.Context) ([]models.Section, error) {
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, `SELECT `+sectionColumns+` FROM sections ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
