package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
)

// ErrGroupFull signals an assignment attempted on a group at capacity.
var ErrGroupFull = errors.New("group at capacity")

// ErrStudentVanished signals a student row that disappeared between the
// caller's existence check and the assignment transaction.
var ErrStudentVanished = errors.New("student row not found")

// GroupRepository persists TD/TP groups and student membership pointers.
// Every occupancy mutation runs inside a single transaction with row-level
// locks on the group rows, so concurrent assignments cannot exceed capacity.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = `id, name, type, section_id, capacity, current_occupancy, created_at, updated_at`

// Create inserts a new group row with zero occupancy.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	const query = `INSERT INTO groupes (id, name, type, section_id, capacity, current_occupancy, created_at, updated_at)
	VALUES (:id, :name, :type, :section_id, :capacity, :current_occupancy, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// GetByID fetches a group by identifier.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groupes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListBySection returns every group of a section.
func (r *GroupRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Group, error) {
	var groups []models.Group
	query := `SELECT ` + groupColumns + ` FROM groupes WHERE section_id = $1 ORDER BY type, name`
	if err := r.db.SelectContext(ctx, &groups, query, sectionID); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Delete removes a group and clears student pointers referencing it.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete group: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE etudiants SET groupe_td_id = NULL WHERE groupe_td_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear td pointers: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE etudiants SET groupe_tp_id = NULL WHERE groupe_tp_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear tp pointers: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM groupes WHERE id = $1`, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete group: %w", err)
	}
	if err := requireRowsAffected(result); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	return tx.Commit()
}

// Roster lists students currently pointing at the group.
func (r *GroupRepository) Roster(ctx context.Context, group *models.Group) ([]dto.RosterEntry, error) {
	column := "groupe_td_id"
	if group.Type == models.GroupTypeTP {
		column = "groupe_tp_id"
	}
	var entries []dto.RosterEntry
	query := fmt.Sprintf(`SELECT id, matricule, full_name FROM etudiants WHERE %s = $1 ORDER BY full_name ASC`, column)
	if err := r.db.SelectContext(ctx, &entries, query, group.ID); err != nil {
		return nil, fmt.Errorf("group roster: %w", err)
	}
	return entries, nil
}

// FillRates returns occupancy snapshots for all groups of the given sections,
// or for every group when sectionIDs is empty.
func (r *GroupRepository) FillRates(ctx context.Context, sectionIDs []string) ([]dto.GroupFillRate, error) {
	var rates []dto.GroupFillRate
	query := `SELECT id, name, type, current_occupancy, capacity FROM groupes`
	args := []interface{}{}
	if len(sectionIDs) > 0 {
		query += ` WHERE section_id = ANY($1)`
		args = append(args, pq.Array(sectionIDs))
	}
	query += ` ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &rates, query, args...); err != nil {
		return nil, fmt.Errorf("group fill rates: %w", err)
	}
	return rates, nil
}

// AssignStudent places a student into a group inside one transaction:
// the group row is locked, capacity is checked, the student's current group
// of the same type (if any) is released with a floored decrement, and the
// pointer is repointed. Returns alreadyMember=true as an idempotent no-op
// when the student already points at the group.
func (r *GroupRepository) AssignStudent(ctx context.Context, studentID, groupID string) (group *models.Group, alreadyMember bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin assign: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	var locked models.Group
	if err = tx.GetContext(ctx, &locked,
		`SELECT `+groupColumns+` FROM groupes WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		return nil, false, err
	}

	column := "groupe_td_id"
	if locked.Type == models.GroupTypeTP {
		column = "groupe_tp_id"
	}

	var current sql.NullString
	if err = tx.GetContext(ctx, &current,
		fmt.Sprintf(`SELECT %s FROM etudiants WHERE id = $1 FOR UPDATE`, column), studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrStudentVanished
		}
		return nil, false, err
	}

	if current.Valid && current.String == groupID {
		if err = tx.Commit(); err != nil {
			return nil, false, err
		}
		return &locked, true, nil
	}

	if locked.CurrentOccupancy >= locked.Capacity {
		err = ErrGroupFull
		return nil, false, err
	}

	if current.Valid {
		if _, err = tx.ExecContext(ctx,
			`UPDATE groupes SET current_occupancy = GREATEST(current_occupancy - 1, 0), updated_at = $2 WHERE id = $1`,
			current.String, time.Now().UTC()); err != nil {
			return nil, false, fmt.Errorf("release previous group: %w", err)
		}
	}

	if err = tx.GetContext(ctx, &locked,
		`UPDATE groupes SET current_occupancy = current_occupancy + 1, updated_at = $2 WHERE id = $1 RETURNING `+groupColumns,
		groupID, time.Now().UTC()); err != nil {
		return nil, false, fmt.Errorf("increment occupancy: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE etudiants SET %s = $2, updated_at = $3 WHERE id = $1`, column),
		studentID, groupID, time.Now().UTC()); err != nil {
		return nil, false, fmt.Errorf("repoint student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, err
	}
	return &locked, false, nil
}

// RemoveStudent clears the student's pointer at the group and decrements
// occupancy, flooring at zero. Removal of a non-member is an idempotent
// no-op (removed=false, no error).
func (r *GroupRepository) RemoveStudent(ctx context.Context, studentID, groupID string) (group *models.Group, removed bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin remove: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	var locked models.Group
	if err = tx.GetContext(ctx, &locked,
		`SELECT `+groupColumns+` FROM groupes WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		return nil, false, err
	}

	column := "groupe_td_id"
	if locked.Type == models.GroupTypeTP {
		column = "groupe_tp_id"
	}

	result, execErr := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE etudiants SET %s = NULL, updated_at = $3 WHERE id = $1 AND %s = $2`, column, column),
		studentID, groupID, time.Now().UTC())
	if execErr != nil {
		err = fmt.Errorf("clear membership: %w", execErr)
		return nil, false, err
	}
	rows, raErr := result.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("check membership rows: %w", raErr)
		return nil, false, err
	}

	if rows > 0 {
		if err = tx.GetContext(ctx, &locked,
			`UPDATE groupes SET current_occupancy = GREATEST(current_occupancy - 1, 0), updated_at = $2 WHERE id = $1 RETURNING `+groupColumns,
			groupID, time.Now().UTC()); err != nil {
			return nil, false, fmt.Errorf("decrement occupancy: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, err
	}
	return &locked, rows > 0, nil
}
