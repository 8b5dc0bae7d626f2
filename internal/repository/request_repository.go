package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/univ-adm/faculte-api/internal/models"
)

// RequestRepository persists change requests (demandes).
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, type, etudiant_id, current_ref_id, requested_ref_id, justification, status, response_message, reviewed_by, reviewed_at, created_at`

// Create inserts a new pending request.
func (r *RequestRepository) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.ChangeRequestPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO demandes (id, type, etudiant_id, current_ref_id, requested_ref_id, justification, status, response_message, reviewed_by, reviewed_at, created_at)
	VALUES (:id, :type, :etudiant_id, :current_ref_id, :requested_ref_id, :justification, :status, :response_message, :reviewed_by, :reviewed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	var request models.ChangeRequest
	if err := r.db.GetContext(ctx, &request, `SELECT `+requestColumns+` FROM demandes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter, newest first. SectionIDs
// restricts results to requests whose current group belongs to one of the
// sections (the teacher-facing scope).
func (r *RequestRepository) List(ctx context.Context, filter models.ChangeRequestFilter) ([]models.ChangeRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT d.id, d.type, d.etudiant_id, d.current_ref_id, d.requested_ref_id, d.justification,
       d.status, d.response_message, d.reviewed_by, d.reviewed_at, d.created_at FROM demandes d`)

	conditions := make([]string, 0, 4)
	if len(filter.SectionIDs) > 0 {
		builder.WriteString(` JOIN groupes g ON g.id = d.current_ref_id`)
		args = append(args, pq.Array(filter.SectionIDs))
		conditions = append(conditions, fmt.Sprintf("g.section_id = ANY($%d)", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("d.etudiant_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("d.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("d.type = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY d.created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.ChangeRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// CountByStatus counts requests holding one status.
func (r *RequestRepository) CountByStatus(ctx context.Context, status models.ChangeRequestStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM demandes WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}

// UpdateStatusParams groups the review columns.
type UpdateStatusParams struct {
	ID              string
	Status          models.ChangeRequestStatus
	ResponseMessage *string
	ReviewedBy      string
	ReviewedAt      time.Time
}

// UpdateStatus applies a review outcome. The WHERE status = 'PENDING' clause
// is the one-way state machine guard: a terminal request yields
// sql.ErrNoRows, which callers surface as a conflict.
func (r *RequestRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	query := fmt.Sprintf(`UPDATE demandes SET status = :status, response_message = :response_message,
	reviewed_by = :reviewed_by, reviewed_at = :reviewed_at WHERE id = :id AND status = '%s'`,
		models.ChangeRequestPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.Status,
		"response_message": params.ResponseMessage,
		"reviewed_by":      params.ReviewedBy,
		"reviewed_at":      params.ReviewedAt,
	})
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return requireRowsAffected(result)
}

// ApplySectionTransferParams carries the SECTION approval columns.
type ApplySectionTransferParams struct {
	RequestID       string
	ResponseMessage *string
	ReviewedBy      string
	ReviewedAt      time.Time
	StudentID       string
	ToSectionID     string
}

// ApplySectionTransfer approves a SECTION request and moves the student in
// the same transaction. Group pointers are cleared: the student must be
// re-assigned to groups of the new section afterwards.
func (r *RequestRepository) ApplySectionTransfer(ctx context.Context, params ApplySectionTransferParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section approval: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	result, execErr := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE demandes SET status = $2, response_message = $3, reviewed_by = $4, reviewed_at = $5
	WHERE id = $1 AND status = '%s'`, models.ChangeRequestPending),
		params.RequestID, models.ChangeRequestApproved, params.ResponseMessage, params.ReviewedBy, params.ReviewedAt)
	if execErr != nil {
		err = fmt.Errorf("approve request: %w", execErr)
		return err
	}
	if err = requireRowsAffected(result); err != nil {
		return err
	}

	// Releasing zero, one or two groups is all legal here.
	if _, execErr = tx.ExecContext(ctx,
		`UPDATE groupes SET current_occupancy = GREATEST(current_occupancy - 1, 0), updated_at = $2
	WHERE id IN (SELECT groupe_td_id FROM etudiants WHERE id = $1 AND groupe_td_id IS NOT NULL
	             UNION SELECT groupe_tp_id FROM etudiants WHERE id = $1 AND groupe_tp_id IS NOT NULL)`,
		params.StudentID, params.ReviewedAt); execErr != nil {
		err = fmt.Errorf("release groups: %w", execErr)
		return err
	}

	result, execErr = tx.ExecContext(ctx,
		`UPDATE etudiants SET section_id = $2, groupe_td_id = NULL, groupe_tp_id = NULL, updated_at = $3 WHERE id = $1`,
		params.StudentID, params.ToSectionID, params.ReviewedAt)
	if execErr != nil {
		err = fmt.Errorf("move student: %w", execErr)
		return err
	}
	if err = requireRowsAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

// ApplyGroupTransferParams carries everything the approval transaction needs.
type ApplyGroupTransferParams struct {
	RequestID       string
	ResponseMessage *string
	ReviewedBy      string
	ReviewedAt      time.Time
	StudentID       string
	GroupType       models.GroupType
	FromGroupID     string
	ToGroupID       string
}

// ApplyGroupTransfer approves a GROUPE_* request and applies the occupancy
// transfer as one transaction: status CAS, floored decrement of the source
// group, unconditional increment of the destination, student pointer
// repoint. Any missing row aborts the whole transaction, so occupancy is
// never partially applied.
func (r *RequestRepository) ApplyGroupTransfer(ctx context.Context, params ApplyGroupTransferParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approval: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	result, execErr := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE demandes SET status = $2, response_message = $3, reviewed_by = $4, reviewed_at = $5
	WHERE id = $1 AND status = '%s'`, models.ChangeRequestPending),
		params.RequestID, models.ChangeRequestApproved, params.ResponseMessage, params.ReviewedBy, params.ReviewedAt)
	if execErr != nil {
		err = fmt.Errorf("approve request: %w", execErr)
		return err
	}
	if err = requireRowsAffected(result); err != nil {
		return err
	}

	// Source and destination are locked in a stable order via the single
	// UPDATE statements below; the decrement floors at zero.
	result, execErr = tx.ExecContext(ctx,
		`UPDATE groupes SET current_occupancy = GREATEST(current_occupancy - 1, 0), updated_at = $2 WHERE id = $1`,
		params.FromGroupID, params.ReviewedAt)
	if execErr != nil {
		err = fmt.Errorf("decrement source group: %w", execErr)
		return err
	}
	if err = requireRowsAffected(result); err != nil {
		return err
	}

	result, execErr = tx.ExecContext(ctx,
		`UPDATE groupes SET current_occupancy = current_occupancy + 1, updated_at = $2 WHERE id = $1`,
		params.ToGroupID, params.ReviewedAt)
	if execErr != nil {
		err = fmt.Errorf("increment destination group: %w", execErr)
		return err
	}
	if err = requireRowsAffected(result); err != nil {
		return err
	}

	column := "groupe_td_id"
	if params.GroupType == models.GroupTypeTP {
		column = "groupe_tp_id"
	}
	result, execErr = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE etudiants SET %s = $2, updated_at = $3 WHERE id = $1`, column),
		params.StudentID, params.ToGroupID, params.ReviewedAt)
	if execErr != nil {
		err = fmt.Errorf("repoint student: %w", execErr)
		return err
	}
	if err = requireRowsAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}
