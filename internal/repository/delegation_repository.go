package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univ-adm/faculte-api/internal/models"
)

// DelegationRepository persists delegated tasks.
type DelegationRepository struct {
	db *sqlx.DB
}

// NewDelegationRepository constructs the repository.
func NewDelegationRepository(db *sqlx.DB) *DelegationRepository {
	return &DelegationRepository{db: db}
}

// Create inserts a delegation record.
func (r *DelegationRepository) Create(ctx context.Context, delegation *models.Delegation) error {
	if delegation.ID == "" {
		delegation.ID = uuid.NewString()
	}
	if delegation.CreatedAt.IsZero() {
		delegation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO delegations (id, sender_id, target_id, task_type, details, created_at)
	VALUES (:id, :sender_id, :target_id, :task_type, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, delegation); err != nil {
		return fmt.Errorf("create delegation: %w", err)
	}
	return nil
}

// ListBySender returns delegations issued by one administrator, newest first.
func (r *DelegationRepository) ListBySender(ctx context.Context, senderID string) ([]models.Delegation, error) {
	var delegations []models.Delegation
	const query = `SELECT id, sender_id, target_id, task_type, details, created_at
	FROM delegations WHERE sender_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &delegations, query, senderID); err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}
	return delegations, nil
}
