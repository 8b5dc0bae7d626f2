package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/univ-adm/faculte-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO demandes")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ChangeRequest{
		Type:          models.ChangeRequestGroupeTD,
		StudentID:     "etu-1",
		Justification: "conflit d'emploi du temps",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.ChangeRequestPending, request.Status)

	rows := sqlmock.NewRows([]string{"id", "type", "etudiant_id", "current_ref_id", "requested_ref_id", "justification", "status", "response_message", "reviewed_by", "reviewed_at", "created_at"}).
		AddRow(request.ID, "GROUPE_TD", "etu-1", "td-1", "td-2", "conflit d'emploi du temps", "PENDING", nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, etudiant_id")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListSectionScope(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	rows := sqlmock.NewRows([]string{"id", "type", "etudiant_id", "current_ref_id", "requested_ref_id", "justification", "status", "response_message", "reviewed_by", "reviewed_at", "created_at"}).
		AddRow("req-1", "GROUPE_TD", "etu-1", "td-1", "td-2", "raison", "PENDING", nil, nil, nil, time.Now())
	mock.ExpectQuery("JOIN groupes g ON g.id = d.current_ref_id").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ChangeRequestFilter{
		SectionIDs: []string{"sec-1"},
		Status:     []models.ChangeRequestStatus{models.ChangeRequestPending},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demandes SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "req-1",
		Status:     models.ChangeRequestRejected,
		ReviewedBy: "u-doyen",
		ReviewedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// An already-reviewed request matches no row.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demandes SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "req-1",
		Status:     models.ChangeRequestApproved,
		ReviewedBy: "u-doyen",
		ReviewedAt: now,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRequestRepositoryApplyGroupTransfer(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demandes SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(current_occupancy - 1, 0)")).
		WithArgs("td-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("current_occupancy = current_occupancy + 1")).
		WithArgs("td-2", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE etudiants SET groupe_td_id")).
		WithArgs("etu-1", "td-2", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyGroupTransfer(context.Background(), ApplyGroupTransferParams{
		RequestID:   "req-1",
		ReviewedBy:  "u-teacher",
		ReviewedAt:  now,
		StudentID:   "etu-1",
		GroupType:   models.GroupTypeTD,
		FromGroupID: "td-1",
		ToGroupID:   "td-2",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApplyGroupTransferAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demandes SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyGroupTransfer(context.Background(), ApplyGroupTransferParams{
		RequestID:   "req-1",
		ReviewedBy:  "u-teacher",
		ReviewedAt:  now,
		StudentID:   "etu-1",
		GroupType:   models.GroupTypeTD,
		FromGroupID: "td-1",
		ToGroupID:   "td-2",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApplyGroupTransferMissingDestination(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demandes SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(current_occupancy - 1, 0)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("current_occupancy = current_occupancy + 1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyGroupTransfer(context.Background(), ApplyGroupTransferParams{
		RequestID:   "req-1",
		ReviewedBy:  "u-teacher",
		ReviewedAt:  now,
		StudentID:   "etu-1",
		GroupType:   models.GroupTypeTD,
		FromGroupID: "td-1",
		ToGroupID:   "td-missing",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApplySectionTransfer(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demandes SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(current_occupancy - 1, 0)")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE etudiants SET section_id")).
		WithArgs("etu-1", "sec-2", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplySectionTransfer(context.Background(), ApplySectionTransferParams{
		RequestID:   "req-2",
		ReviewedBy:  "u-doyen",
		ReviewedAt:  now,
		StudentID:   "etu-1",
		ToSectionID: "sec-2",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
