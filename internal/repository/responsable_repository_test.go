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

func newResponsableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestResponsableRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newResponsableRepoMock(t)
	defer cleanup()

	repo := NewResponsableRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (section_id, role)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	responsable := &models.SectionResponsable{
		SectionID: "sec-1",
		TeacherID: "ens-1",
		Role:      models.ResponsableSection,
	}
	require.NoError(t, repo.Upsert(context.Background(), responsable))
	require.NotEmpty(t, responsable.ID)
	require.False(t, responsable.AssignedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResponsableRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newResponsableRepoMock(t)
	defer cleanup()

	repo := NewResponsableRepository(db)
	rows := sqlmock.NewRows([]string{"id", "section_id", "enseignant_id", "role", "group_id", "assigned_at"}).
		AddRow("resp-1", "sec-1", "ens-1", "SECTION", nil, time.Now()).
		AddRow("resp-2", "sec-1", "ens-2", "TD", "td-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM section_responsables WHERE section_id = $1")).
		WithArgs("sec-1").
		WillReturnRows(rows)

	list, err := repo.ListBySection(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, models.ResponsableSection, list[0].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResponsableRepositoryIsResponsableForSection(t *testing.T) {
	db, mock, cleanup := newResponsableRepoMock(t)
	defer cleanup()

	repo := NewResponsableRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("ens-1", "sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsResponsableForSection(context.Background(), "ens-1", "sec-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResponsableRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newResponsableRepoMock(t)
	defer cleanup()

	repo := NewResponsableRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM section_responsables")).
		WithArgs("resp-9", "sec-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByID(context.Background(), "sec-1", "resp-9")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResponsableRepositoryCoverage(t *testing.T) {
	db, mock, cleanup := newResponsableRepoMock(t)
	defer cleanup()

	repo := NewResponsableRepository(db)
	rows := sqlmock.NewRows([]string{"section_id", "section_name", "filled_roles"}).
		AddRow("sec-1", "Informatique L2 A", 3).
		AddRow("sec-2", "Informatique L2 B", 0)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN section_responsables")).
		WillReturnRows(rows)

	coverage, err := repo.Coverage(context.Background())
	require.NoError(t, err)
	require.Len(t, coverage, 2)
	require.Equal(t, 3, coverage[0].FilledRoles)
	require.NoError(t, mock.ExpectationsWereMet())
}
