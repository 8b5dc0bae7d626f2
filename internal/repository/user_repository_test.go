package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/univ-adm/faculte-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{
		Email:    "doyen@univ.dz",
		FullName: "Rachid Benali",
		Role:     models.RoleDoyen,
	})
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "phone", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u-1", "doyen@univ.dz", "hash", "Rachid Benali", "DOYEN", nil, true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("doyen@univ.dz").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "doyen@univ.dz")
	require.NoError(t, err)
	require.Equal(t, models.RoleDoyen, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCountByRoles(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	rows := sqlmock.NewRows([]string{"role", "count"}).
		AddRow("SECRETAIRE", 4).
		AddRow("CHEF_DE_SPECIALITE", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role, COUNT(*) AS count FROM users")).
		WillReturnRows(rows)

	counts, err := repo.CountByRoles(context.Background(), []models.Role{models.RoleSecretaire, models.RoleChefSpecialite})
	require.NoError(t, err)
	require.Equal(t, 4, counts[models.RoleSecretaire])
	require.Equal(t, 2, counts[models.RoleChefSpecialite])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCountByRolesEmptySet(t *testing.T) {
	db, _, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	counts, err := repo.CountByRoles(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, counts)
}

func TestUserRepositoryRevokeUserRefreshTokens(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
