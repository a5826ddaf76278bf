package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/unitrack/attendance-api/internal/models"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "name", "role", "student_id",
		"intake", "section", "department", "created_by", "is_active", "created_at",
	})
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow("usr-1", "alice@uni.edu", "hash", "Alice", models.RoleStudent, "CSE-001",
			"45", "A", "CSE", nil, true, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("alice@uni.edu").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "alice@uni.edu")
	require.NoError(t, err)
	require.Equal(t, "usr-1", user.ID)
	require.Equal(t, models.RoleStudent, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsStudentID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE role = $1 AND student_id = $2 LIMIT 1")).
		WithArgs(models.RoleStudent, "CSE-001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsStudentID(context.Background(), "CSE-001")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("usr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), "usr-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
