package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoleRepo(t *testing.T) (*RoleRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoleRepo(db), mock
}

func TestRoleList(t *testing.T) {
	repo, mock := newRoleRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, role_type FROM role WHERE LOWER(role_type) LIKE ? ORDER BY id ASC LIMIT ? OFFSET ?")).
		WithArgs("%manager%", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role_type"}).
			AddRow(1, "Account Manager").
			AddRow(2, "Sales Manager"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM role WHERE LOWER(role_type) LIKE ?")).
		WithArgs("%manager%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	roles, total, err := repo.List(context.Background(), 1, 10, "Manager")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, roles, 2)
	assert.Equal(t, "Account Manager", roles[0].RoleType)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleGetByID(t *testing.T) {
	repo, mock := newRoleRepo(t)
	query := regexp.QuoteMeta("SELECT id, role_type FROM role WHERE id=? LIMIT 1")

	mock.ExpectQuery(query).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role_type"}).AddRow(2, "Admin"))
	role, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Admin", role.RoleType)

	mock.ExpectQuery(query).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role_type"}))
	_, err = repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleUpsert(t *testing.T) {
	repo, mock := newRoleRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO role (role_type) VALUES (?) ON DUPLICATE KEY UPDATE role_type = VALUES(role_type)")).
		WithArgs("Admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), "Admin"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleDeleteReportsDetachedUsers(t *testing.T) {
	repo, mock := newRoleRepo(t)

	// Three users referenced the role; the FK detaches them on delete
	// and the caller reports the count.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role_id=?")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM role WHERE id=?")).
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleDeleteNotFound(t *testing.T) {
	repo, mock := newRoleRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role_id=?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM role WHERE id=?")).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
