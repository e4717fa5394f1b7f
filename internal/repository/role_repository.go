package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"crm-api/internal/model"
)

type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// List returns a page of roles matching the search keyword plus the
// total match count.
func (r *RoleRepo) List(ctx context.Context, page, limit int, search string) ([]model.Role, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	keyword := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
	offset := (page - 1) * limit

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, role_type FROM role WHERE LOWER(role_type) LIKE ? ORDER BY id ASC LIMIT ? OFFSET ?",
		keyword, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	roles := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.RoleType); err != nil {
			return nil, 0, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM role WHERE LOWER(role_type) LIKE ?", keyword).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// GetByID fetches a single role.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, role_type FROM role WHERE id=? LIMIT 1", id).Scan(&role.ID, &role.RoleType)
	if errors.Is(err, sql.ErrNoRows) {
		return role, ErrNotFound
	}
	return role, err
}

// Exists reports whether a role row with the given id exists.
func (r *RoleRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM role WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Upsert inserts a role by name, or leaves an existing row untouched
// when the unique role_type already exists.
func (r *RoleRepo) Upsert(ctx context.Context, roleType string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO role (role_type) VALUES (?) ON DUPLICATE KEY UPDATE role_type = VALUES(role_type)",
		roleType)
	return err
}

// Update renames a role. ErrNotFound when the id matches nothing.
func (r *RoleRepo) Update(ctx context.Context, id uint64, roleType string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE role SET role_type=? WHERE id=?", roleType, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a role and returns how many users referenced it. The
// schema declares users.role_id ON DELETE SET NULL, so dependents are
// detached, not deleted.
func (r *RoleRepo) Delete(ctx context.Context, id uint64) (int, error) {
	var affected int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role_id=?", id).Scan(&affected); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM role WHERE id=?", id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrNotFound
	}
	return affected, nil
}
