package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"crm-api/internal/model"
)

const userColumns = "id, name, email, password, phone_number, role_id, status, profile_image, date_of_birth, register_date, created_at, updated_at"

// safeUserColumns excludes the credential; list endpoints never touch it.
const safeUserColumns = "id, name, email, phone_number, role_id, status, profile_image, date_of_birth, register_date"

// sortableUserColumns whitelists the columns the list endpoint may order
// by. Anything else falls back to id so user input never reaches the
// ORDER BY clause directly.
var sortableUserColumns = map[string]bool{
	"id": true, "name": true, "email": true, "register_date": true, "status": true,
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber,
		&u.RoleID, &u.Status, &u.ProfileImage, &u.DateOfBirth, &u.RegisterDate,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByEmail fetches a full user row by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a full user row by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// EmailExists reports whether a user with the given email already exists.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Exists reports whether a user row with the given id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a user and returns its ID. The credential must already
// be hashed by the caller. A duplicate email maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, email, password, phone_number, role_id, status, profile_image, date_of_birth, register_date)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash,
		u.PhoneNumber, u.RoleID, u.Status, u.ProfileImage, u.DateOfBirth, u.RegisterDate)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns a page of sanitized users plus the total match count.
// Search matches name or email, case-insensitively.
func (r *UserRepo) List(ctx context.Context, page, limit int, search, sortBy string) ([]model.SafeUser, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if !sortableUserColumns[sortBy] {
		sortBy = "id"
	}
	keyword := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
	offset := (page - 1) * limit

	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ? ORDER BY %s ASC LIMIT ? OFFSET ?`,
			safeUserColumns, sortBy),
		keyword, keyword, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []model.SafeUser{}
	for rows.Next() {
		var u model.SafeUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.RoleID,
			&u.Status, &u.ProfileImage, &u.DateOfBirth, &u.RegisterDate); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ?",
		keyword, keyword).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update applies a partial update. Only the columns present in fields are
// touched; keys are sorted so the generated SQL is deterministic.
// ErrNotFound is returned when the id matches no row.
func (r *UserRepo) Update(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		sets = append(sets, k+"=?")
		args = append(args, fields[k])
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored credential hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfileImage writes the hosted image URL produced by the image
// pipeline. Called from the queue workers, never from a request path.
func (r *UserRepo) UpdateProfileImage(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET profile_image=? WHERE id=?", url, id)
	return err
}

// ProfileImage returns the currently stored image URL for a user.
func (r *UserRepo) ProfileImage(ctx context.Context, id uint64) (string, error) {
	var url string
	err := r.DB.QueryRowContext(ctx,
		"SELECT profile_image FROM users WHERE id=? LIMIT 1", id).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

// Delete removes a user row. ErrNotFound when the id matches nothing.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
