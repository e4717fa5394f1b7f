package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crm-api/internal/model"
)

// TokenRepo persists refresh tokens and the access-token blacklist.
// Refresh rows are never deleted; an invalidated row is the evidence
// that lets reuse detection tell "rotated token" apart from "never
// existed".
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token row, valid by default.
func (r *TokenRepo) StoreRefresh(ctx context.Context, token string, userID uint64, ip, device string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token, user_id, ip_address, device_info, expires_at) VALUES (?,?,?,?,?)",
		token, userID, ip, device, exp)
	return err
}

// IsReused reports whether this exact token string exists with
// is_valid = FALSE, i.e. it was already rotated or revoked and is now
// being presented again. Callers must run this check before the valid
// lookup so reuse is distinguishable from "never existed".
func (r *TokenRepo) IsReused(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM refresh_tokens WHERE token=? AND is_valid=FALSE LIMIT 1",
		token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// GetValid returns the refresh token row when it exists with
// is_valid = TRUE, otherwise ErrNotFound.
func (r *TokenRepo) GetValid(ctx context.Context, token string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, user_id, ip_address, device_info, expires_at, is_valid FROM refresh_tokens WHERE token=? AND is_valid=TRUE LIMIT 1",
		token).Scan(&t.ID, &t.Token, &t.UserID, &t.IPAddress, &t.DeviceInfo, &t.ExpiresAt, &t.IsValid)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// Invalidate marks a refresh token as no longer valid (rotation or
// logout). Updating an already-invalid row is a no-op, which keeps
// logout idempotent.
func (r *TokenRepo) Invalidate(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET is_valid=FALSE WHERE token=?", token)
	return err
}

// Blacklist inserts an access token into the blacklist with the expiry
// copied from its own exp claim. INSERT IGNORE tolerates a duplicate
// insert so a second logout with the same token is not a hard failure.
func (r *TokenRepo) Blacklist(ctx context.Context, token string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO blacklisted_tokens (token, expires_at) VALUES (?,?)",
		token, exp)
	return err
}

// IsBlacklisted reports whether the access token sits in the blacklist
// with an expiry still in the future. Expired rows are logically dead
// and ignored.
func (r *TokenRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM blacklisted_tokens WHERE token=? AND expires_at > NOW() LIMIT 1",
		token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
