package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and records where the session was
// opened.  Rows are never deleted: an invalidated token stays behind
// so that presenting it again is recognisable as reuse.
//
// Fields:
//  ID         – primary key identifier.
//  Token      – the signed refresh token string.
//  UserID     – owner of the token.
//  IPAddress  – client IP at issuance.
//  DeviceInfo – User-Agent at issuance.
//  ExpiresAt  – expiration timestamp (7 days after issuance).
//  IsValid    – false once rotated, logged out or flagged as reused.
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
	ID         uint64    // refresh_tokens.id
	Token      string    // refresh_tokens.token
	UserID     uint64    // refresh_tokens.user_id
	IPAddress  string    // refresh_tokens.ip_address
	DeviceInfo string    // refresh_tokens.device_info
	ExpiresAt  time.Time // refresh_tokens.expires_at
	IsValid    bool      // refresh_tokens.is_valid
	CreatedAt  time.Time // refresh_tokens.created_at
}

// BlacklistedToken is an access token revoked before its natural
// expiry (logout).  ExpiresAt is copied from the token's own exp
// claim; once it passes the row is dead weight and may be purged.
type BlacklistedToken struct {
	ID        uint64    // blacklisted_tokens.id
	Token     string    // blacklisted_tokens.token
	ExpiresAt time.Time // blacklisted_tokens.expires_at
}
