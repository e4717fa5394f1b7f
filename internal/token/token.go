// Package token mints and verifies the two signed token kinds the API
// uses: short-lived access tokens and rotating refresh tokens. Both are
// HS256 JWTs carrying the same user claims; refresh tokens additionally
// embed a random tokenId so two tokens minted for the same user in the
// same second never collide on the unique token column.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetimes: access tokens live 10 minutes, refresh tokens
// 7 days. Deployments may override both through configuration.
const (
	DefaultAccessTTL  = 10 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrExpired and ErrInvalid split verification failures in two: expiry
// produces a distinct user-facing message ("please login again"), every
// other signature/format problem collapses into invalid.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Claims is the payload carried by both token kinds.
type Claims struct {
	UserID  uint64  `json:"id"`
	Email   string  `json:"email"`
	RoleID  *uint64 `json:"roleId"`
	TokenID string  `json:"tokenId,omitempty"` // refresh tokens only
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with two independent secrets, so a
// leaked access-token key cannot forge refresh tokens.
type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// New builds a Service. Non-positive TTLs fall back to the defaults.
func New(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Service{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

// IssueAccess signs an access token for the user. No side effects
// beyond signing.
func (s *Service) IssueAccess(userID uint64, email string, roleID *uint64) (string, error) {
	return sign(s.AccessSecret, Claims{
		UserID: userID,
		Email:  email,
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(s.AccessTTL)),
		},
	})
}

// IssueRefresh signs a refresh token embedding a fresh random tokenId.
func (s *Service) IssueRefresh(userID uint64, email string, roleID *uint64) (string, error) {
	return sign(s.RefreshSecret, Claims{
		UserID:  userID,
		Email:   email,
		RoleID:  roleID,
		TokenID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(s.RefreshTTL)),
		},
	})
}

func sign(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess checks an access token's signature and expiry.
func (s *Service) VerifyAccess(raw string) (*Claims, error) { return verify(raw, s.AccessSecret) }

// VerifyRefresh checks a refresh token's signature and expiry.
func (s *Service) VerifyRefresh(raw string) (*Claims, error) { return verify(raw, s.RefreshSecret) }

func verify(raw string, secret []byte) (*Claims, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// DecodeUnsafe extracts claims without any signature check. Logout needs
// the exp claim of the access token being revoked even when the token is
// still technically valid; never use this for authentication decisions.
func DecodeUnsafe(raw string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, ErrInvalid
	}
	return &claims, nil
}
