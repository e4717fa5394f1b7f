package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	return New("access-secret-for-tests", "refresh-secret-for-tests", 0, 0)
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc := testService()
	roleID := uint64(3)

	raw, err := svc.IssueAccess(42, "a@b.com", &roleID)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := svc.VerifyAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	require.NotNil(t, claims.RoleID)
	assert.Equal(t, uint64(3), *claims.RoleID)
	assert.Empty(t, claims.TokenID)

	// Access tokens default to a 10-minute lifetime.
	require.NotNil(t, claims.ExpiresAt)
	ttl := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}

func TestConfiguredTTLsAreApplied(t *testing.T) {
	svc := New("access-secret-for-tests", "refresh-secret-for-tests",
		2*time.Minute, 48*time.Hour)

	raw, err := svc.IssueAccess(42, "a@b.com", nil)
	require.NoError(t, err)
	claims, err := svc.VerifyAccess(raw)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	ttl := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, 2*time.Minute)

	raw, err = svc.IssueRefresh(42, "a@b.com", nil)
	require.NoError(t, err)
	claims, err = svc.VerifyRefresh(raw)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	ttl = time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, ttl, 47*time.Hour)
	assert.LessOrEqual(t, ttl, 48*time.Hour)
}

func TestIssueRefreshEmbedsUniqueTokenID(t *testing.T) {
	svc := testService()

	first, err := svc.IssueRefresh(42, "a@b.com", nil)
	require.NoError(t, err)
	second, err := svc.IssueRefresh(42, "a@b.com", nil)
	require.NoError(t, err)

	// Same user, same instant: the random tokenId must still make the
	// two tokens distinct strings.
	assert.NotEqual(t, first, second)

	claims, err := svc.VerifyRefresh(first)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.TokenID)
	assert.Nil(t, claims.RoleID)

	require.NotNil(t, claims.ExpiresAt)
	ttl := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, ttl, DefaultRefreshTTL-time.Minute)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	svc := testService()
	raw, err := svc.IssueAccess(1, "a@b.com", nil)
	require.NoError(t, err)

	// A refresh-secret verification of an access token must fail as
	// invalid, not expired.
	_, err = svc.VerifyRefresh(raw)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyDistinguishesExpiry(t *testing.T) {
	svc := testService()
	expired := signExpired(t, svc.AccessSecret)

	_, err := svc.VerifyAccess(expired)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeUnsafeReadsExpiryWithoutKey(t *testing.T) {
	svc := testService()
	raw, err := svc.IssueAccess(7, "x@y.com", nil)
	require.NoError(t, err)

	claims, err := DecodeUnsafe(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	require.NotNil(t, claims.ExpiresAt)

	// Even an expired token still decodes: logout must be able to read
	// the exp claim of whatever the client presents.
	claims, err = DecodeUnsafe(signExpired(t, svc.AccessSecret))
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))

	_, err = DecodeUnsafe("garbage")
	assert.ErrorIs(t, err, ErrInvalid)
}

// signExpired mints a token whose exp claim already passed.
func signExpired(t *testing.T, secret []byte) string {
	t.Helper()
	claims := Claims{
		UserID: 7,
		Email:  "x@y.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return raw
}
