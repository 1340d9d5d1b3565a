package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func newManager(t *testing.T, opts ...TokenOption) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour, opts...)
	require.NoError(t, err)
	return m
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	m, err := NewTokenManager(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Minute, m.TTL())
}

func TestVerify_RoundTrip(t *testing.T) {
	m := newManager(t)
	tok, err := m.Issue(99, "player_one")
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(99), claims.UserID)
	assert.Equal(t, "player_one", claims.Username)
}

func TestIssue_ExpiryWindow(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m, err := NewTokenManager(testSecret, 0, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	tok, err := m.Issue(1, "a")
	require.NoError(t, err)
	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.WithinDuration(t, fixed.Add(60*time.Minute), claims.ExpiresAt.Time, 0)
	assert.WithinDuration(t, fixed, claims.IssuedAt.Time, 0)
}

func TestVerify_ExpiredAndTamperedLookAlike(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := newManager(t, WithClock(func() time.Time { return past }))
	verifier := newManager(t)

	expired, err := issuer.Issue(1, "a")
	require.NoError(t, err)
	_, expiredErr := verifier.Verify(expired)

	valid, err := verifier.Issue(1, "a")
	require.NoError(t, err)
	tampered := valid[:len(valid)-2] + flip(valid[len(valid)-2:])
	_, tamperedErr := verifier.Verify(tampered)

	require.ErrorIs(t, expiredErr, ErrInvalidToken)
	require.ErrorIs(t, tamperedErr, ErrInvalidToken)
	assert.Equal(t, expiredErr, tamperedErr)
	assert.Equal(t, expiredErr.Error(), tamperedErr.Error())
}

func flip(s string) string {
	if strings.HasPrefix(s, "A") {
		return "B" + s[1:]
	}
	return "A" + s[1:]
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newManager(t).Issue(1, "a")
	require.NoError(t, err)

	other, err := NewTokenManager("a-completely-different-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	m := newManager(t)
	for _, s := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.Verify(s)
		assert.ErrorIs(t, err, ErrInvalidToken, s)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	m := newManager(t)
	claims := &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	m := newManager(t)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_DifferentUsers(t *testing.T) {
	m := newManager(t)
	t1, _ := m.Issue(1, "a")
	t2, _ := m.Issue(2, "b")
	assert.NotEqual(t, t1, t2)

	c1, _ := m.Verify(t1)
	c2, _ := m.Verify(t2)
	assert.Equal(t, int64(1), c1.UserID)
	assert.Equal(t, int64(2), c2.UserID)
}
