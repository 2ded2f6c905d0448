package token

import (
	"testing"
	"time"

	"github.com/abduss/contactbook/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret:     "secret",
		Issuer:          "contactbook",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func fixedClock(m *Manager, at time.Time) *time.Time {
	now := at
	m.nowFunc = func() time.Time { return now }
	return &now
}

func TestManager_AccessToken_Roundtrip(t *testing.T) {
	m := NewManager(testConfig())
	u := uuid.New()

	access, _, err := m.Issue(u, Access)
	require.NoError(t, err)

	got, err := m.Validate(access, Access)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestManager_ExpiryByKind(t *testing.T) {
	m := NewManager(testConfig())
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(m, start)

	_, accessExp, err := m.Issue(uuid.New(), Access)
	require.NoError(t, err)
	require.Equal(t, start.Add(30*time.Minute), accessExp)

	_, refreshExp, err := m.Issue(uuid.New(), Refresh)
	require.NoError(t, err)
	require.Equal(t, start.Add(7*24*time.Hour), refreshExp)
}

func TestManager_RejectsAtExpiry(t *testing.T) {
	m := NewManager(testConfig())
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := fixedClock(m, start)
	u := uuid.New()

	access, exp, err := m.Issue(u, Access)
	require.NoError(t, err)

	*now = exp.Add(-time.Second)
	_, err = m.Validate(access, Access)
	require.NoError(t, err)

	*now = exp
	_, err = m.Validate(access, Access)
	require.ErrorIs(t, err, ErrInvalidToken)

	*now = exp.Add(time.Hour)
	_, err = m.Validate(access, Access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_KindMismatch(t *testing.T) {
	m := NewManager(testConfig())
	u := uuid.New()

	refresh, _, err := m.Issue(u, Refresh)
	require.NoError(t, err)

	_, err = m.Validate(refresh, Access)
	require.ErrorIs(t, err, ErrInvalidToken)

	got, err := m.Validate(refresh, Refresh)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	other := testConfig()
	other.TokenSecret = "another-secret"
	forged, _, err := NewManager(other).Issue(uuid.New(), Access)
	require.NoError(t, err)

	_, err = NewManager(testConfig()).Validate(forged, Access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsGarbageAndNoneAlg(t *testing.T) {
	m := NewManager(testConfig())

	_, err := m.Validate("not.a.token", Access)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("", Access)
	require.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "contactbook",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: Access,
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(raw, Access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsMissingExpiry(t *testing.T) {
	m := NewManager(testConfig())
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: "contactbook"},
		Kind:             Access,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Validate(raw, Access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_MalformedSubject(t *testing.T) {
	m := NewManager(testConfig())
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "jane@example.com",
			Issuer:    "contactbook",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: Access,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Validate(raw, Access)
	require.ErrorIs(t, err, ErrMalformedSubject)
}

func TestManager_UnknownKind(t *testing.T) {
	m := NewManager(testConfig())
	_, _, err := m.Issue(uuid.New(), Kind("session"))
	require.Error(t, err)
}
