package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/abduss/contactbook/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes short-lived access tokens from refresh tokens.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

var (
	// ErrInvalidToken covers bad signatures, malformed or expired tokens and kind mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedSubject is returned when the subject is not a user identifier.
	ErrMalformedSubject = errors.New("malformed token subject")
)

// Claims is the JWT payload issued by Manager.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"typ"`
}

// Manager issues and validates HS256 bearer tokens.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

// NewManager creates a Manager from the auth configuration.
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		secret:     []byte(cfg.TokenSecret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		nowFunc:    time.Now,
	}
}

// Issue signs a token of the given kind for subject and returns it with its expiry.
func (m *Manager) Issue(subject uuid.UUID, kind Kind) (string, time.Time, error) {
	ttl, err := m.ttl(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	// NumericDate has second precision; truncate so the returned expiry matches the claim.
	issuedAt := m.nowFunc().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Validate verifies signature, expiry and kind, and returns the subject.
// A token is rejected from the instant its expiry is reached.
func (m *Manager) Validate(tokenString string, kind Kind) (uuid.UUID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.Kind != kind {
		return uuid.Nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrMalformedSubject
	}
	return subject, nil
}

func (m *Manager) ttl(kind Kind) (time.Duration, error) {
	switch kind {
	case Access:
		return m.accessTTL, nil
	case Refresh:
		return m.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
