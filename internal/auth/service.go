package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/contactbook/internal/logger"
	"github.com/abduss/contactbook/internal/metrics"
	"github.com/abduss/contactbook/internal/token"
	"github.com/abduss/contactbook/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenTypeBearer = "bearer"

// tokenService issues and validates bearer tokens.
type tokenService interface {
	Issue(subject uuid.UUID, kind token.Kind) (string, time.Time, error)
	Validate(tokenString string, kind token.Kind) (uuid.UUID, error)
}

// Service encapsulates registration, login and request authentication.
type Service struct {
	credentials *CredentialStore
	tokens      tokenService
	log         *zap.Logger
}

// NewService creates a Service with dependencies.
func NewService(credentials *CredentialStore, tokens tokenService, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		credentials: credentials,
		tokens:      tokens,
		log:         log,
	}
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Register validates the input and creates a new user. No tokens are issued.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Email = strings.TrimSpace(input.Email)

	verr := validation.Struct(input)
	if len(input.Password) > maxPasswordLength {
		verr = validation.Merge(verr, validation.NewError("password", "max",
			fmt.Sprintf("must be at most %d bytes", maxPasswordLength)))
	}
	if verr != nil {
		metrics.ObserveAuth("register", "invalid")
		return User{}, verr
	}

	user, err := s.credentials.Register(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			metrics.ObserveAuth("register", "duplicate")
			return User{}, ErrEmailAlreadyExists
		}
		metrics.ObserveAuth("register", "error")
		return User{}, err
	}

	metrics.ObserveAuth("register", "success")
	logger.FromContext(ctx, s.log).Info("user registered", zap.String("user_id", user.ID.String()))
	return user.SafeUser(), nil
}

// Login authenticates credentials and issues a fresh token pair.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (TokenPair, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" || len(input.Password) > maxPasswordLength {
		metrics.ObserveAuth("login", "invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.credentials.Lookup(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.credentials.burn(input.Password)
			metrics.ObserveAuth("login", "invalid_credentials")
			return TokenPair{}, ErrInvalidCredentials
		}
		metrics.ObserveAuth("login", "error")
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if !s.credentials.Verify(user, input.Password) {
		metrics.ObserveAuth("login", "invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user.ID)
	if err != nil {
		metrics.ObserveAuth("login", "error")
		return TokenPair{}, err
	}

	metrics.ObserveAuth("login", "success")
	logger.FromContext(ctx, s.log).Info("user logged in", zap.String("user_id", user.ID.String()))
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	subject, err := s.tokens.Validate(strings.TrimSpace(refreshToken), token.Refresh)
	if err != nil {
		metrics.ObserveAuth("refresh", "invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.credentials.Resolve(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.ObserveAuth("refresh", "invalid_credentials")
			return TokenPair{}, ErrInvalidCredentials
		}
		metrics.ObserveAuth("refresh", "error")
		return TokenPair{}, fmt.Errorf("resolve user: %w", err)
	}

	pair, err := s.issueTokens(user.ID)
	if err != nil {
		metrics.ObserveAuth("refresh", "error")
		return TokenPair{}, err
	}
	metrics.ObserveAuth("refresh", "success")
	return pair, nil
}

// Authenticate resolves an access token to the stored user it was issued for.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (User, error) {
	if strings.TrimSpace(accessToken) == "" {
		return User{}, ErrUnauthorized
	}

	subject, err := s.tokens.Validate(accessToken, token.Access)
	if err != nil {
		return User{}, ErrUnauthorized
	}

	user, err := s.credentials.Resolve(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, fmt.Errorf("resolve user: %w", err)
	}
	return user.SafeUser(), nil
}

func (s *Service) issueTokens(userID uuid.UUID) (TokenPair, error) {
	accessToken, accessExpiry, err := s.tokens.Issue(userID, token.Access)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, refreshExpiry, err := s.tokens.Issue(userID, token.Refresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:        accessToken,
		AccessTokenExpiry:  accessExpiry,
		RefreshToken:       refreshToken,
		RefreshTokenExpiry: refreshExpiry,
		TokenType:          tokenTypeBearer,
	}, nil
}
