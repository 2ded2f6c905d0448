package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
}

// CredentialStore owns user identities and their password hashes.
type CredentialStore struct {
	users     userStore
	hasher    PasswordHasher
	dummyHash string
}

// NewCredentialStore wires a store to a hashing algorithm.
func NewCredentialStore(users userStore, hasher PasswordHasher) (*CredentialStore, error) {
	// Compared against on unknown emails so both login failures cost the same.
	dummy, err := hasher.Hash("contactbook-unknown-user")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialStore{users: users, hasher: hasher, dummyHash: dummy}, nil
}

// Register hashes plaintext and persists a new user for email.
func (s *CredentialStore) Register(ctx context.Context, email, plaintext string) (User, error) {
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return User{}, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	// The store still reports ErrEmailAlreadyExists when a concurrent registration wins.
	user, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Verify reports whether plaintext is the password of user.
func (s *CredentialStore) Verify(user User, plaintext string) bool {
	return s.hasher.Compare(user.PasswordHash, plaintext)
}

// Lookup finds a user by email.
func (s *CredentialStore) Lookup(ctx context.Context, email string) (User, error) {
	return s.users.FindUserByEmail(ctx, email)
}

// Resolve finds a user by identifier.
func (s *CredentialStore) Resolve(ctx context.Context, id uuid.UUID) (User, error) {
	return s.users.FindUserByID(ctx, id)
}

func (s *CredentialStore) burn(plaintext string) {
	_ = s.hasher.Compare(s.dummyHash, plaintext)
}
