package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/sebeiconnect/marketplace/internal/auth"
	"github.com/sebeiconnect/marketplace/internal/logger"
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*User, string, error)
	Login(ctx context.Context, phone, password string) (*User, string, error)
	Profile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error)
}

type Store interface {
	Create(ctx context.Context, in RegisterInput, passwordHash string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
}

type service struct {
	store  Store
	tokens *auth.Manager
	log    logger.Logger
}

func NewService(store Store, tokens *auth.Manager, log logger.Logger) Service {
	return &service{store: store, tokens: tokens, log: log}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	// USSD-only farmers register without a password and cannot log in over HTTP.
	var hash string
	if in.Password != "" {
		var err error
		hash, err = auth.HashPassword(in.Password)
		if err != nil {
			return nil, "", fmt.Errorf("hash password: %w", err)
		}
	}

	u, err := s.store.Create(ctx, in, hash)
	if err != nil {
		if !errors.Is(err, ErrPhoneTaken) {
			s.log.Errorf("register %s: %v", in.PhoneNumber, err)
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID, u.UserType)
	if err != nil {
		return nil, "", err
	}
	s.log.Infof("user %s registered as %s", u.ID, u.UserType)
	return u, token, nil
}

func (s *service) Login(ctx context.Context, phone, password string) (*User, string, error) {
	u, err := s.store.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !u.IsActive {
		return nil, "", ErrInactive
	}
	if !u.IsVerified {
		return nil, "", ErrNotVerified
	}
	if u.PasswordHash == "" || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.UserType)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.store.GetByID(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	return s.store.UpdateProfile(ctx, userID, upd)
}
