package services

import (
	"context"
	"errors"
	"eventbooking/src/models"
	"eventbooking/src/repositories"
	"eventbooking/src/types"
	"eventbooking/src/utils"
	"log"
	"strings"
	"time"
)

type AccountService struct {
	store repositories.Store
	now   func() time.Time
}

func NewAccountService(store repositories.Store) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type ProfileChanges struct {
	FirstName string
	LastName  string
	Email     string
}

// Register creates a regular user and signs them in.
func (s *AccountService) Register(ctx context.Context, r Registration) (*types.AuthResponse, error) {
	email := utils.NormalizeEmail(r.Email)
	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, persistence(err)
	}

	if len(r.Password) > utils.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return nil, persistence(err)
	}
	user := &models.User{
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         types.ROLE_USER,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, persistence(err)
	}
	log.Printf("[accounts] registered user %d\n", user.ID)
	return s.signIn(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, persistence(err)
	}
	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(user)
}

func (s *AccountService) signIn(user *models.User) (*types.AuthResponse, error) {
	token, err := utils.GenerateJWT(user.ID, user.Role, s.now())
	if err != nil {
		return nil, persistence(err)
	}
	return &types.AuthResponse{Token: token, User: user.Public()}, nil
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (*types.APIResponseUser, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	public := user.Public()
	return &public, nil
}

// UpdateProfile changes names and email only; role and password stay as they are.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, changes ProfileChanges) (*types.APIResponseUser, error) {
	var updated *models.User
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		email := utils.NormalizeEmail(changes.Email)
		if email != user.Email {
			other, err := tx.Users().FindByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return ErrEmailInUse
			}
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return persistence(err)
			}
		}
		user.FirstName = strings.TrimSpace(changes.FirstName)
		user.LastName = strings.TrimSpace(changes.LastName)
		user.Email = email
		if err := tx.Users().UpdateProfile(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrEmailInUse
			}
			return notFoundOr(err, ErrUserNotFound)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	public := updated.Public()
	return &public, nil
}
