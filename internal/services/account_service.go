package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/validation"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserFields are the optional attributes set at account creation.
type UserFields struct {
	Name string
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=72"`
	Name     string `json:"name" validate:"required,max=255"`
}

// ProfileUpdate is a partial profile change; nil fields are left alone.
type ProfileUpdate struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5,max=72"`
}

// AccountService owns user identity records.
type AccountService struct {
	users    repositories.UserRepository
	validate *validation.Validator
}

// NewAccountService creates a new AccountService.
func NewAccountService(users repositories.UserRepository) *AccountService {
	return &AccountService{
		users:    users,
		validate: validation.New(),
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates a sign-up request and creates a non-privileged user.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, in.Email, in.Password, UserFields{Name: in.Name})
}

// CreateUser stores a new active, non-privileged user with a hashed password.
func (s *AccountService) CreateUser(ctx context.Context, email, password string, extra UserFields) (*models.User, error) {
	return s.create(ctx, email, password, extra, false)
}

// CreateSuperuser is CreateUser with the staff and superuser flags set.
func (s *AccountService) CreateSuperuser(ctx context.Context, email, password string, extra UserFields) (*models.User, error) {
	return s.create(ctx, email, password, extra, true)
}

func (s *AccountService) create(ctx context.Context, email, password string, extra UserFields, privileged bool) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.FieldError("email", "is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.FieldError("email", "user with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:       email,
		Name:        extra.Name,
		Password:    hash,
		IsActive:    true,
		IsStaff:     privileged,
		IsSuperuser: privileged,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A registration racing this one can still hit the unique index.
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info().Uint("user_id", user.ID).Bool("superuser", privileged).Msg("user created")
	return user, nil
}

// EnsureSuperuser creates the superuser unless an account with email already exists.
func (s *AccountService) EnsureSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.CreateSuperuser(ctx, email, password, UserFields{Name: "admin"})
}

// VerifyCredentials returns the active user matching email and password.
// Every failure yields the same InvalidCredentials error.
func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.InvalidCredentials()
	}
	return user, nil
}

// GetUser returns the user by id.
func (s *AccountService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes name and/or password. Email cannot change.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.FieldError("password", "must not exceed 72 bytes")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
