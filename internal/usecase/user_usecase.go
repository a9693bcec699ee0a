// Package usecase implements the business logic between the HTTP handlers
// and the repositories. Usecases depend on domain interfaces only, so every
// one of them is testable with in-memory fakes.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// Account lockout: 5 consecutive failures lock the account for 15 minutes.
const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type userUsecase struct {
	userRepo domain.UserRepository
	logger   *slog.Logger
}

// NewUserUsecase creates the account business logic.
func NewUserUsecase(userRepo domain.UserRepository, logger *slog.Logger) domain.UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a new active account.
func (u *userUsecase) Register(ctx context.Context, in domain.RegisterUserInput) (*entity.User, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	existing, err := u.userRepo.GetByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, domain.NewAlreadyExistsError("user", in.Email)
	}
	if err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		IsActive:     true,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Authenticate verifies credentials and maintains the lockout counters.
// Wrong password and unknown email return the same error so the endpoint
// does not leak which addresses exist.
func (u *userUsecase) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewInvalidInputError("invalid email or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	if user.IsLocked(now) {
		return nil, domain.NewForbiddenError("account temporarily locked, try again later")
	}
	if !user.IsActive {
		return nil, domain.NewForbiddenError("account is deactivated")
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		user.FailedLoginCount++
		if user.FailedLoginCount >= maxFailedLogins {
			until := now.Add(lockoutDuration)
			user.LockedUntil = &until
			user.FailedLoginCount = 0
			u.logger.Warn("account locked after repeated failures", "user_id", user.ID)
		}
		if updateErr := u.userRepo.Update(ctx, user); updateErr != nil {
			u.logger.Error("failed to record login failure", "error", updateErr, "user_id", user.ID)
		}
		return nil, domain.NewInvalidInputError("invalid email or password")
	}

	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.logger.Error("failed to record login", "error", err, "user_id", user.ID)
	}

	u.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// GetByID returns a single account.
func (u *userUsecase) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// List returns a page of accounts with the total count.
func (u *userUsecase) List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error) {
	return u.userRepo.List(ctx, offset, limit)
}

// Update changes profile fields. A new password resets password_changed_at.
func (u *userUsecase) Update(ctx context.Context, id string, in domain.UpdateUserInput) (*entity.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		now := time.Now().UTC()
		user.PasswordHash = hash
		user.PasswordChangedAt = &now
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Deactivate soft deletes the account.
func (u *userUsecase) Deactivate(ctx context.Context, id string) error {
	if _, err := u.userRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := u.userRepo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	u.logger.Info("user deactivated", "user_id", id)
	return nil
}

func validateRegisterInput(in domain.RegisterUserInput) error {
	if !emailRegex.MatchString(in.Email) {
		return domain.NewInvalidInputError("invalid email address")
	}
	if len(in.FullName) > 255 {
		return domain.NewInvalidInputError("full name too long (max 255 characters)")
	}
	return validatePassword(in.Password)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return domain.NewInvalidInputError("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return domain.NewInvalidInputError("password too long (max 72 characters)")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
