package domain

import (
	"context"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// UserRepository is the persistence contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error)
}

// RegisterUserInput carries registration fields into the usecase.
type RegisterUserInput struct {
	Email    string
	Password string
	FullName string
}

// UpdateUserInput carries the mutable profile fields. Nil means unchanged.
type UpdateUserInput struct {
	FullName *string
	Password *string
}

// UserUsecase is the account business logic.
type UserUsecase interface {
	Register(ctx context.Context, in RegisterUserInput) (*entity.User, error)
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error)
	Deactivate(ctx context.Context, id string) error
}
