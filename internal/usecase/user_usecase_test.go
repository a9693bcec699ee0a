package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		input       domain.RegisterUserInput
		setup       func(*fakeUserRepo)
		wantErr     bool
		errContains string
	}{
		{
			name:  "valid registration",
			input: domain.RegisterUserInput{Email: "ana@example.com", Password: "secret123", FullName: "Ana"},
		},
		{
			name:  "duplicate email",
			input: domain.RegisterUserInput{Email: "taken@example.com", Password: "secret123"},
			setup: func(r *fakeUserRepo) {
				r.users["u1"] = &entity.User{ID: "u1", Email: "taken@example.com"}
			},
			wantErr:     true,
			errContains: "already exists",
		},
		{
			name:        "invalid email",
			input:       domain.RegisterUserInput{Email: "not-an-email", Password: "secret123"},
			wantErr:     true,
			errContains: "invalid email",
		},
		{
			name:        "short password",
			input:       domain.RegisterUserInput{Email: "ana@example.com", Password: "short"},
			wantErr:     true,
			errContains: "at least 8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			if tt.setup != nil {
				tt.setup(repo)
			}
			uc := NewUserUsecase(repo, testLogger())

			user, err := uc.Register(context.Background(), tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if !user.IsActive {
				t.Error("new user should be active")
			}
			if user.PasswordHash == tt.input.Password {
				t.Error("password stored unhashed")
			}
		})
	}
}

func seedUser(repo *fakeUserRepo, email, password string) *entity.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &entity.User{
		ID:           "user-seed",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	repo.users[user.ID] = user
	return user
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "ana@example.com", "secret123")
	uc := NewUserUsecase(repo, testLogger())

	user, err := uc.Authenticate(context.Background(), "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.LastLoginAt == nil {
		t.Error("last login not recorded")
	}

	if _, err := uc.Authenticate(context.Background(), "ana@example.com", "wrong"); !domain.IsInvalidInput(err) {
		t.Errorf("wrong password error = %v, want invalid input", err)
	}
	if _, err := uc.Authenticate(context.Background(), "ghost@example.com", "secret123"); !domain.IsInvalidInput(err) {
		t.Errorf("unknown email error = %v, want invalid input", err)
	}
}

func TestAuthenticateLockout(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(repo, "ana@example.com", "secret123")
	uc := NewUserUsecase(repo, testLogger())

	for i := 0; i < maxFailedLogins; i++ {
		if _, err := uc.Authenticate(context.Background(), "ana@example.com", "wrong"); err == nil {
			t.Fatal("expected failure")
		}
	}
	if user.LockedUntil == nil {
		t.Fatal("account not locked after repeated failures")
	}

	// Correct password is rejected while locked.
	if _, err := uc.Authenticate(context.Background(), "ana@example.com", "secret123"); !domain.IsForbidden(err) {
		t.Errorf("locked account error = %v, want forbidden", err)
	}

	// After the lock expires the counter starts clean.
	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past
	if _, err := uc.Authenticate(context.Background(), "ana@example.com", "secret123"); err != nil {
		t.Fatalf("Authenticate after lock expiry: %v", err)
	}
	if user.FailedLoginCount != 0 || user.LockedUntil != nil {
		t.Error("counters not reset on successful login")
	}
}

func TestUpdateUserPassword(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(repo, "ana@example.com", "secret123")
	uc := NewUserUsecase(repo, testLogger())

	newPassword := "evenmoresecret"
	updated, err := uc.Update(context.Background(), user.ID, domain.UpdateUserInput{Password: &newPassword})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.PasswordChangedAt == nil {
		t.Error("password change not timestamped")
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(newPassword)) != nil {
		t.Error("new password does not verify")
	}

	bad := "short"
	if _, err := uc.Update(context.Background(), user.ID, domain.UpdateUserInput{Password: &bad}); !domain.IsInvalidInput(err) {
		t.Errorf("weak password error = %v, want invalid input", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(repo, "ana@example.com", "secret123")
	uc := NewUserUsecase(repo, testLogger())

	if err := uc.Deactivate(context.Background(), user.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := uc.GetByID(context.Background(), user.ID); !domain.IsNotFound(err) {
		t.Errorf("deactivated user lookup = %v, want not found", err)
	}
	if err := uc.Deactivate(context.Background(), "missing"); !domain.IsNotFound(err) {
		t.Errorf("unknown user error = %v, want not found", err)
	}
}
