package entity

import "time"

// User is the account entity. Domain layer, no serialization concerns.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	FullName          string
	IsActive          bool
	IsSuperuser       bool
	LastLoginAt       *time.Time
	FailedLoginCount  int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// IsDeleted reports whether the user has been soft deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// IsLocked reports whether the account is currently locked out.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
