package domain

import (
	"context"
	"errors"
	"time"
)

// Account status values, shared with the wallet module which reads the
// same users table.
const (
	StatusActive    = 1
	StatusSuspended = 2
	StatusBanned    = 3
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// User is a registered player. Balance lives on the same row so the
// wallet's row lock covers both modules.
type User struct {
	UserID       int64     `json:"user_id" gorm:"primaryKey;column:user_id"`
	Username     string    `json:"username" gorm:"column:username;uniqueIndex;size:64;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	Balance      int64     `json:"balance" gorm:"column:balance;not null;default:0"`
	Status       int       `json:"status" gorm:"column:status;not null;default:1"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps User to the users table
func (User) TableName() string {
	return "users"
}

// IsActive reports whether the user may play
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// TokenPair is issued on login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
