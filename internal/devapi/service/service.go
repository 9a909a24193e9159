// Package service holds the business rules of the reference users API.
package service

import (
	"context"
	"errors"
	"time"

	"userconsole"
	"userconsole/internal/repository"
)

// Domain errors. Handlers map them to HTTP statuses.
var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = repository.ErrDuplicateEmail
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrProtectedUser      = errors.New("this user cannot be deleted")
	ErrInvalidInput       = errors.New("invalid input")
)

type Authorization interface {
	Login(ctx context.Context, email, password string) (userconsole.LoginResult, error)
	ParseToken(accessToken string) (*Claims, error)
}

type Users interface {
	List(ctx context.Context) ([]userconsole.User, error)
	Get(ctx context.Context, id int) (userconsole.User, error)
	Create(ctx context.Context, in userconsole.UserInput) (userconsole.User, error)
	Update(ctx context.Context, id int, in UserPatch) (userconsole.User, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

// Service aggregates the reference API services.
type Service struct {
	Authorization
	Users
}

// TokenConfig signs and bounds access tokens.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

func NewService(repo repository.Users, tokens TokenConfig) *Service {
	return &Service{
		Authorization: NewAuthService(repo, tokens),
		Users:         NewUsersService(repo),
	}
}
