package repository

import (
	"context"
	"errors"

	"userconsole"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
)

// StoredUser is a users row including its password hash.
type StoredUser struct {
	userconsole.User
	PasswordHash string
}

// UserChanges is a full replacement of the editable columns. A nil
// PasswordHash keeps the current hash.
type UserChanges struct {
	Name         string
	Email        string
	Type         userconsole.UserType
	PasswordHash *string
}

// Users persists accounts for the reference users API.
type Users interface {
	Create(ctx context.Context, u userconsole.User, passwordHash string) (int, error)
	GetByID(ctx context.Context, id int) (*StoredUser, error)
	GetByEmail(ctx context.Context, email string) (*StoredUser, error)
	List(ctx context.Context) ([]userconsole.User, error)
	Update(ctx context.Context, id int, ch UserChanges) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int, error)
}
