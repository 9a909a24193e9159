package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"userconsole"
	"userconsole/internal/repository"
)

// UserPatch is the body of an update. Empty fields keep the stored value.
type UserPatch struct {
	Name     string
	Email    string
	Password string
	Type     userconsole.UserType
}

// UsersService implements account CRUD on top of the users repository.
type UsersService struct {
	repo repository.Users
}

func NewUsersService(repo repository.Users) *UsersService {
	return &UsersService{repo: repo}
}

func validType(t userconsole.UserType) bool {
	return t == userconsole.UserTypeRegular || t == userconsole.UserTypeAdmin
}

func (s *UsersService) List(ctx context.Context) ([]userconsole.User, error) {
	return s.repo.List(ctx)
}

func (s *UsersService) Get(ctx context.Context, id int) (userconsole.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return userconsole.User{}, err
	}
	if u == nil {
		return userconsole.User{}, ErrNotFound
	}
	return u.User, nil
}

// Create stores a new account. The type defaults to regular.
func (s *UsersService) Create(ctx context.Context, in userconsole.UserInput) (userconsole.User, error) {
	u := userconsole.User{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Type:  in.Type,
	}
	if u.Type == "" {
		u.Type = userconsole.UserTypeRegular
	}
	if u.Name == "" || u.Email == "" || !validType(u.Type) {
		return userconsole.User{}, ErrInvalidInput
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return userconsole.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	id, err := s.repo.Create(ctx, u, hash)
	if err != nil {
		return userconsole.User{}, err
	}
	u.ID = id
	return u, nil
}

// Update applies in to user id. The password changes only when given.
func (s *UsersService) Update(ctx context.Context, id int, in UserPatch) (userconsole.User, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return userconsole.User{}, err
	}
	if cur == nil {
		return userconsole.User{}, ErrNotFound
	}

	ch := repository.UserChanges{Name: cur.Name, Email: cur.Email, Type: cur.Type}
	if v := strings.TrimSpace(in.Name); v != "" {
		ch.Name = v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		ch.Email = v
	}
	if in.Type != "" {
		if !validType(in.Type) {
			return userconsole.User{}, ErrInvalidInput
		}
		ch.Type = in.Type
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return userconsole.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		ch.PasswordHash = &hash
	}

	ok, err := s.repo.Update(ctx, id, ch)
	if err != nil {
		return userconsole.User{}, err
	}
	if !ok {
		return userconsole.User{}, ErrNotFound
	}
	return userconsole.User{ID: id, Name: ch.Name, Email: ch.Email, Type: ch.Type}, nil
}

// Delete removes user id. The primary admin cannot be deleted.
func (s *UsersService) Delete(ctx context.Context, id int) error {
	if id == userconsole.PrimaryAdminID {
		return ErrProtectedUser
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *UsersService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// EnsureAdmin creates the seed admin unless an account with that email
// exists. It reports whether an account was created.
func (s *UsersService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = s.Create(ctx, userconsole.UserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Type:     userconsole.UserTypeAdmin,
	})
	if err != nil && !errors.Is(err, ErrDuplicateEmail) {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return err == nil, nil
}
