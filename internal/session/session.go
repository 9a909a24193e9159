// Package session holds what a browser session knows about its signed-in
// user: the bearer token and a cached user snapshot. Values are always read
// fresh from the Store; another request or a logout may have changed them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"userconsole"
)

// Record is what one browser session persists. UserData is the JSON-encoded
// user snapshot, kept as text so a corrupt value stays observable.
type Record struct {
	Token    string
	UserData string
}

// Store persists session records keyed by browser session id. Write and
// Clear act on the token and the user together.
type Store interface {
	Init(ctx context.Context) error
	Read(ctx context.Context, sid string) (Record, error)
	Write(ctx context.Context, sid string, rec Record) error
	Clear(ctx context.Context, sid string) error
}

var ErrEmptyToken = errors.New("session token is empty")

// Session is the view of a Store for one browser session.
type Session struct {
	store Store
	id    string
}

// New binds store to the browser session sid.
func New(store Store, sid string) *Session {
	return &Session{store: store, id: sid}
}

// ID returns the browser session id.
func (s *Session) ID() string {
	return s.id
}

// Token returns the stored bearer token, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	rec, err := s.store.Read(ctx, s.id)
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", s.id, err)
	}
	return rec.Token, nil
}

// RawUser returns the stored user snapshot as text.
func (s *Session) RawUser(ctx context.Context) (string, error) {
	rec, err := s.store.Read(ctx, s.id)
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", s.id, err)
	}
	return rec.UserData, nil
}

// Write stores token and user as one record.
func (s *Session) Write(ctx context.Context, token string, u userconsole.User) error {
	if token == "" {
		return ErrEmptyToken
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := s.store.Write(ctx, s.id, Record{Token: token, UserData: string(b)}); err != nil {
		return fmt.Errorf("write session %s: %w", s.id, err)
	}
	return nil
}

// Clear drops both the token and the cached user.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx, s.id); err != nil {
		return fmt.Errorf("clear session %s: %w", s.id, err)
	}
	return nil
}

// User returns the cached user when it is well formed.
func (s *Session) User(ctx context.Context) (userconsole.User, bool) {
	raw, err := s.RawUser(ctx)
	if err != nil || raw == "" {
		return userconsole.User{}, false
	}
	u, err := ParseUser(raw)
	if err != nil {
		return userconsole.User{}, false
	}
	return u, true
}

// SelfID returns the cached user's id, or 0 when absent or malformed.
func (s *Session) SelfID(ctx context.Context) int {
	u, ok := s.User(ctx)
	if !ok {
		return 0
	}
	return u.ID
}

// Role returns the cached user's type, or "" when absent or malformed.
func (s *Session) Role(ctx context.Context) userconsole.UserType {
	u, ok := s.User(ctx)
	if !ok {
		return ""
	}
	return u.Type
}

// storedUser accepts the id as a JSON number or a numeric string.
type storedUser struct {
	ID    json.Number          `json:"id"`
	Name  string               `json:"name"`
	Email string               `json:"email"`
	Type  userconsole.UserType `json:"type"`
}

// ParseUser decodes a cached user snapshot. It fails with ErrCorruptSession
// when raw is not a JSON object of the expected shape and with
// ErrInvalidSession when id, name or email is missing.
func ParseUser(raw string) (userconsole.User, error) {
	var su *storedUser
	if err := json.Unmarshal([]byte(raw), &su); err != nil {
		return userconsole.User{}, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if su == nil || su.ID == "" || strings.TrimSpace(su.Name) == "" || strings.TrimSpace(su.Email) == "" {
		return userconsole.User{}, ErrInvalidSession
	}
	id, err := strconv.Atoi(su.ID.String())
	if err != nil || id == 0 {
		return userconsole.User{}, ErrInvalidSession
	}
	return userconsole.User{ID: id, Name: su.Name, Email: su.Email, Type: su.Type}, nil
}
