package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"userconsole"
)

var (
	ErrInvalidSession = errors.New("invalid user data, please sign in again")
	ErrCorruptSession = errors.New("failed to load local user data")
	ErrSessionExpired = errors.New("session expired, please sign in again")
)

// AuthState is the outcome of reading a session. Not authenticated with a nil
// Err means nobody signed in; a non-nil Err means a session exists but cannot
// be trusted.
type AuthState struct {
	User          *userconsole.User
	Authenticated bool
	Err           error
}

// now is swapped in tests.
var now = time.Now

// Auth reads the session and classifies it.
func (s *Session) Auth(ctx context.Context) AuthState {
	rec, err := s.store.Read(ctx, s.id)
	if err != nil {
		return AuthState{Err: errors.Join(ErrCorruptSession, err)}
	}
	if rec.UserData == "" {
		return AuthState{}
	}
	u, err := ParseUser(rec.UserData)
	if err != nil {
		return AuthState{Err: err}
	}
	if rec.Token == "" {
		return AuthState{}
	}
	if tokenExpired(rec.Token) {
		return AuthState{Err: ErrSessionExpired}
	}
	return AuthState{User: &u, Authenticated: true}
}

// tokenExpired peeks at the exp claim when the token happens to be a JWT. The
// signature is not checked: the API stays the authority on validity, this only
// spares a round trip for a token that is certainly stale. Opaque tokens are
// never considered expired.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now())
}
