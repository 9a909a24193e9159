package service

import (
	"context"
	"strconv"
	"strings"

	"userconsole"
	"userconsole/internal/logger"
	"userconsole/internal/session"
)

const (
	PathSignIn = "/signin"
	PathUsers  = "/users"

	invalidCredentialsMessage = "Invalid credentials. Please try again."
	loginFailedMessage        = "An error occurred during login. Please try again."
)

// AuthService signs browser sessions in and out.
type AuthService struct {
	api   UsersAPI
	store session.Store
	users *Registry
	log   *logger.Logger
}

func NewAuthService(api UsersAPI, store session.Store, users *Registry, log *logger.Logger) *AuthService {
	return &AuthService{api: api, store: store, users: users, log: log}
}

// ProfilePath is the self-service page of user id.
func ProfilePath(id int) string {
	return "/profile/" + strconv.Itoa(id)
}

// LandingPath is where a signed-in user goes first.
func LandingPath(u userconsole.User) string {
	if u.IsAdmin() {
		return PathUsers
	}
	return ProfilePath(u.ID)
}

// SignIn logs in against the API and stores token and user for sid. It
// returns the landing path, or a DisplayError to show on the sign-in page.
func (s *AuthService) SignIn(ctx context.Context, sid string, creds userconsole.Credentials) (string, error) {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		if s.log != nil {
			s.log.Infow("sign_in_failed", "email", creds.Email, "err", err)
		}
		return "", DisplayError(signInMessage(err))
	}

	if err := session.New(s.store, sid).Write(ctx, res.Token, res.User); err != nil {
		if s.log != nil {
			s.log.Errorw("session_write_failed", "err", err)
		}
		return "", DisplayError(loginFailedMessage)
	}
	s.users.Drop(sid)

	if s.log != nil {
		s.log.Infow("signed_in", "user_id", res.User.ID, "type", res.User.Type)
	}
	return LandingPath(res.User), nil
}

func signInMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return loginFailedMessage
	}
	lower := strings.ToLower(msg)
	for _, hint := range []string{"invalid credentials", "unauthorized", "incorrect"} {
		if strings.Contains(lower, hint) {
			return invalidCredentialsMessage
		}
	}
	return msg
}

// Landing picks the destination of the "enter" action: the role-based
// landing page when a token and a readable user are stored, else sign-in.
func (s *AuthService) Landing(ctx context.Context, sid string) string {
	sess := session.New(s.store, sid)
	token, err := sess.Token(ctx)
	if err != nil || token == "" {
		return PathSignIn
	}
	u, ok := sess.User(ctx)
	if !ok {
		return PathSignIn
	}
	return LandingPath(u)
}

// Logout clears the session and drops its controller.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	s.users.Drop(sid)
	if err := session.New(s.store, sid).Clear(ctx); err != nil {
		if s.log != nil {
			s.log.Errorw("session_clear_failed", "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Infow("signed_out")
	}
	return nil
}
