package service

import (
	"context"
	"errors"
	"time"

	"userconsole"
	"userconsole/internal/logger"
	"userconsole/internal/session"
)

// UsersAPI is the remote users API as the console sees it.
type UsersAPI interface {
	Login(ctx context.Context, creds userconsole.Credentials) (userconsole.LoginResult, error)
	List(ctx context.Context, token string) ([]userconsole.User, error)
	Get(ctx context.Context, id int, token string) (userconsole.User, error)
	Create(ctx context.Context, in userconsole.UserInput, token string) (userconsole.User, error)
	Update(ctx context.Context, id int, in userconsole.UserInput, token string) (userconsole.User, error)
	Delete(ctx context.Context, id int, token string) (bool, error)
}

var (
	// ErrBusy rejects a second delete or submit while one is in flight.
	ErrBusy = errors.New("another request is already in progress")
	// ErrSignInRequired means the caller must be sent to the sign-in page.
	ErrSignInRequired = errors.New("sign in required")
	// ErrInvalidForm means local validation failed and nothing was sent.
	ErrInvalidForm = errors.New("form has validation errors")
)

// DisplayError is a message meant to be shown to the user as is.
type DisplayError string

func (e DisplayError) Error() string {
	return string(e)
}

const DefaultDeleteErrorTTL = 3 * time.Second

// Options tunes the controllers built by the service.
type Options struct {
	DeleteErrorTTL time.Duration
}

// Service aggregates what the console handlers need.
type Service struct {
	API   UsersAPI
	Store session.Store
	Users *Registry
	Auth  *AuthService

	log *logger.Logger
}

// NewService wires the users API and the session store into the console
// services.
func NewService(api UsersAPI, store session.Store, log *logger.Logger, opts Options) *Service {
	if opts.DeleteErrorTTL <= 0 {
		opts.DeleteErrorTTL = DefaultDeleteErrorTTL
	}
	users := NewRegistry(api, store, log.Component("users"), opts.DeleteErrorTTL)
	return &Service{
		API:   api,
		Store: store,
		Users: users,
		Auth:  NewAuthService(api, store, users, log.Component("auth")),
		log:   log,
	}
}

// Session returns the session view for a browser session id.
func (s *Service) Session(sid string) *session.Session {
	return session.New(s.Store, sid)
}

// NewEditForm seeds an edit form for the browser session sid.
func (s *Service) NewEditForm(sid string, u *userconsole.User) *EditForm {
	return newEditForm(s.API, s.Session(sid), s.Users.Get(sid), u)
}

// NewCreateForm returns a blank create form for the browser session sid.
func (s *Service) NewCreateForm(sid string) *CreateForm {
	return newCreateForm(s.API, s.Session(sid), s.Users.Get(sid))
}

// LoadUser fetches the user shown on the edit page. A missing token, or a
// token the API rejects, yields ErrSignInRequired; any other failure yields a
// nil user so the page can show "not found".
func (s *Service) LoadUser(ctx context.Context, sid string, id int) (*userconsole.User, error) {
	sess := s.Session(sid)
	token, err := sess.Token(ctx)
	if err != nil || token == "" {
		return nil, ErrSignInRequired
	}
	u, err := s.API.Get(ctx, id, token)
	if err != nil {
		if userconsole.IsUnauthorized(err) {
			s.Users.Get(sid).expire(ctx)
			return nil, ErrSignInRequired
		}
		if s.log != nil {
			s.log.Infow("load_user_failed", "user_id", id, "err", err)
		}
		return nil, nil
	}
	return &u, nil
}
