package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"userconsole"
	"userconsole/internal/session"
)

// fakeAPI is a hand-written UsersAPI. Nil funcs fail the call with a 500.
type fakeAPI struct {
	mu sync.Mutex

	LoginFn  func(userconsole.Credentials) (userconsole.LoginResult, error)
	ListFn   func(token string) ([]userconsole.User, error)
	GetFn    func(id int, token string) (userconsole.User, error)
	CreateFn func(in userconsole.UserInput, token string) (userconsole.User, error)
	UpdateFn func(id int, in userconsole.UserInput, token string) (userconsole.User, error)
	DeleteFn func(id int, token string) (bool, error)

	calls []string
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func serverError(op string) error {
	return &userconsole.APIError{Op: op, Status: http.StatusInternalServerError, Message: "boom"}
}

func (f *fakeAPI) Login(_ context.Context, c userconsole.Credentials) (userconsole.LoginResult, error) {
	f.record("login")
	if f.LoginFn == nil {
		return userconsole.LoginResult{}, serverError("login")
	}
	return f.LoginFn(c)
}

func (f *fakeAPI) List(_ context.Context, token string) ([]userconsole.User, error) {
	f.record("list")
	if f.ListFn == nil {
		return nil, serverError("list")
	}
	return f.ListFn(token)
}

func (f *fakeAPI) Get(_ context.Context, id int, token string) (userconsole.User, error) {
	f.record("get")
	if f.GetFn == nil {
		return userconsole.User{}, serverError("get")
	}
	return f.GetFn(id, token)
}

func (f *fakeAPI) Create(_ context.Context, in userconsole.UserInput, token string) (userconsole.User, error) {
	f.record("create")
	if f.CreateFn == nil {
		return userconsole.User{}, serverError("create")
	}
	return f.CreateFn(in, token)
}

func (f *fakeAPI) Update(_ context.Context, id int, in userconsole.UserInput, token string) (userconsole.User, error) {
	f.record("update")
	if f.UpdateFn == nil {
		return userconsole.User{}, serverError("update")
	}
	return f.UpdateFn(id, in, token)
}

func (f *fakeAPI) Delete(_ context.Context, id int, token string) (bool, error) {
	f.record("delete")
	if f.DeleteFn == nil {
		return false, serverError("delete")
	}
	return f.DeleteFn(id, token)
}

var (
	adminUser = userconsole.User{ID: 1, Name: "admin", Email: "admin@x.com", Type: userconsole.UserTypeAdmin}
	bea       = userconsole.User{ID: 5, Name: "Bea", Email: "bea@x.com", Type: userconsole.UserTypeRegular}
	cid       = userconsole.User{ID: 7, Name: "Cid", Email: "cid@x.com", Type: userconsole.UserTypeAdmin}
)

const testSID = "sid-1"

// newTestService returns a service over a memory store, signed in as user
// when token is non-empty.
func newTestService(t *testing.T, api *fakeAPI, token string, user userconsole.User) (*Service, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	if token != "" {
		require.NoError(t, session.New(store, testSID).Write(context.Background(), token, user))
	}
	return NewService(api, store, nil, Options{DeleteErrorTTL: 3 * time.Second}), store
}

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
