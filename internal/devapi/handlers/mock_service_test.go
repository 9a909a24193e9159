package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"userconsole"
	"userconsole/internal/devapi/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	loginResult userconsole.LoginResult
	loginErr    error
	tokens      map[string]int // token -> user id

	lastEmail    string
	lastPassword string
}

func (m *mockAuth) Login(_ context.Context, email, password string) (userconsole.LoginResult, error) {
	m.lastEmail = email
	m.lastPassword = password
	return m.loginResult, m.loginErr
}

func (m *mockAuth) ParseToken(token string) (*service.Claims, error) {
	id, ok := m.tokens[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return &service.Claims{UserID: id}, nil
}

type mockUsers struct {
	byID map[int]userconsole.User

	createErr error
	updateErr error
	deleteErr error

	lastCreate userconsole.UserInput
	lastPatch  service.UserPatch
	deleted    []int
}

func (m *mockUsers) List(context.Context) ([]userconsole.User, error) {
	out := make([]userconsole.User, 0, len(m.byID))
	for id := 1; len(out) < len(m.byID); id++ {
		if u, ok := m.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUsers) Get(_ context.Context, id int) (userconsole.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return userconsole.User{}, service.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) Create(_ context.Context, in userconsole.UserInput) (userconsole.User, error) {
	m.lastCreate = in
	if m.createErr != nil {
		return userconsole.User{}, m.createErr
	}
	u := userconsole.User{ID: 100, Name: in.Name, Email: in.Email, Type: in.Type}
	return u, nil
}

func (m *mockUsers) Update(_ context.Context, id int, p service.UserPatch) (userconsole.User, error) {
	m.lastPatch = p
	if m.updateErr != nil {
		return userconsole.User{}, m.updateErr
	}
	u, ok := m.byID[id]
	if !ok {
		return userconsole.User{}, service.ErrNotFound
	}
	if p.Name != "" {
		u.Name = p.Name
	}
	return u, nil
}

func (m *mockUsers) Delete(_ context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUsers) Count(context.Context) (int, error) {
	return len(m.byID), nil
}

func (m *mockUsers) EnsureAdmin(context.Context, string, string, string) (bool, error) {
	return false, nil
}

// ---- Shared Test Helpers ----

const (
	adminToken   = "admin-token"
	regularToken = "regular-token"
)

func fixtures() (*mockAuth, *mockUsers) {
	auth := &mockAuth{tokens: map[string]int{adminToken: 1, regularToken: 5}}
	users := &mockUsers{byID: map[int]userconsole.User{
		1: {ID: 1, Name: "admin", Email: "admin@x.com", Type: userconsole.UserTypeAdmin},
		5: {ID: 5, Name: "Bea", Email: "bea@x.com", Type: userconsole.UserTypeRegular},
	}}
	return auth, users
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func doJSON(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
