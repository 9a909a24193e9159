package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"userconsole"
	"userconsole/internal/service"
	"userconsole/internal/session"
)

// ---- Users API mock ----

type mockAPI struct {
	mu sync.Mutex

	loginRes  userconsole.LoginResult
	loginErr  error
	users     []userconsole.User
	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	lastCreate userconsole.UserInput
	lastUpdate userconsole.UserInput
	calls      []string
}

func (m *mockAPI) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

func (m *mockAPI) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *mockAPI) Login(_ context.Context, _ userconsole.Credentials) (userconsole.LoginResult, error) {
	m.record("login")
	return m.loginRes, m.loginErr
}

func (m *mockAPI) List(_ context.Context, _ string) ([]userconsole.User, error) {
	m.record("list")
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]userconsole.User(nil), m.users...), m.listErr
}

func (m *mockAPI) Get(_ context.Context, id int, _ string) (userconsole.User, error) {
	m.record("get")
	if m.getErr != nil {
		return userconsole.User{}, m.getErr
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return userconsole.User{}, &userconsole.APIError{Op: "get", Status: http.StatusNotFound, Message: "user not found"}
}

func (m *mockAPI) Create(_ context.Context, in userconsole.UserInput, _ string) (userconsole.User, error) {
	m.record("create")
	m.lastCreate = in
	return userconsole.User{ID: 99, Name: in.Name, Email: in.Email, Type: in.Type}, m.createErr
}

func (m *mockAPI) Update(_ context.Context, id int, in userconsole.UserInput, _ string) (userconsole.User, error) {
	m.record("update")
	m.lastUpdate = in
	return userconsole.User{ID: id, Name: in.Name, Email: in.Email, Type: in.Type}, m.updateErr
}

func (m *mockAPI) Delete(_ context.Context, _ int, _ string) (bool, error) {
	m.record("delete")
	return m.deleteErr == nil, m.deleteErr
}

// ---- Fixtures ----

const testSID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

var (
	rootAdmin = userconsole.User{ID: 1, Name: "admin", Email: "admin@x.com", Type: userconsole.UserTypeAdmin}
	bea       = userconsole.User{ID: 5, Name: "Bea", Email: "bea@x.com", Type: userconsole.UserTypeRegular}
	cid       = userconsole.User{ID: 7, Name: "Cid", Email: "cid@x.com", Type: userconsole.UserTypeAdmin}
)

type testConsole struct {
	router *gin.Engine
	svc    *service.Service
	store  *session.MemoryStore
}

func newTestConsole(t *testing.T, api *mockAPI) *testConsole {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewMemoryStore()
	svc := service.NewService(api, store, nil, service.Options{})
	h, err := NewHandler(svc, nil, Options{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return &testConsole{router: h.InitRoutes(), svc: svc, store: store}
}

func (tc *testConsole) signIn(t *testing.T, u userconsole.User) {
	t.Helper()
	if err := session.New(tc.store, testSID).Write(context.Background(), "tok", u); err != nil {
		t.Fatalf("write session: %v", err)
	}
}

func (tc *testConsole) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: defaultCookieName, Value: testSID})

	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)
	return w
}

func newRecorderFor(tc *testConsole, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)
	return w
}

func (tc *testConsole) record(t *testing.T) session.Record {
	t.Helper()
	rec, err := tc.store.Read(context.Background(), testSID)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	return rec
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if w.Code != http.StatusSeeOther && w.Code != http.StatusFound {
		t.Fatalf("status: got %d, want a redirect (body=%s)", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != want {
		t.Fatalf("Location: got %q, want %q", got, want)
	}
}

func assertBodyContains(t *testing.T, w *httptest.ResponseRecorder, parts ...string) {
	t.Helper()
	body := w.Body.String()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Fatalf("body does not contain %q:\n%s", p, body)
		}
	}
}
