package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"userconsole"
)

// recordedRequest is what the fake API saw.
type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestAPI(t *testing.T, status int, respBody string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func asAPIError(t *testing.T, err error) *userconsole.APIError {
	t.Helper()
	var apiErr *userconsole.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	return apiErr
}

func TestLogin_NoAuthHeaderAndDecodes(t *testing.T) {
	srv, rec := newTestAPI(t, http.StatusOK,
		`{"token":"t1","user":{"id":1,"name":"A","email":"a@x.com","type":"admin"}}`)
	c := New(srv.URL + "/")

	res, err := c.Login(context.Background(), userconsole.Credentials{Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/login" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.auth != "" {
		t.Fatalf("login must not send Authorization, got %q", rec.auth)
	}
	if rec.body["email"] != "a@x.com" || rec.body["password"] != "pw" {
		t.Fatalf("unexpected body: %v", rec.body)
	}
	if res.Token != "t1" || res.User.ID != 1 || !res.User.IsAdmin() {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthenticatedCalls_SendBearer(t *testing.T) {
	cases := []struct {
		name       string
		run        func(c *Client) error
		wantMethod string
		wantPath   string
		respBody   string
	}{
		{"list", func(c *Client) error { _, err := c.List(context.Background(), "tok"); return err },
			http.MethodGet, "/users", `[]`},
		{"get", func(c *Client) error { _, err := c.Get(context.Background(), 7, "tok"); return err },
			http.MethodGet, "/users/7", `{"id":7}`},
		{"create", func(c *Client) error {
			_, err := c.Create(context.Background(), userconsole.UserInput{Name: "n", Email: "e@x.io", Password: "p", Type: "regular"}, "tok")
			return err
		}, http.MethodPost, "/users", `{"id":9}`},
		{"update", func(c *Client) error {
			_, err := c.Update(context.Background(), 7, userconsole.UserInput{Name: "n"}, "tok")
			return err
		}, http.MethodPut, "/users/7", `{"id":7}`},
		{"delete", func(c *Client) error { _, err := c.Delete(context.Background(), 7, "tok"); return err },
			http.MethodDelete, "/users/7", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, rec := newTestAPI(t, http.StatusOK, tc.respBody)
			if err := tc.run(New(srv.URL)); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if rec.method != tc.wantMethod || rec.path != tc.wantPath {
				t.Fatalf("got %s %s, want %s %s", rec.method, rec.path, tc.wantMethod, tc.wantPath)
			}
			if rec.auth != "Bearer tok" {
				t.Fatalf("Authorization = %q", rec.auth)
			}
		})
	}
}

func TestUpdate_OmitsBlankPassword(t *testing.T) {
	srv, rec := newTestAPI(t, http.StatusOK, `{"id":3}`)
	c := New(srv.URL)

	_, err := c.Update(context.Background(), 3, userconsole.UserInput{Name: "N", Email: "n@x.io", Type: "regular"}, "tok")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := rec.body["password"]; ok {
		t.Fatalf("password must be omitted, body=%v", rec.body)
	}

	_, err = c.Update(context.Background(), 3, userconsole.UserInput{Name: "N", Email: "n@x.io", Type: "regular", Password: "newpass123"}, "tok")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.body["password"] != "newpass123" {
		t.Fatalf("expected password in body, got %v", rec.body)
	}
}

func TestDelete_ReturnsTrueOnNoContent(t *testing.T) {
	srv, _ := newTestAPI(t, http.StatusNoContent, ``)
	ok, err := New(srv.URL).Delete(context.Background(), 5, "tok")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"server message", http.StatusConflict, `{"message":"email already registered"}`, 409, "email already registered"},
		{"gin error field", http.StatusForbidden, `{"error":"admin only"}`, 403, "admin only"},
		{"no body falls back", http.StatusInternalServerError, ``, 500, "failed to delete user with ID 5"},
		{"non json body falls back", http.StatusBadGateway, `<html>bad gateway</html>`, 502, "failed to delete user with ID 5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestAPI(t, tc.status, tc.body)
			ok, err := New(srv.URL).Delete(context.Background(), 5, "tok")
			if ok {
				t.Fatal("expected ok=false on failure")
			}
			apiErr := asAPIError(t, err)
			if apiErr.Status != tc.wantStatus || apiErr.Message != tc.wantMsg || apiErr.Op != opDelete {
				t.Fatalf("got %+v, want status=%d msg=%q", apiErr, tc.wantStatus, tc.wantMsg)
			}
		})
	}
}

func TestTransportError_UsesTransportMessage(t *testing.T) {
	srv, _ := newTestAPI(t, http.StatusOK, `[]`)
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background(), "tok")
	apiErr := asAPIError(t, err)
	if apiErr.Status != 0 {
		t.Fatalf("expected status 0 for transport error, got %d", apiErr.Status)
	}
	if apiErr.Message == "" || apiErr.Message == "failed to fetch users" {
		t.Fatalf("expected transport-level message, got %q", apiErr.Message)
	}
}

func TestList_UnauthorizedIsDetectable(t *testing.T) {
	srv, _ := newTestAPI(t, http.StatusUnauthorized, `{"message":"invalid or expired token"}`)
	_, err := New(srv.URL).List(context.Background(), "stale")
	if !userconsole.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestDelete_ServerErrorForID401IsNotUnauthorized(t *testing.T) {
	srv, rec := newTestAPI(t, http.StatusInternalServerError, ``)
	_, err := New(srv.URL).Delete(context.Background(), 401, "tok")

	apiErr := asAPIError(t, err)
	if rec.path != "/users/401" || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected call/error: path=%q err=%+v", rec.path, apiErr)
	}
	if userconsole.IsUnauthorized(err) || userconsole.LooksUnauthorized(err) {
		t.Fatalf("a 500 naming user 401 must not read as unauthorized: %v", err)
	}
}

func TestList_NullBodyBecomesEmptySlice(t *testing.T) {
	srv, _ := newTestAPI(t, http.StatusOK, `null`)
	users, err := New(srv.URL).List(context.Background(), "tok")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", users)
	}
}

func TestServerMessage(t *testing.T) {
	cases := map[string]string{
		``:                            "",
		`{}`:                          "",
		`{"message":"m","error":"e"}`: "m",
		`{"error":"e"}`:               "e",
		`not json`:                    "",
	}
	for in, want := range cases {
		if got := serverMessage(strings.NewReader(in)); got != want {
			t.Errorf("serverMessage(%q) = %q, want %q", in, got, want)
		}
	}
}

