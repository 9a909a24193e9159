package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"userconsole"
	"userconsole/internal/devapi/service"
)

func TestLogin(t *testing.T) {
	auth, users := fixtures()
	auth.loginResult = userconsole.LoginResult{Token: "tok123", User: users.byID[1]}
	r := newTestRouter(&service.Service{Authorization: auth, Users: users})

	w := doJSON(t, r, http.MethodPost, "/login", "", `{"email":"admin@x.com","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d, body=%s", w.Code, w.Body.String())
	}
	var res userconsole.LoginResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Token != "tok123" || res.User.ID != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if auth.lastEmail != "admin@x.com" || auth.lastPassword != "pw" {
		t.Fatalf("credentials not forwarded: %q %q", auth.lastEmail, auth.lastPassword)
	}
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		loginErr error
		code     int
		msg      string
	}{
		{"missing password", `{"email":"a@x.com"}`, nil, http.StatusBadRequest, ""},
		{"bad credentials", `{"email":"a@x.com","password":"no"}`, service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"store failure", `{"email":"a@x.com","password":"pw"}`, errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth, users := fixtures()
			auth.loginErr = tc.loginErr
			r := newTestRouter(&service.Service{Authorization: auth, Users: users})

			w := doJSON(t, r, http.MethodPost, "/login", "", tc.body)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.code, w.Body.String())
			}
			var out errorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Message == "" {
				t.Fatal("expected a message field")
			}
			if tc.msg != "" && out.Message != tc.msg {
				t.Fatalf("message=%q, want %q", out.Message, tc.msg)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	auth, users := fixtures()
	r := newTestRouter(&service.Service{Authorization: auth, Users: users})

	w := doJSON(t, r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["status"] != "ok" || int(m["users"].(float64)) != 2 {
		t.Fatalf("unexpected health body: %v", m)
	}
}
