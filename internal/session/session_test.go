package session

import (
	"context"
	"errors"
	"testing"

	"userconsole"
)

func TestWriteAndClear_TokenAndUserTogether(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(store, "sid-1")

	u := userconsole.User{ID: 4, Name: "Ana", Email: "ana@x.com", Type: userconsole.UserTypeRegular}
	if err := s.Write(ctx, "tok", u); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rec, _ := store.Read(ctx, "sid-1")
	if rec.Token != "tok" || rec.UserData == "" {
		t.Fatalf("expected both values stored, got %+v", rec)
	}
	got, ok := s.User(ctx)
	if !ok || got != u {
		t.Fatalf("User() = %+v, %v; want %+v", got, ok, u)
	}
	if s.SelfID(ctx) != 4 || s.Role(ctx) != userconsole.UserTypeRegular {
		t.Fatalf("unexpected SelfID/Role: %d %q", s.SelfID(ctx), s.Role(ctx))
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	rec, _ = store.Read(ctx, "sid-1")
	if rec != (Record{}) {
		t.Fatalf("expected empty record after Clear, got %+v", rec)
	}
}

func TestWrite_RejectsEmptyToken(t *testing.T) {
	s := New(NewMemoryStore(), "sid")
	err := s.Write(context.Background(), "", userconsole.User{ID: 1, Name: "A", Email: "a@x.com"})
	if !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, b := New(store, "a"), New(store, "b")
	_ = a.Write(ctx, "ta", userconsole.User{ID: 1, Name: "A", Email: "a@x.com"})

	if tok, _ := b.Token(ctx); tok != "" {
		t.Fatalf("session b sees token %q", tok)
	}
	if tok, _ := a.Token(ctx); tok != "ta" {
		t.Fatalf("session a token = %q", tok)
	}
}

func TestParseUser(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantID  int
		wantErr error
	}{
		{"numeric id", `{"id":3,"name":"A","email":"a@x.com","type":"admin"}`, 3, nil},
		{"string id", `{"id":"12","name":"A","email":"a@x.com"}`, 12, nil},
		{"missing email", `{"id":1,"name":"A"}`, 0, ErrInvalidSession},
		{"blank name", `{"id":1,"name":"  ","email":"a@x.com"}`, 0, ErrInvalidSession},
		{"zero id", `{"id":0,"name":"A","email":"a@x.com"}`, 0, ErrInvalidSession},
		{"fractional id", `{"id":1.5,"name":"A","email":"a@x.com"}`, 0, ErrInvalidSession},
		{"null", `null`, 0, ErrInvalidSession},
		{"not an object", `"admin"`, 0, ErrCorruptSession},
		{"broken json", `{"id":`, 0, ErrCorruptSession},
		{"non numeric id", `{"id":"abc","name":"A","email":"a@x.com"}`, 0, ErrCorruptSession},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := ParseUser(tc.raw)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ParseUser(%s) err = %v, want %v", tc.raw, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUser(%s): %v", tc.raw, err)
			}
			if u.ID != tc.wantID {
				t.Fatalf("id = %d, want %d", u.ID, tc.wantID)
			}
		})
	}
}
