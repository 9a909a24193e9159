package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"userconsole"
	"userconsole/internal/logger"
	"userconsole/internal/session"
)

// Status is the lifecycle state of a UsersData controller.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusAuthError
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusAuthError:
		return "auth_error"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot is a copy of the controller state safe to hand to a view.
type Snapshot struct {
	Status Status
	Users  []userconsole.User
	Role   userconsole.UserType
	Error  string
}

// AuthError reports whether the view must send the user to sign in.
func (s Snapshot) AuthError() bool {
	return s.Status == StatusAuthError
}

// UsersData shadows the remote user collection for one browser session.
type UsersData struct {
	api    UsersAPI
	sess   *session.Session
	log    *logger.Logger
	errTTL time.Duration
	now    func() time.Time

	mu       sync.Mutex
	status   Status
	users    []userconsole.User
	role     userconsole.UserType
	errMsg   string
	errUntil time.Time // zero keeps errMsg until the next change
	closed   bool
	lastUsed time.Time

	deleting   atomic.Bool
	creating   atomic.Bool
	submitting atomic.Bool
}

func newUsersData(api UsersAPI, sess *session.Session, log *logger.Logger, errTTL time.Duration, now func() time.Time) *UsersData {
	return &UsersData{
		api:      api,
		sess:     sess,
		log:      log,
		errTTL:   errTTL,
		now:      now,
		lastUsed: now(),
	}
}

// apply runs fn under the lock unless the controller has been closed, in which
// case the late result is dropped.
func (d *UsersData) apply(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.lastUsed = d.now()
	fn()
	return true
}

// Snapshot returns the current state. An expired delete error is dropped.
func (d *UsersData) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.errUntil.IsZero() && !d.now().Before(d.errUntil) {
		d.errMsg = ""
		d.errUntil = time.Time{}
	}
	return Snapshot{
		Status: d.status,
		Users:  slices.Clone(d.users),
		Role:   d.role,
		Error:  d.errMsg,
	}
}

// Refresh fetches the collection. A failed fetch keeps the previous users. A
// delete error still inside its display window survives the refetch.
func (d *UsersData) Refresh(ctx context.Context) Snapshot {
	d.apply(func() {
		d.status = StatusLoading
		if d.errUntil.IsZero() || !d.now().Before(d.errUntil) {
			d.errMsg, d.errUntil = "", time.Time{}
		}
	})

	token, err := d.sess.Token(ctx)
	if err != nil {
		d.fail(err.Error())
		return d.Snapshot()
	}
	if token == "" {
		d.apply(func() { d.status = StatusAuthError })
		return d.Snapshot()
	}

	users, err := d.api.List(ctx, token)
	if err != nil {
		if userconsole.LooksUnauthorized(err) {
			d.expire(ctx)
			return d.Snapshot()
		}
		msg := err.Error()
		if msg == "" {
			msg = "Failed to load users."
		}
		d.fail(msg)
		return d.Snapshot()
	}

	role := d.sess.Role(ctx)
	d.apply(func() {
		d.users = users
		d.role = role
		d.status = StatusReady
	})
	return d.Snapshot()
}

func (d *UsersData) fail(msg string) {
	d.apply(func() {
		d.status = StatusError
		d.errMsg, d.errUntil = msg, time.Time{}
	})
}

// expire handles a token the API rejected: the session is cleared and the
// controller moves to AuthError. Nothing happens once the controller is
// closed.
func (d *UsersData) expire(ctx context.Context) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	if err := d.sess.Clear(ctx); err != nil && d.log != nil {
		d.log.Errorw("session_clear_failed", "err", err)
	} else if d.log != nil {
		d.log.Infow("session_cleared", "reason", "unauthorized")
	}
	d.apply(func() { d.status = StatusAuthError })
}

// Delete removes user id once the caller confirmed it. On success the user is
// dropped from the local collection without a refetch. Non-auth failures are
// recorded as an error that expires after the configured window.
func (d *UsersData) Delete(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return nil
	}
	if !d.deleting.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer d.deleting.Store(false)

	token, err := d.sess.Token(ctx)
	if err != nil {
		return d.deleteFailed(fmt.Sprintf("Failed to delete user with ID %d: %s", id, err))
	}
	if token == "" {
		d.apply(func() { d.status = StatusAuthError })
		return ErrSignInRequired
	}

	_, err = d.api.Delete(ctx, id, token)
	switch {
	case err == nil:
		d.apply(func() {
			d.users = slices.DeleteFunc(d.users, func(u userconsole.User) bool { return u.ID == id })
			d.errMsg, d.errUntil = "", time.Time{}
		})
		return nil
	case userconsole.IsForbidden(err):
		return d.deleteFailed(fmt.Sprintf("You do not have permission to delete user with ID %d.", id))
	case userconsole.IsUnauthorized(err):
		d.expire(ctx)
		return ErrSignInRequired
	}

	if d.log != nil {
		d.log.Infow("delete_user_failed", "user_id", id, "err", err)
	}
	if status := userconsole.StatusOf(err); status != 0 {
		return d.deleteFailed(fmt.Sprintf("Error %d while deleting user with ID %d: %s", status, id, err))
	}
	return d.deleteFailed(fmt.Sprintf("Failed to delete user with ID %d: %s", id, err))
}

func (d *UsersData) deleteFailed(msg string) error {
	d.apply(func() {
		d.errMsg = msg
		d.errUntil = d.now().Add(d.errTTL)
	})
	return DisplayError(msg)
}

// Close tears the controller down. Results of calls still in flight are
// ignored afterwards.
func (d *UsersData) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Closed reports whether Close was called.
func (d *UsersData) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *UsersData) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastUsed
}
