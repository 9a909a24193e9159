package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"userconsole"
	"userconsole/internal/service"
)

var notices = map[string]string{
	"created": "User created successfully.",
	"updated": "User updated successfully.",
}

type usersPage struct {
	Title  string
	Self   userconsole.User
	Filter string
	Total  int
	Users  []userconsole.User
	Empty  string
	Error  string
	Notice string
	Create *service.CreateForm
}

type editPage struct {
	Title string
	ID    int
	Found bool
	Form  *service.EditForm
}

type confirmDeletePage struct {
	Title  string
	User   userconsole.User
	Filter string
}

// userID reads :userId. An unusable id renders the not-found page.
func (h *Handler) userID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("userId"))
	if err != nil || id <= 0 {
		h.notFound(c)
		return 0, false
	}
	return id, true
}

// snapshot returns the controller state, fetching it when nothing was loaded
// yet for this session.
func (h *Handler) snapshot(ctx context.Context, sid string) service.Snapshot {
	d := h.services.Users.Get(sid)
	snap := d.Snapshot()
	if snap.Status == service.StatusIdle {
		snap = d.Refresh(ctx)
	}
	return snap
}

// renderUsers draws the list page from snap without fetching. It redirects
// instead when snap says the session is gone or no longer an admin.
func (h *Handler) renderUsers(c *gin.Context, code int, snap service.Snapshot, filter string, form *service.CreateForm) {
	if snap.AuthError() {
		redirect(c, service.PathSignIn)
		return
	}
	self := currentUser(c)
	if snap.Status == service.StatusReady && snap.Role != userconsole.UserTypeAdmin {
		redirect(c, service.ProfilePath(self.ID))
		return
	}

	sess := h.services.Session(sessionID(c))
	ranked := service.Rank(snap.Users, filter, sess.SelfID(c.Request.Context()))

	c.HTML(code, "users.html", usersPage{
		Title:  "Users",
		Self:   self,
		Filter: filter,
		Total:  len(snap.Users),
		Users:  ranked,
		Empty:  service.EmptyMessage(filter),
		Error:  snap.Error,
		Notice: notices[c.Query("notice")],
		Create: form,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	sid := sessionID(c)
	snap := h.services.Users.Get(sid).Refresh(c.Request.Context())

	var form *service.CreateForm
	if c.Query("create") == "1" {
		form = h.services.NewCreateForm(sid)
	}
	h.renderUsers(c, http.StatusOK, snap, c.Query("q"), form)
}

func (h *Handler) createUser(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	form := h.services.NewCreateForm(sid)
	for _, field := range []string{"name", "email", "password", "type"} {
		form.Set(field, c.PostForm(field))
	}

	_, err := form.Submit(ctx)
	switch {
	case err == nil:
		if h.log != nil {
			h.log.Infow("user_created", "email", form.Email)
		}
		redirect(c, "/users?notice=created")
		return
	case errors.Is(err, service.ErrSignInRequired):
		redirect(c, service.PathSignIn)
		return
	case errors.Is(err, service.ErrBusy):
		form.APIError = err.Error()
	}

	form.Password = ""
	code := http.StatusUnprocessableEntity
	if !errors.Is(err, service.ErrInvalidForm) {
		code = http.StatusBadRequest
	}
	h.renderUsers(c, code, h.snapshot(ctx, sid), c.PostForm("q"), form)
}

func (h *Handler) editUserPage(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	sid := sessionID(c)

	u, err := h.services.LoadUser(c.Request.Context(), sid, id)
	if errors.Is(err, service.ErrSignInRequired) {
		redirect(c, service.PathSignIn)
		return
	}

	page := editPage{Title: "Edit user", ID: id, Found: u != nil, Form: h.services.NewEditForm(sid, u)}
	code := http.StatusOK
	if u == nil {
		code = http.StatusNotFound
	}
	c.HTML(code, "edit.html", page)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	sid := sessionID(c)

	form := h.services.NewEditForm(sid, nil)
	for _, field := range []string{"name", "email", "type", "password"} {
		form.Set(field, c.PostForm(field))
	}

	_, err := form.Submit(c.Request.Context(), id)
	switch {
	case err == nil:
		if h.log != nil {
			h.log.Infow("user_updated", "user_id", id, "password_changed", form.NewPassword != "")
		}
		redirect(c, "/users?notice=updated")
		return
	case errors.Is(err, service.ErrSignInRequired):
		redirect(c, service.PathSignIn)
		return
	case errors.Is(err, service.ErrBusy):
		form.Error = err.Error()
	}

	form.NewPassword = ""
	c.HTML(http.StatusUnprocessableEntity, "edit.html", editPage{Title: "Edit user", ID: id, Found: true, Form: form})
}

func (h *Handler) confirmDelete(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	snap := h.snapshot(c.Request.Context(), sessionID(c))
	if snap.AuthError() {
		redirect(c, service.PathSignIn)
		return
	}

	page := confirmDeletePage{Title: "Delete user", User: userconsole.User{ID: id}, Filter: c.Query("q")}
	for _, u := range snap.Users {
		if u.ID == id {
			page.User = u
			break
		}
	}
	c.HTML(http.StatusOK, "confirm_delete.html", page)
}

// deleteUser answers with the list drawn from local state: a successful
// delete removes the row without fetching the collection again.
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sid := sessionID(c)
	filter := c.PostForm("q")

	confirmed := c.PostForm("confirm") == "yes"

	h.snapshot(ctx, sid)
	d := h.services.Users.Get(sid)
	err := d.Delete(ctx, id, confirmed)
	if errors.Is(err, service.ErrSignInRequired) {
		redirect(c, service.PathSignIn)
		return
	}
	if !confirmed {
		redirect(c, "/users?q="+url.QueryEscape(filter))
		return
	}

	snap := d.Snapshot()
	if errors.Is(err, service.ErrBusy) {
		snap.Error = err.Error()
	}
	if err == nil && h.log != nil {
		h.log.Infow("user_deleted", "user_id", id)
	}
	h.renderUsers(c, http.StatusOK, snap, filter, nil)
}
