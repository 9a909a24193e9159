package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"userconsole"
	"userconsole/internal/service"
)

type homePage struct {
	Title string
}

type signInPage struct {
	Title string
	Email string
	Error string
}

func (h *Handler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", homePage{Title: "Users console"})
}

// enter sends the visitor to the page matching the stored session.
func (h *Handler) enter(c *gin.Context) {
	redirect(c, h.services.Auth.Landing(c.Request.Context(), sessionID(c)))
}

func (h *Handler) signInPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signin.html", signInPage{Title: "Sign in"})
}

// signIn logs in under a fresh session id; the previous session is cleared.
func (h *Handler) signIn(c *gin.Context) {
	creds := userconsole.Credentials{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
	}
	page := signInPage{Title: "Sign in", Email: creds.Email}

	if creds.Email == "" || creds.Password == "" {
		page.Error = "Email and password are required."
		c.HTML(http.StatusBadRequest, "signin.html", page)
		return
	}

	ctx := c.Request.Context()
	oldSID := sessionID(c)
	newSID := uuid.NewString()

	landing, err := h.services.Auth.SignIn(ctx, newSID, creds)
	if err != nil {
		var de service.DisplayError
		if !errors.As(err, &de) {
			de = service.DisplayError(err.Error())
		}
		page.Error = de.Error()
		c.HTML(http.StatusUnauthorized, "signin.html", page)
		return
	}

	if err := h.services.Auth.Logout(ctx, oldSID); err != nil && h.log != nil {
		h.log.Errorw("previous_session_clear_failed", "err", err)
	}
	h.setSessionCookie(c, newSID)
	redirect(c, landing)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.services.Auth.Logout(c.Request.Context(), sessionID(c)); err != nil && h.log != nil {
		h.log.Errorw("logout_failed", "err", err)
	}
	redirect(c, service.PathSignIn)
}
