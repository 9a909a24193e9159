package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"userconsole"
	"userconsole/internal/metrics"
	"userconsole/internal/service"
)

const (
	ctxSessionID = "sessionId"
	ctxUser      = "user"
)

// sessionMiddleware makes sure every browser carries a session id cookie.
// Anything that is not a UUID is replaced.
func (h *Handler) sessionMiddleware(c *gin.Context) {
	sid, err := c.Cookie(h.opts.CookieName)
	if err != nil || uuid.Validate(sid) != nil {
		sid = uuid.NewString()
		h.setSessionCookie(c, sid)
	}
	c.Set(ctxSessionID, sid)
	c.Next()
}

func (h *Handler) setSessionCookie(c *gin.Context, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, sid, int(h.opts.CookieMaxAge.Seconds()), "/", "", h.opts.CookieSecure, true)
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// adminOnly sends anonymous visitors to sign-in and regular users to their
// profile. The API enforces authorization on its own; this only keeps people
// off pages they cannot use.
func (h *Handler) adminOnly(c *gin.Context) {
	st := h.services.Session(sessionID(c)).Auth(c.Request.Context())
	if !st.Authenticated {
		if st.Err != nil && h.log != nil {
			h.log.Infow("session_rejected", "err", st.Err)
		}
		redirect(c, service.PathSignIn)
		return
	}
	if !st.User.IsAdmin() {
		redirect(c, service.ProfilePath(st.User.ID))
		return
	}
	c.Set(ctxUser, *st.User)
	c.Next()
}

func currentUser(c *gin.Context) userconsole.User {
	u, _ := c.Get(ctxUser)
	user, _ := u.(userconsole.User)
	return user
}

// signInLimit throttles sign-in attempts across the whole console.
func (h *Handler) signInLimit(c *gin.Context) {
	if !h.limiter.Allow() {
		if h.log != nil {
			h.log.Infow("sign_in_throttled", "client_ip", c.ClientIP())
		}
		c.HTML(http.StatusTooManyRequests, "signin.html", signInPage{
			Title: "Sign in",
			Email: c.PostForm("email"),
			Error: "Too many sign-in attempts. Please wait a moment and try again.",
		})
		c.Abort()
		return
	}
	c.Next()
}

// observe counts and logs every request.
func (h *Handler) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	metrics.ObserveRequest(c.FullPath(), status)
	if h.log != nil {
		h.log.Debugw("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
