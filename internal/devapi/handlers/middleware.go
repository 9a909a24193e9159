package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"userconsole"
	"userconsole/internal/devapi/service"
	"userconsole/internal/metrics"
)

const ctxUser = "user"

// authMiddleware resolves the bearer token to the stored user. The role is
// read from the database, not from the token, so a demoted admin loses
// access immediately.
func (h *Handler) authMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortWithMessage(c, http.StatusUnauthorized, "missing Authorization header")
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		abortWithMessage(c, http.StatusUnauthorized, "invalid Authorization header format")
		return
	}

	claims, err := h.services.ParseToken(parts[1])
	if err != nil {
		abortWithMessage(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	u, err := h.services.Users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			abortWithMessage(c, http.StatusUnauthorized, "user no longer exists")
			return
		}
		h.logAndError(c, "auth_load_user_failed", err, "user_id", claims.UserID)
		return
	}

	c.Set(ctxUser, u)
	c.Next()
}

func currentUser(c *gin.Context) userconsole.User {
	v, _ := c.Get(ctxUser)
	u, _ := v.(userconsole.User)
	return u
}

func (h *Handler) requireAdmin(c *gin.Context) {
	if !currentUser(c).IsAdmin() {
		abortWithMessage(c, http.StatusForbidden, "admin role required")
		return
	}
	c.Next()
}

// selfOrAdmin lets a user reach its own record; anything else needs admin.
func (h *Handler) selfOrAdmin(c *gin.Context) {
	u := currentUser(c)
	if u.IsAdmin() {
		c.Next()
		return
	}
	if id, err := strconv.Atoi(c.Param("id")); err == nil && id == u.ID {
		c.Next()
		return
	}
	abortWithMessage(c, http.StatusForbidden, "admin role required")
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
