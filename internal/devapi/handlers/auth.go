package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userconsole/internal/devapi/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required" example:"admin@example.com"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		abortWithMessage(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}
	return true
}

// @Summary      Log in
// @Description  Exchanges email and password for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "credentials"
// @Success      200   {object}  userconsole.LoginResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if h.log != nil {
				h.log.Infow("login_failed", "email", input.Email)
			}
			abortWithMessage(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logAndError(c, "login_error", err, "email", input.Email)
		return
	}

	c.JSON(http.StatusOK, res)
}
