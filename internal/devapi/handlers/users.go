package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userconsole"
	"userconsole/internal/devapi/service"
)

type createUserRequest struct {
	Name     string               `json:"name" binding:"required" example:"Bea"`
	Email    string               `json:"email" binding:"required,email" example:"bea@example.com"`
	Password string               `json:"password" binding:"required" example:"secret1"`
	Type     userconsole.UserType `json:"type" binding:"omitempty,oneof=regular admin" example:"regular"`
}

// updateUserRequest fields are optional; omitted ones keep their value.
type updateUserRequest struct {
	Name     string               `json:"name" example:"Bea"`
	Email    string               `json:"email" binding:"omitempty,email" example:"bea@example.com"`
	Password string               `json:"password,omitempty"`
	Type     userconsole.UserType `json:"type" binding:"omitempty,oneof=regular admin" example:"regular"`
}

// writeServiceError maps domain errors to statuses. Unknown errors are logged
// and hidden behind a 500.
func (h *Handler) writeServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		abortWithMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		abortWithMessage(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrProtectedUser):
		abortWithMessage(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		abortWithMessage(c, http.StatusBadRequest, err.Error())
	default:
		h.logAndError(c, logKey, err, kv...)
	}
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortWithMessage(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userconsole.User
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.Users.List(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "list_users_failed", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "new account"
// @Success      201   {object}  userconsole.User
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *Handler) createUser(c *gin.Context) {
	var input createUserRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	u, err := h.services.Users.Create(c.Request.Context(), userconsole.UserInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Type:     input.Type,
	})
	if err != nil {
		h.writeServiceError(c, "create_user_failed", err, "email", input.Email)
		return
	}
	if h.log != nil {
		h.log.Infow("user_created", "id", u.ID, "by", currentUser(c).ID)
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "user id"
// @Success      200  {object}  userconsole.User
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.services.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "get_user_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Update user
// @Description  Omitted fields keep their value; the password changes only when sent.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "user id"
// @Param        body  body      updateUserRequest  true  "changes"
// @Success      200   {object}  userconsole.User
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/{id} [put]
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input updateUserRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	// Regular users may edit themselves but not promote themselves.
	if me := currentUser(c); !me.IsAdmin() && input.Type != "" && input.Type != me.Type {
		abortWithMessage(c, http.StatusForbidden, "admin role required to change type")
		return
	}

	u, err := h.services.Users.Update(c.Request.Context(), id, service.UserPatch{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Type:     input.Type,
	})
	if err != nil {
		h.writeServiceError(c, "update_user_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  int  true  "user id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Users.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, "delete_user_failed", err, "id", id)
		return
	}
	if h.log != nil {
		h.log.Infow("user_deleted", "id", id, "by", currentUser(c).ID)
	}
	c.Status(http.StatusNoContent)
}
