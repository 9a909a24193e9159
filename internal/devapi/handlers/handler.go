// Package handlers exposes the reference users API over HTTP.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "userconsole/internal/devapi/docs"
	"userconsole/internal/devapi/service"
	"userconsole/internal/logger"
	"userconsole/internal/metrics"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.observe)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/login", h.login)
	h.registerUserRoutes(router)

	return router
}

func (h *Handler) registerUserRoutes(r *gin.Engine) {
	users := r.Group("/users", h.authMiddleware)
	{
		users.GET("", h.requireAdmin, h.listUsers)
		users.POST("", h.requireAdmin, h.createUser)
		users.GET("/:id", h.selfOrAdmin, h.getUser)
		users.PUT("/:id", h.selfOrAdmin, h.updateUser)
		users.DELETE("/:id", h.requireAdmin, h.deleteUser)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if n, err := h.services.Users.Count(c.Request.Context()); err == nil {
		resp["users"] = n
	}
	c.JSON(http.StatusOK, resp)
}

// errorResponse is the body of every failed call.
type errorResponse struct {
	Message string `json:"message" example:"user not found"`
}

// abortWithMessage writes {"message": msg} and stops the chain.
func abortWithMessage(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorResponse{Message: msg})
}

// logAndError logs unexpected failures and answers with a generic message.
func (h *Handler) logAndError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	abortWithMessage(c, http.StatusInternalServerError, "internal server error")
}
