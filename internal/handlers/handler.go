package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"userconsole/internal/logger"
	"userconsole/internal/metrics"
	"userconsole/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options carries the HTTP-facing settings of the console.
type Options struct {
	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration
	LiveInterval time.Duration
	SignInRate   float64
	SignInBurst  int
}

const (
	defaultCookieName  = "console_sid"
	defaultCookieAge   = 30 * 24 * time.Hour
	defaultSignInRate  = 2
	defaultSignInBurst = 20
)

// Handler wires the console pages to the services.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
	limiter  *rate.Limiter
	tmpl     *template.Template
}

// NewHandler parses the page templates and builds the handler.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) (*Handler, error) {
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = defaultCookieAge
	}
	if opts.LiveInterval <= 0 {
		opts.LiveInterval = defaultInterval
	}
	if opts.SignInRate <= 0 {
		opts.SignInRate = defaultSignInRate
	}
	if opts.SignInBurst <= 0 {
		opts.SignInBurst = defaultSignInBurst
	}

	tmpl, err := template.New("pages").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		services: services,
		log:      log,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.SignInRate), opts.SignInBurst),
		tmpl:     tmpl,
	}, nil
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.observe)
	router.SetHTMLTemplate(h.tmpl)

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	pages := router.Group("/", h.sessionMiddleware)
	{
		pages.GET("/", h.home)
		pages.POST("/enter", h.enter)
		pages.GET("/signin", h.signInPage)
		pages.POST("/signin", h.signInLimit, h.signIn)
		pages.POST("/logout", h.logout)
		pages.GET("/profile/:userId", h.profile)
		pages.GET("/live/users", h.adminOnly, h.liveUsers)

		h.registerUserRoutes(pages)
	}

	router.NoRoute(h.sessionMiddleware, h.notFound)

	return router
}

func (h *Handler) registerUserRoutes(r *gin.RouterGroup) {
	users := r.Group("/users", h.adminOnly)
	{
		users.GET("", h.listUsers)
		users.POST("", h.createUser)
		users.GET("/:userId", h.editUserPage)
		users.POST("/:userId", h.updateUser)
		users.GET("/:userId/delete", h.confirmDelete)
		users.POST("/:userId/delete", h.deleteUser)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type notFoundPage struct {
	Title string
}

func (h *Handler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", notFoundPage{Title: "Page not found"})
}

// redirect answers with 303 so a POST is followed by a GET.
func redirect(c *gin.Context, path string) {
	c.Redirect(http.StatusSeeOther, path)
	c.Abort()
}
