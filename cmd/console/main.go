package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userconsole/internal/apiclient"
	"userconsole/internal/config"
	"userconsole/internal/handlers"
	"userconsole/internal/logger"
	"userconsole/internal/repository"
	"userconsole/internal/repository/db"
	"userconsole/internal/server"
	"userconsole/internal/service"
	"userconsole/internal/session"
)

const (
	configDir    = "configs"
	sweepTick    = time.Minute
	pruneTick    = time.Hour
	shutdownWait = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConsole(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)

	store, closeStore, err := openSessionStore(cfg.Session, log)
	if err != nil {
		log.Fatalw("failed to open session store", "driver", cfg.Session.Driver, "err", err)
	}
	defer closeStore()

	// wire dependencies
	api := apiclient.New(cfg.APIBaseURL, apiclient.WithLogger(log.Component("apiclient")))
	services := service.NewService(api, store, log.Component("service"), service.Options{
		DeleteErrorTTL: cfg.DeleteErrorTTL,
	})
	consoleHandler, err := handlers.NewHandler(services, log.Component("http"), handlers.Options{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		CookieMaxAge: cfg.Session.MaxAge,
		LiveInterval: cfg.LiveInterval,
		SignInRate:   cfg.SignInRate,
		SignInBurst:  cfg.SignInBurst,
	})
	if err != nil {
		log.Fatalw("failed to build handlers", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// drop per-session controllers nobody has touched for a while
	go services.Users.Run(ctx, sweepTick, cfg.ControllerIdleTTL)

	// forget sqlite sessions whose cookie has expired
	if sqliteStore, ok := store.(*repository.SessionSQLite); ok {
		go sqliteStore.Run(ctx, pruneTick, cfg.Session.MaxAge, log.Component("sessions"))
	}

	log.Infow("console starting", "port", cfg.Port, "api", cfg.APIBaseURL, "sessions", cfg.Session.Driver)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, consoleHandler, log)

	waitForShutdown(cancel, srv, log)
}

// openSessionStore returns the configured store, initialized, plus a closer.
func openSessionStore(cfg config.SessionConfig, log *logger.Logger) (session.Store, func(), error) {
	var (
		store   session.Store
		closeFn = func() {}
	)
	switch cfg.Driver {
	case config.SessionDriverMemory:
		store = session.NewMemoryStore()
	default:
		sqlDB, err := db.InitDB(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		store = repository.NewSessionSQLite(sqlDB)
		closeFn = func() { closeDB(sqlDB, log) }
	}

	if err := store.Init(context.Background()); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func closeDB(sqlDB *sql.DB, log *logger.Logger) {
	if err := sqlDB.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8081"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownWait)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
