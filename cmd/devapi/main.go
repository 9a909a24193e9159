// @title        Users API
// @version      1.0
// @description  Reference users API backing the admin console.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userconsole/internal/config"
	"userconsole/internal/devapi/handlers"
	"userconsole/internal/devapi/service"
	"userconsole/internal/logger"
	"userconsole/internal/repository"
	"userconsole/internal/repository/db"
	"userconsole/internal/server"
)

const (
	configDir    = "configs"
	seedTimeout  = 5 * time.Second
	shutdownWait = 10 * time.Second
)

func main() {
	cfg, err := config.LoadDevAPI(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)

	// open DB
	sqlDB, err := db.InitDB(cfg.DBPath, db.SchemaUsers)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	services := service.NewService(repository.NewUserRepository(sqlDB), service.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.JWTTTL,
	})
	seedAdmin(services, cfg.Admin, log)
	apiHandler := handlers.NewHandler(services, log.Component("http"))

	log.Infow("users api starting", "port", cfg.Port, "db", cfg.DBPath)

	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(srv, log)
}

// seedAdmin makes sure the configured administrator exists. On a fresh
// database it gets id 1.
func seedAdmin(services *service.Service, admin config.AdminConfig, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	created, err := services.EnsureAdmin(ctx, admin.Name, admin.Email, admin.Password)
	if err != nil {
		log.Fatalw("failed to seed admin", "email", admin.Email, "err", err)
	}
	if created {
		log.Infow("admin account created", "email", admin.Email)
	}
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
