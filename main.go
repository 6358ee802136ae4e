package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/ender-tasks/internal/api"
	"github.com/isdelr/ender-tasks/internal/auth"
	"github.com/isdelr/ender-tasks/internal/backup"
	"github.com/isdelr/ender-tasks/internal/config"
	"github.com/isdelr/ender-tasks/internal/logger"
	"github.com/isdelr/ender-tasks/internal/services"
	"github.com/isdelr/ender-tasks/internal/store"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)

	// Set up record stores
	taskStore, err := store.Open(cfg.TasksFile, services.TaskFields)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TasksFile).Msg("Failed to open task store")
	}
	userStore, err := store.Open(cfg.UsersFile, services.UserFields, services.LegacyUserColumns)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.UsersFile).Msg("Failed to open user store")
	}

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up password hashing")
	}

	// Set up services
	taskService := services.NewTaskService(taskStore)
	userService := services.NewUserService(userStore, hasher)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// Set up and run the background snapshot scheduler
	scheduler := backup.NewScheduler(backup.Options{
		Files:        []string{taskStore.Path(), userStore.Path()},
		Dir:          cfg.BackupPath,
		Schedule:     cfg.BackupSchedule,
		Keep:         cfg.BackupKeep,
		MinFreeBytes: cfg.BackupMinFreeMB * 1024 * 1024,
	})
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start backup scheduler")
	}

	// Set up router
	router := api.NewRouter(taskService, userService, tokens, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
