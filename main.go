package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thecoffeedev/password-reset-backend/internal/api"
	"github.com/thecoffeedev/password-reset-backend/internal/config"
	"github.com/thecoffeedev/password-reset-backend/internal/database"
	"github.com/thecoffeedev/password-reset-backend/internal/logger"
	"github.com/thecoffeedev/password-reset-backend/internal/mailer"
	"github.com/thecoffeedev/password-reset-backend/internal/monitoring"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the mail transport; configuration is immutable after this point
	mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPassword)

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, cfg.BcryptCost, eventService)
	resetService := services.NewResetService(db, userService, mail, eventService, cfg.ResetURLBase, cfg.BcryptCost)

	// Set up and run the background token pruner
	pruner, err := monitoring.NewTokenPruner(db, eventService, cfg.ResetTokenTTL, cfg.PruneSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token pruner")
	}
	go pruner.Run()

	// Set up router
	router := api.NewRouter(userService, resetService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
