// Package main starts the habit tracker API server: it loads the
// configuration, connects to PostgreSQL, wires repositories, services and
// handlers, and serves HTTP (or HTTPS when a certificate is configured)
// until SIGINT or SIGTERM.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/habittracker/internal/auth"
	"github.com/atinyakov/habittracker/internal/config"
	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/logger"
	"github.com/atinyakov/habittracker/internal/repository"
	"github.com/atinyakov/habittracker/internal/server/handler/http"
	"github.com/atinyakov/habittracker/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	options, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel, options.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	db.StartSoftDeleteCleaner(ctx, postgresDB,
		options.PurgeInterval,
		options.PurgeRetention,
		zapLogger,
	)

	hasher, err := auth.NewHasher(options.BcryptCost, options.HashWorkers)
	if err != nil {
		zapLogger.Fatal("invalid hasher settings", zap.Error(err))
	}
	tokens, err := auth.NewTokenService(options.JWTSecret, options.TokenTTL)
	if err != nil {
		zapLogger.Fatal("invalid token settings", zap.Error(err))
	}

	userRepo := repository.NewPostgresUserRepository(postgresDB)
	habitRepo := repository.NewPostgresHabitRepository(postgresDB)
	tagRepo := repository.NewPostgresTagRepository(postgresDB)
	entryRepo := repository.NewPostgresEntryRepository(postgresDB)

	credentials := service.NewCredentialService(userRepo, hasher, tokens)
	habits := service.NewHabitService(habitRepo, entryRepo)
	tags := service.NewTagService(tagRepo, habitRepo)

	errs := &http.ErrorWriter{Dev: options.IsDevelopment(), Log: zapLogger}
	router := http.NewRouter(http.Handlers{
		Auth:   &http.AuthHandler{AuthService: credentials, Errors: errs},
		Habits: &http.HabitHandler{HabitService: habits, Errors: errs},
		Tags:   &http.TagHandler{TagService: tags, Errors: errs},
	}, tokens, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if options.TLSCert != "" {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	serveErr := make(chan error, 1)
	go func() {
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr), zap.String("env", options.Env))
			serveErr <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr), zap.String("env", options.Env))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
