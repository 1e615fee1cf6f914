// Package main fills a habit tracker database with a demo user, one tag,
// one habit and a week of completions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/atinyakov/habittracker/internal/auth"
	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/logger"
	"github.com/atinyakov/habittracker/internal/repository"
	"github.com/atinyakov/habittracker/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var cli struct {
	DSN      string `help:"PostgreSQL connection string." env:"HABITS_DATABASE_DSN" required:""`
	Reset    bool   `help:"Delete every user, habit, tag and entry first."`
	Email    string `help:"Demo user email." default:"example@app.com"`
	Username string `help:"Demo user name." default:"demouser"`
	Password string `help:"Demo user password." default:"password123"`
	LogLevel string `help:"Log level." default:"info"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("seed"),
		kong.Description("Populate the habit tracker database with demo data."),
		kong.UsageOnError(),
	)

	log := logger.New()
	if err := log.Init(cli.LogLevel, ""); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	if err := run(cli.DSN, log.Log); err != nil {
		log.Log.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(dsn string, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := db.InitPostgres(dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cli.Reset {
		if err := repository.ResetAll(ctx, conn); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		log.Info("database cleared")
	}

	hasher, err := auth.NewHasher(bcrypt.DefaultCost, 1)
	if err != nil {
		return err
	}
	// The registration token is discarded.
	tokens, err := auth.NewTokenService(uuid.NewString(), 0)
	if err != nil {
		return err
	}

	habitRepo := repository.NewPostgresHabitRepository(conn)
	s := &seeder{
		users:  service.NewCredentialService(repository.NewPostgresUserRepository(conn), hasher, tokens),
		tags:   service.NewTagService(repository.NewPostgresTagRepository(conn), habitRepo),
		habits: service.NewHabitService(habitRepo, repository.NewPostgresEntryRepository(conn)),
		log:    log,
	}
	return s.run(ctx, demoUser{Email: cli.Email, Username: cli.Username, Password: cli.Password})
}
