package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/config"
	"github.com/bcmedia-dr/doctor-management-system/migrations"
	"github.com/bcmedia-dr/doctor-management-system/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  up      apply all pending migrations
  down    roll back the latest migration
  status  print migration status
  reset   roll back every migration, then apply them again
  seed    insert sample doctors when the table is empty`

var errUsage = errors.New(usage)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("migrate "+os.Args[1]+" failed", err)
		os.Exit(1)
	}
}

func run(command string) error {
	if !isCommand(command) {
		return errUsage
	}

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if command == "seed" {
		return seed(ctx, dbConfig)
	}

	db, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	case "reset":
		if err = goose.ResetContext(ctx, db, "."); err == nil {
			err = goose.UpContext(ctx, db, ".")
		}
	}
	if err != nil {
		return err
	}

	log.Info().Str("command", command).Msg("migration finished")
	return nil
}

func isCommand(command string) bool {
	switch command {
	case "up", "down", "status", "reset", "seed":
		return true
	}
	return false
}
