package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/predixarena/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/predixarena/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dbCfg, err := config.LoadDatabase("migrations", os.Args[1:])
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbCfg.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	applied, err := postgres.Migrate(ctx, db, logger)
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	if len(applied) == 0 {
		logger.Info("schema is up to date")
		return
	}
	logger.Info("migrations executed successfully", "applied", applied)
}
