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
	"github.com/vncsmyrnk/predixarena/internal/core/services"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dbCfg, err := config.LoadDatabase("tallyreconcile", os.Args[1:])
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

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	tallyService := services.NewTallyService(postgres.NewEventRepository(db), postgres.NewTallyRepository(db), nil)

	logger.Info("starting tally reconciliation")

	drifts, err := tallyService.ReconcileAll(ctx)
	if err != nil {
		logger.Error("tally reconciliation failed", "error", err)
		os.Exit(1)
	}

	for _, d := range drifts {
		logger.Warn("corrected drifted counter",
			"event_id", d.EventID,
			"outcome_index", d.OutcomeIndex,
			"stored", d.Stored,
			"counted", d.Counted,
		)
	}
	logger.Info("tally reconciliation completed", "corrected", len(drifts))
}
