// cmd/migrate/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"networth-tracker/internal/config"
	"networth-tracker/internal/logger"
	"networth-tracker/internal/storage/postgres"

	"github.com/jackc/pgx/v5/stdlib"
)

// Usage: migrate [up|down|status]
func main() {
	cfg := config.MustLoad()
	slog.SetDefault(logger.New(cfg.Env))

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(context.Background(), cfg.DB.URL, cmd); err != nil {
		slog.Error("migration failed", "error", err, "command", cmd)
		os.Exit(1)
	}
	slog.Info("migration finished", "command", cmd)
}

func run(ctx context.Context, url, cmd string) error {
	pool, err := postgres.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	switch cmd {
	case "up":
		return postgres.MigrateUp(ctx, db)
	case "down":
		return postgres.MigrateDown(ctx, db)
	case "status":
		return postgres.MigrateStatus(ctx, db)
	default:
		return fmt.Errorf("unknown command %q, want up, down or status", cmd)
	}
}
