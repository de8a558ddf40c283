// Command seed applies migrations and inserts demo todos into PG_DSN.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"todoboard/internal/config"
	"todoboard/internal/logger"
	"todoboard/internal/repo"
	"todoboard/internal/seed"
	"todoboard/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	fresh := flag.Bool("fresh", false, "truncate todos before seeding")
	seedVal := flag.Uint64("seed", 0, "faker seed; 0 picks a random one")
	flag.Parse()

	cfg, err := config.LoadPG()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := migrations.Up(cfg.DSN); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		lg.Fatal("pg connect", zap.Error(err))
	}
	defer db.Close()

	if *fresh {
		if _, err := db.Exec(ctx, `TRUNCATE todos RESTART IDENTITY`); err != nil {
			lg.Fatal("truncate", zap.Error(err))
		}
	}

	n, err := seed.Run(ctx, repo.NewPGTodoRepo(db), seed.NewFactory(*seedVal, time.Now()))
	if err != nil {
		lg.Fatal("seed", zap.Int("inserted", n), zap.Error(err))
	}
	lg.Info("seeded todos", zap.Int("count", n))
}
