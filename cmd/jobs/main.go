// Command jobs runs one background job once and exits, for cron-style deployments.
//
//	jobs weekly_ranking
//	jobs points_expiry
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/goods-backend/internal/app"
	"github.com/shinyyama/goods-backend/internal/config"
	"github.com/shinyyama/goods-backend/internal/db"
	"github.com/shinyyama/goods-backend/internal/lock"
	"github.com/shinyyama/goods-backend/internal/logger"
	"github.com/shinyyama/goods-backend/internal/scheduler"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("job failed: %v", err)
	}
}

func run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: jobs <%s|%s>", scheduler.JobRanking, scheduler.JobPointsExpiry)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	conn, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	svcs, err := app.NewServices(app.Options{
		Config: cfg,
		DB:     conn,
		Log:    zl,
		Locker: lock.NewLocker(lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)),
	})
	if err != nil {
		return err
	}

	s := scheduler.New(zl, nil,
		scheduler.Job{Name: scheduler.JobRanking, Run: svcs.Rankings.RecomputeAll},
		scheduler.Job{Name: scheduler.JobPointsExpiry, Run: func(ctx context.Context) error {
			users, total, err := svcs.Points.ExpireAll(ctx)
			zl.Info("points expired", zap.Int("users", users), zap.Int64("points", total))
			return err
		}},
	)
	return s.RunOnce(context.Background(), strings.TrimSpace(args[0]))
}
