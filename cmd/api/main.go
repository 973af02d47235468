package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shinyyama/goods-backend/internal/app"
	"github.com/shinyyama/goods-backend/internal/authz"
	"github.com/shinyyama/goods-backend/internal/config"
	"github.com/shinyyama/goods-backend/internal/db"
	"github.com/shinyyama/goods-backend/internal/lock"
	"github.com/shinyyama/goods-backend/internal/logger"
	"github.com/shinyyama/goods-backend/internal/metrics"
	appmw "github.com/shinyyama/goods-backend/internal/middleware"
	"github.com/shinyyama/goods-backend/internal/scheduler"
	"github.com/shinyyama/goods-backend/internal/server"
	"go.uber.org/zap"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}

	locker := lock.NewLocker(lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword))
	if locker == nil {
		zl.Info("REDIS_ADDR not set; ranking runs are not coordinated across instances")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svcs, err := app.NewServices(app.Options{Config: cfg, DB: conn, Log: zl, Metrics: m, Locker: locker})
	if err != nil {
		return err
	}

	authorizer, err := authz.New()
	if err != nil {
		return err
	}
	var auth *appmw.AuthMiddleware
	switch cfg.AuthMode {
	case "header":
		zl.Warn("AUTH_MODE=header: trusting identity headers from the gateway")
		auth = appmw.NewHeaderAuth()
	default:
		auth, err = appmw.NewFirebaseAuth(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return err
		}
	}

	if cfg.SchedulerEnabled {
		sched := scheduler.New(zl, m, jobs(svcs, cfg)...)
		go sched.RunForever(ctx)
	}

	srv := server.New(server.Params{
		DB:                  conn,
		Log:                 zl,
		Services:            svcs,
		Auth:                auth,
		Authz:               authorizer,
		Locker:              locker,
		Gatherer:            reg,
		CORSAllowedSuffixes: cfg.CORSAllowedSuffixes,
		SHA:                 gitSHA,
		BuildTime:           buildTime,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		zl.Info("starting server", zap.String("addr", addr))
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zl.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func jobs(svcs *app.Services, cfg *config.Config) []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     scheduler.JobRanking,
			Interval: cfg.RankingInterval,
			Run:      svcs.Rankings.RecomputeAll,
		},
		{
			Name:     scheduler.JobPointsExpiry,
			Interval: cfg.ExpiryInterval,
			Run: func(ctx context.Context) error {
				_, _, err := svcs.Points.ExpireAll(ctx)
				return err
			},
		},
	}
}
