package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	httpadp "quorum-lending/internal/adapter/http"
	"quorum-lending/internal/adapter/middleware"
	"quorum-lending/internal/adapter/publisher"
	mysqlrepo "quorum-lending/internal/adapter/repository/mysql"
	"quorum-lending/internal/config"
	"quorum-lending/internal/infrastructure/cache"
	"quorum-lending/internal/infrastructure/db"
	"quorum-lending/internal/usecase/admin"
	"quorum-lending/internal/usecase/loan"
	"quorum-lending/internal/usecase/outbox"
	"quorum-lending/internal/usecase/token"
	"quorum-lending/internal/usecase/voting"
	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/guard"
	"quorum-lending/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("open redis: %v", err)
	}
	defer rdb.Close()

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("sql db: %v", err)
	}

	tx := mysqlrepo.NewGormUoW(gdb, cfg.PoolAsset, cfg.PoolPrincipal)
	g := guard.New()
	clk := clock.System{}

	adminUC := admin.NewUsecase(tx, g, clk)
	settings, err := adminUC.Bootstrap(ctx, admin.BootstrapInput{
		Owner:         cfg.OwnerPrincipal,
		VotingPeriod:  cfg.VotingPeriod(),
		RequiredVotes: cfg.RequiredVotes,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	slog.Info("platform ready",
		slog.String("owner", settings.Owner),
		slog.Int64("voting_period_seconds", settings.VotingPeriodSeconds),
		slog.Uint64("required_votes", settings.RequiredVotes),
		slog.Uint64("loan_count", settings.LoanCount),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestID(), echomw.Logger(), echomw.Recover())

	httpadp.Routes{
		Health: httpadp.NewHandler(clk, sqlDB),
		Loans:  httpadp.NewLoanHandler(loan.NewUsecase(tx, g, clk), voting.NewUsecase(tx, g, clk)),
		Admin:  httpadp.NewAdminHandler(adminUC, token.NewUsecase(tx, g)),
	}.Register(e, middleware.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL()))

	relay := outbox.Relay{
		Events:    mysqlrepo.NewEventRepository(gdb),
		Publisher: publisher.NewRedisPublisher(rdb, cfg.EventChannelPrefix),
		Clock:     clk,
		BatchSize: cfg.OutboxBatchSize,
		Interval:  cfg.OutboxInterval(),
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		addr := ":" + cfg.AppPort
		slog.Info("listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		return relay.Run(gctx)
	})
	grp.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	slog.Info("stopped")
}
