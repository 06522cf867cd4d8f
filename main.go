package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/handler"
	"storefront/service"
	"storefront/store"
	"storefront/store/memstore"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed migrations.sql
var migrationSQL string

var (
	configFile = flag.String("c", "", "config yaml file")
	storeType  = flag.String("store", "", "store backend override: postgres | memory")
	debug      = flag.Bool("debug", false, "debug logging")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *storeType != "" {
		cfg.System.StoreType = *storeType
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if *debug {
		cfg.System.Debug = true
	}

	logger, err := config.NewLogger(cfg.Logger, cfg.System.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := service.NewService(st, logger, service.Config{
		LowStockThreshold: cfg.Reports.LowStockThreshold,
		RecentLimit:       cfg.Reports.RecentLimit,
	})
	if err := svc.EnsureDefaultAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("init default admin: %w", err)
	}

	h := handler.NewHandler(svc, logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running", zap.String("addr", srv.Addr), zap.String("store", cfg.System.StoreType))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.AppConfig) (store.Store, error) {
	if cfg.System.StoreType == "memory" {
		zap.L().Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil
	}
	pg, err := store.NewPostgresStore(cfg.Database.DSN(), store.PoolOptions{
		MaxOpen: cfg.Database.MaxConn,
		MaxIdle: cfg.Database.IdleConn,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pg.Migrate(ctx, migrationSQL); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	zap.L().Info("database migrations executed successfully")
	return pg, nil
}
