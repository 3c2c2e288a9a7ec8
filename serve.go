package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/config"
	"github.com/kasuganosora/monbattle/game/arena"
	mw "github.com/kasuganosora/monbattle/middleware"
	"github.com/kasuganosora/monbattle/resource"
	"github.com/kasuganosora/monbattle/scheduler"
	"github.com/kasuganosora/monbattle/server"
)

const (
	shutdownTimeout  = 10 * time.Second
	limiterSweepIdle = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP battle server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override server.port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		cfg.Server.Port = p
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	// ---- Catalog ----
	cat := resource.NewLoader(cfg.Catalog.DataPath)
	if err := cat.Load(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	logger.Info("catalog loaded", zap.String("dir", cfg.Catalog.DataPath), zap.Int("species", len(cat.Species)))

	// ---- Cache / PubSub ----
	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer store.Close()
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	defer pubsub.Close()
	if cfg.Cache.RedisAddr != "" {
		logger.Info("cache backend: redis", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		logger.Info("cache backend: local")
	}

	// ---- Scheduler / Arena ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	manager := arena.NewManager(arena.Options{
		Catalog:   cat,
		Store:     store,
		PubSub:    pubsub,
		Scheduler: sched,
		Rules:     &cfg.Battle,
		Config:    cfg.Arena,
		Logger:    logger,
	})
	manager.Start()

	limiter := mw.NewLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)
	sched.AddTicker("ratelimit.sweep", 5*time.Minute, func(context.Context) {
		if n := limiter.Sweep(limiterSweepIdle); n > 0 {
			logger.Debug("rate limiter swept", zap.Int("ips", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.NewRouter(server.Deps{
		Arena:          manager,
		Catalog:        cat,
		Limiter:        limiter,
		AllowedOrigins: cfg.Security.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
