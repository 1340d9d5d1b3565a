package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenaforge/gameapi/access"
	apirest "github.com/arenaforge/gameapi/api/rest"
	"github.com/arenaforge/gameapi/audit"
	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/cache"
	dbadapter "github.com/arenaforge/gameapi/db"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/scheduler"
	"github.com/arenaforge/gameapi/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache(c, logger)
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.Every("audit_purge", cfg.Audit.PurgeInterval, func(ctx context.Context) {
		if _, err := auditSvc.Purge(ctx, cfg.Audit.Retention); err != nil {
			logger.Warn("audit purge failed", zap.Error(err))
		}
	})

	// ---- Services ----
	tokens, err := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTTTL,
		auth.WithLogger(logger.Named("token")))
	if err != nil {
		return err
	}
	limiter := service.NewLoginLimiter(c, cfg.Security.LoginMaxFailures, cfg.Security.LoginLockout, logger)
	users := service.NewUserService(db, auth.NewBcryptHasher(cfg.Security.BcryptCost), limiter, logger)
	chars := service.NewCharacterService(db, logger)
	equipment := service.NewEquipmentService(db, logger)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := apirest.NewRouter(ctx, apirest.Deps{
		Users:          users,
		Characters:     chars,
		Equipment:      equipment,
		Tokens:         tokens,
		Chain:          access.NewChain(tokens, users),
		Audit:          auditSvc,
		Logger:         logger,
		RateLimitRPS:   cfg.Security.RateLimitRPS,
		RateLimitBurst: cfg.Security.RateLimitBurst,
		AdminAllowlist: cfg.Server.AdminAllowlist,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func closeCache(c cache.Cache, logger *zap.Logger) {
	switch cl := c.(type) {
	case interface{ Close() error }:
		if err := cl.Close(); err != nil {
			logger.Warn("cache close failed", zap.Error(err))
		}
	case interface{ Close() }:
		cl.Close()
	}
}
