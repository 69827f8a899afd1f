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

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"articlehub/internal/metrics"
	"articlehub/internal/util"
	"articlehub/pkg/auth"
	"articlehub/pkg/store"
	"articlehub/services/api/internal/app"
	"articlehub/services/api/internal/config"
	"articlehub/services/api/internal/server"
)

func main() {
	configPath := pflag.String("config", config.ConfigPath, "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.FileConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	leeway, _ := config.ParseDuration(cfg.JWTLeeway, "jwtLeeway")
	shutdownTimeout, _ := config.ParseDuration(cfg.ShutdownTimeout, "shutdownTimeout")
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, auth.TokenOptions{Leeway: leeway})
	if err != nil {
		return err
	}
	m := metrics.New()
	signup, login, err := buildLimiters(cfg, deps.redis)
	if err != nil {
		return err
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	httpServer := server.New(server.Config{
		Auth: app.NewAuthService(store.NewUserStore(deps.docs), issuer),
		Articles: app.NewArticleService(app.ArticleServiceConfig{
			Articles: store.NewArticleStore(deps.docs),
			Objects:  deps.objects,
			Events:   deps.events,
			Observer: m,
		}),
		Tokens:               issuer,
		RequireAuthForWrites: *cfg.RequireAuthForWrites,
		MaxUploadBytes:       cfg.MaxUploadBytes,
		SignupLimiter:        signup,
		LoginLimiter:         login,
		TrustedProxies:       trusted,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		Metrics:              m,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api server listening", "addr", addr,
			"store", cfg.Store.Driver, "storage", cfg.Storage.Driver, "events", cfg.Events.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", shutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
