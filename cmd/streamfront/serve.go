package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"streamfront/api"
	"streamfront/config"
	"streamfront/handlers"
	"streamfront/internal/auth"
	"streamfront/utils"
)

const (
	shutdownTimeout = 10 * time.Second
	serverLockName  = "streamfront.lock"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx, strings.TrimSpace(bind))
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

// configureLogging tees the standard logger into a rotating file when one is
// configured. The returned closer flushes that file.
func configureLogging(cfg config.Logging) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

// acquireServerLock keeps a second server off the same data directory.
func acquireServerLock(dataDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dataDir, serverLockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another streamfront server is using %s", dataDir)
	}
	return lock, nil
}

func runServer(cmdCtx context.Context, ctx *commandContext, bind string) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logCloser := configureLogging(cfg.Logging)
	defer logCloser.Close()

	lock, err := acquireServerLock(cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("[server] failed to release lock %s: %v", lock.Path(), err)
		}
	}()

	s, err := ctx.openStack(signalCtx)
	if err != nil {
		return err
	}
	defer s.Close()

	auth.TrustProxyHeaders(cfg.Server.TrustProxyHeaders)
	log.Printf("[server] %d accounts, %d stored sessions", len(s.accounts.List()), s.sessions.Count())

	limiter := api.NewIPRateLimiter(api.PerMinute(cfg.RateLimit.AuthPerMinute), cfg.RateLimit.AuthBurst)
	defer limiter.Stop()

	r := utils.NewRouter(cfg.Server.AllowedOrigins...)
	handlers.Register(r, handlers.Routes{
		Auth:        handlers.NewAuthHandler(s.registry),
		Catalog:     handlers.NewCatalogHandler(s.catalog),
		Favorites:   handlers.NewFavoritesHandler(s.metadata, s.catalog),
		Version:     handlers.NewVersionHandler(),
		Sessions:    api.SessionMiddleware(s.registry),
		AuthLimiter: limiter,
	})

	if bind == "" {
		bind = cfg.Server.Bind
	}
	srv := &http.Server{
		Addr:         bind,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[server] streamfront %s listening on %s (store=%s)", handlers.Version(), bind, cfg.Store.Backend)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-signalCtx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
