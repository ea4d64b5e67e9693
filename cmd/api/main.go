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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/reminder-bot/backend/internal/config"
	"github.com/zhouzirui/reminder-bot/backend/internal/handler"
	reminderHandler "github.com/zhouzirui/reminder-bot/backend/internal/handler/reminder"
	"github.com/zhouzirui/reminder-bot/backend/internal/logging"
	"github.com/zhouzirui/reminder-bot/backend/internal/service/reminder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	metrics := reminder.NewMetrics("reminder_bot")
	reminderSvc := reminder.NewService(
		reminder.WithLogger(logger.Named("reminder")),
		reminder.WithMetrics(metrics),
	)
	ws := reminderHandler.NewWebSocketHandler(reminderSvc, logger, cfg.Session.SendBuffer)

	servers := []*http.Server{
		newServer(cfg.Server.HTTPAddr, handler.NewRouter(cfg.Server, reminderSvc, metrics, ws, logger)),
	}
	if !cfg.Server.SharedListener() {
		servers = append(servers, newServer(cfg.Server.WSAddr, handler.NewWebSocketRouter(cfg.Server, ws, logger)))
	}

	logger.Info("reminder bot listening",
		zap.String("http", cfg.Server.HTTPAddr),
		zap.String("ws", cfg.Server.WSAddr),
		zap.String("staticDir", cfg.Server.StaticDir),
	)

	err = runServers(ctx, cfg.Server.ShutdownTimeout, servers...)
	reminderSvc.Shutdown()
	if err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// runServers serves until ctx is cancelled or one server fails, then shuts
// every server down.
func runServers(ctx context.Context, shutdownTimeout time.Duration, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErr error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				shutdownErr = errors.Join(shutdownErr, err)
			}
		}
		return shutdownErr
	})

	return g.Wait()
}
