package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatwidget "github.com/aicourse/chatwidget"
	"github.com/aicourse/chatwidget/internal/config"
	"github.com/aicourse/chatwidget/internal/handlers"
	"github.com/aicourse/chatwidget/internal/logging"
	"github.com/aicourse/chatwidget/internal/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatal(err)
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating logger: %w", err))
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	backend, err := services.NewRAGBackend(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	if err != nil {
		return err
	}

	m, err := handlers.NewMain(backend, handlers.Config{
		NotificationTTL:      cfg.Notification.TTL,
		ShowSources:          cfg.ShowSources,
		SessionIdleTimeout:   cfg.Session.IdleTimeout,
		SessionEvictInterval: cfg.Session.EvictInterval,
	}, logger)
	if err != nil {
		return fmt.Errorf("error creating handlers: %w", err)
	}

	// Serve static files
	staticFS, err := fs.Sub(chatwidget.StaticFS, "static")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/messages", m.HandleMessages)
	mux.HandleFunc("/status", m.HandleStatus)
	mux.HandleFunc("/sse", m.HandleSSE)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m.StartEvictionLoop(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", slog.String("addr", srv.Addr), slog.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// SSE streams never end on their own, so close them before the HTTP server waits on them.
		if err := m.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown sse server", slog.String("err", err.Error()))
		}

		// Gracefully shutdown the server
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
		return nil
	})

	return g.Wait()
}
