package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aicourse/chatwidget/internal/config"
	"github.com/aicourse/chatwidget/internal/logging"
	"github.com/aicourse/chatwidget/internal/services"
	"github.com/aicourse/chatwidget/internal/tui"
	"github.com/spf13/pflag"
)

type flags struct {
	configPath string
	backendURL string
	logFile    string
	noSources  bool
}

func parseFlags(args []string) (flags, error) {
	var f flags

	fs := pflag.NewFlagSet("chatwidget-tui", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to config.yaml (default <user config dir>/chatwidget/config.yaml)")
	fs.StringVar(&f.backendURL, "backend", "", "chatbot backend base url, overrides config")
	fs.StringVar(&f.logFile, "log-file", "", "write logs to this file instead of discarding them")
	fs.BoolVar(&f.noSources, "no-sources", false, "start with source lists turned off")

	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

func loadConfig(f flags) (config.Config, error) {
	path := f.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("error loading config %s: %w", path, err)
	}

	if f.backendURL != "" {
		cfg.Backend.BaseURL = f.backendURL
	}
	if f.noSources {
		cfg.ShowSources = false
	}

	// The terminal belongs to the program; logs go to a file or nowhere.
	switch {
	case f.logFile != "":
		cfg.Log.Output = "file"
		cfg.Log.FilePath = f.logFile
	case cfg.Log.Output != "file":
		cfg.Log.Output = "discard"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

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

	backend, err := services.NewRAGBackend(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tui.Run(ctx, backend, tui.Options{
		ShowSources:     cfg.ShowSources,
		NotificationTTL: cfg.Notification.TTL,
		Logger:          logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
