package main

import (
	"fmt"

	"github.com/aicourse/chatwidget/internal/config"
	"github.com/spf13/pflag"
)

type flags struct {
	configPath string
	port       string
	backendURL string
}

func parseFlags(args []string) (flags, error) {
	var f flags

	fs := pflag.NewFlagSet("chatwidget-server", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to config.yaml (default <user config dir>/chatwidget/config.yaml)")
	fs.StringVarP(&f.port, "port", "p", "", "port to listen on, overrides config")
	fs.StringVar(&f.backendURL, "backend", "", "chatbot backend base url, overrides config")

	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// loadConfig resolves the config file, loads it with environment overrides, and applies flags last.
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

	if f.port != "" {
		cfg.Port = f.port
	}
	if f.backendURL != "" {
		cfg.Backend.BaseURL = f.backendURL
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}
