package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aicourse/chatwidget/internal/widget"
)

// Options configures Run.
type Options struct {
	ShowSources     bool
	NotificationTTL time.Duration
	Logger          *slog.Logger
}

// Run starts the chat program on the terminal and blocks until the user quits or ctx ends.
func Run(ctx context.Context, backend widget.Backend, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &deps{ctx: ctx}
	program := tea.NewProgram(newModel(d, opts.ShowSources), tea.WithAltScreen(), tea.WithContext(ctx))

	view := newProgramView(program.Send)
	ctrl, err := widget.NewController(backend, view.widgetView(),
		widget.WithLogger(logger),
		widget.WithNotificationTTL(opts.NotificationTTL),
	)
	if err != nil {
		return err
	}
	d.controller = ctrl

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
