// Package widget implements the chat session controller: it turns user input into a rendered
// conversation with the backend, allowing at most one exchange in flight, and reports backend
// readiness. Hosts (the web server, the terminal client) provide the View it drives.
package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/render"
)

// FallbackReply is the bot message appended when an exchange fails.
const FallbackReply = "Sorry, I encountered an error processing your request. Please try again."

const errLoggerKey = "err"

// Controller is one chat widget. It owns the single-flight flag and the transcript; nothing else
// mutates them.
type Controller struct {
	backend  Backend
	view     View
	notifier *Notifier

	logger *slog.Logger

	// mu guards the fields below and serializes every view mutation. It is never held across a
	// backend call.
	mu               sync.Mutex
	awaitingResponse bool
	messages         []models.Message
	status           models.Status
	// readinessGen identifies the latest readiness check; older checks drop their result.
	readinessGen uint64
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	notificationTTL time.Duration
	afterFunc       AfterFunc
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNotificationTTL sets how long notifications stay visible.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.notificationTTL = ttl
	}
}

// WithAfterFunc replaces the clock used to expire notifications.
func WithAfterFunc(f AfterFunc) Option {
	return func(o *options) {
		o.afterFunc = f
	}
}

// NewController creates a controller bound to backend and view. The initial status is checking.
func NewController(backend Backend, view View, opts ...Option) (*Controller, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if view.Transcript == nil || view.Input == nil || view.Status == nil || view.Notifications == nil {
		return nil, errors.New("view is incomplete: transcript, input, status and notifications are required")
	}

	o := options{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		notificationTTL: DefaultNotificationTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Controller{
		backend:  backend,
		view:     view,
		notifier: NewNotifier(view.Notifications, o.notificationTTL, o.afterFunc),
		logger:   o.logger.With(slog.String("module", "widget")),
		status:   models.Status{Readiness: models.ReadinessChecking},
	}, nil
}

// CheckReadiness queries the backend status and updates the indicator. The indicator shows checking
// while the query is outstanding. Failures never escape: they become ReadinessError plus a
// notification. When checks overlap only the latest one updates the indicator; an older check
// returns the status current at the time it finished.
func (c *Controller) CheckReadiness(ctx context.Context) models.Status {
	c.mu.Lock()
	c.readinessGen++
	gen := c.readinessGen
	c.setStatusLocked(models.Status{Readiness: models.ReadinessChecking})
	c.mu.Unlock()

	report, err := c.backend.Status(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.readinessGen {
		c.logger.Debug("Dropping result of superseded readiness check")
		return c.status
	}

	if err != nil {
		c.logger.Error("Failed to check status", slog.String(errLoggerKey, err.Error()))
		status := models.Status{Readiness: models.ReadinessError, Detail: err.Error()}
		c.setStatusLocked(status)
		c.notifier.Notify(fmt.Sprintf("Connection error: %s", err.Error()))
		return status
	}

	var status models.Status
	switch report.Status {
	case models.BackendStatusReady:
		status = models.Status{Readiness: models.ReadinessReady}
	case models.BackendStatusNotReady:
		detail := report.Message
		if detail == "" {
			detail = "Chatbot is not ready"
		}
		status = models.Status{Readiness: models.ReadinessNotReady, Detail: detail}
	default:
		c.logger.Debug("Unknown backend status", slog.String("status", report.Status))
		status = models.Status{Readiness: models.ReadinessChecking}
	}

	c.setStatusLocked(status)
	if status.Readiness == models.ReadinessNotReady {
		c.notifier.Notify(status.Detail)
	}
	return status
}

// Submit sends rawText to the backend and blocks until the exchange settles. It returns false,
// without touching the view or the network, when the trimmed text is empty or another exchange is
// in flight.
func (c *Controller) Submit(ctx context.Context, rawText string, includeSources bool) bool {
	done, ok := c.SubmitAsync(ctx, rawText, includeSources)
	if !ok {
		return false
	}
	<-done
	return true
}

// SubmitAsync is Submit without the wait. The user message and the typing placeholder are in the
// transcript when it returns; the exchange runs on its own goroutine and the returned channel is
// closed once it has settled and the input is usable again.
func (c *Controller) SubmitAsync(ctx context.Context, rawText string, includeSources bool) (<-chan struct{}, bool) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, false
	}

	c.mu.Lock()
	if c.awaitingResponse {
		c.mu.Unlock()
		c.logger.Debug("Submit dropped, exchange in flight")
		return nil, false
	}
	c.awaitingResponse = true

	userMsg, err := models.NewMessage(models.SenderUser, text, nil)
	if err != nil {
		// Unreachable: text is non-empty.
		c.awaitingResponse = false
		c.mu.Unlock()
		return nil, false
	}
	c.renderLocked(userMsg)
	c.view.Input.Clear()
	c.view.Input.SetEnabled(false)
	placeholderID := c.view.Transcript.InsertPlaceholder()
	c.view.Transcript.ScrollToEnd()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.exchange(ctx, models.ChatRequest{Message: text, ShowSources: includeSources}, placeholderID)
	}()

	return done, true
}

// RenderMessage appends msg to the transcript and scrolls to it.
func (c *Controller) RenderMessage(msg models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.renderLocked(msg)
}

// Notify shows a transient notification. See Notifier.
func (c *Controller) Notify(text string) {
	c.notifier.Notify(text)
}

// DismissNotification hides the current notification, if any.
func (c *Controller) DismissNotification() {
	c.notifier.Dismiss()
}

// AwaitingResponse reports whether an exchange is in flight.
func (c *Controller) AwaitingResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaitingResponse
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Status returns the current readiness status.
func (c *Controller) Status() models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) exchange(ctx context.Context, request models.ChatRequest, placeholderID string) {
	defer c.finishExchange()

	reply, err := c.callChat(ctx, request)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.Transcript.RemovePlaceholder(placeholderID)

	var botMsg models.Message
	if err == nil {
		botMsg, err = models.NewMessage(models.SenderBot, reply.Response, reply.Sources)
		if err != nil {
			err = errors.New("backend returned an empty response")
		}
	}
	if err != nil {
		c.logger.Error("Chat exchange failed", slog.String(errLoggerKey, err.Error()))
		fallback, _ := models.NewMessage(models.SenderBot, FallbackReply, nil)
		c.renderLocked(fallback)
		c.notifier.Notify(err.Error())
		return
	}

	c.renderLocked(botMsg)
}

// callChat turns a panicking backend into an ordinary failure so the exchange still settles.
func (c *Controller) callChat(ctx context.Context, request models.ChatRequest) (reply models.ChatReply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat request panicked: %v", r)
		}
	}()
	return c.backend.Chat(ctx, request)
}

func (c *Controller) finishExchange() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.awaitingResponse = false
	c.view.Input.SetEnabled(true)
	c.view.Input.Focus()
}

func (c *Controller) renderLocked(msg models.Message) {
	c.messages = append(c.messages, msg)
	c.view.Transcript.AppendMessage(msg, render.Render(msg.Text, msg.Sources))
	c.view.Transcript.ScrollToEnd()
}

func (c *Controller) setStatusLocked(status models.Status) {
	c.status = status
	c.view.Status.SetStatus(status)
}
