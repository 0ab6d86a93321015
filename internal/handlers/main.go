package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	chatwidget "github.com/aicourse/chatwidget"
	"github.com/aicourse/chatwidget/internal/widget"
	"github.com/tmaxmax/go-sse"
)

// Config holds the web host settings that are not part of the backend client.
type Config struct {
	// NotificationTTL is how long a notification stays on the page.
	NotificationTTL time.Duration
	// ShowSources is the initial state of the "show sources" checkbox.
	ShowSources bool
	// SessionIdleTimeout is how long a session without an open stream survives.
	SessionIdleTimeout time.Duration
	// SessionEvictInterval is how often idle sessions are swept.
	SessionEvictInterval time.Duration
}

// publisher delivers one event to one topic.
type publisher interface {
	publish(topic, event, data string) error
}

type ssePublisher struct {
	srv *sse.Server
}

func (p ssePublisher) publish(topic, event, data string) error {
	msg := sse.Message{
		Type: sse.Type(event),
	}
	msg.AppendData(data)
	return p.srv.Publish(&msg, topic)
}

// Main serves the chat widget. Every page load starts a session with its own controller; the
// controller's view mutations are rendered server side and pushed to that page over SSE.
type Main struct {
	sseSrv    *sse.Server
	pub       publisher
	templates *template.Template

	backend  widget.Backend
	sessions *sessionRegistry
	cfg      Config

	// ctx bounds backend calls made on behalf of sessions. It outlives the HTTP request that
	// triggered them and ends on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger
}

const (
	errLoggerKey = "err"

	sessionIDParam = "session_id"
)

// NewMain creates a Main backed by backend. It parses the embedded templates and configures the
// SSE server so that each stream subscribes to the topic of the session named in its query.
func NewMain(backend widget.Backend, cfg Config, logger *slog.Logger) (Main, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return Main{}, err
	}

	m := Main{
		templates: tmpl,
		backend:   backend,
		sessions:  newSessionRegistry(cfg.SessionIdleTimeout, cfg.SessionEvictInterval),
		cfg:       cfg,
		logger:    logger.With(slog.String("module", "handlers")),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.sseSrv = &sse.Server{
		Provider: &sse.Joe{
			Replayer: streamOpener{sessions: m.sessions, ctx: m.ctx},
		},
		OnSession: func(s *sse.Session) (sse.Subscription, bool) {
			sess, ok := m.sessions.get(s.Req.URL.Query().Get(sessionIDParam))
			if !ok {
				return sse.Subscription{}, false
			}

			sess.attachStream()
			go func() {
				<-s.Req.Context().Done()
				sess.detachStream()
			}()

			return sse.Subscription{
				Client:      s,
				LastEventID: s.LastEventID,
				Topics:      []string{sse.DefaultTopic, sessionTopic(sess.id)},
			}, true
		},
	}
	m.pub = ssePublisher{srv: m.sseSrv}

	return m, nil
}

// streamOpener hooks stream registration in the SSE provider. Replay runs on the provider's
// goroutine right before the stream starts receiving, so every event published after it reaches
// the new stream.
type streamOpener struct {
	sessions *sessionRegistry
	ctx      context.Context
}

func (o streamOpener) Put(msg *sse.Message, _ []string) (*sse.Message, error) {
	return msg, nil
}

// Replay sends the response headers, which lets the page see the stream open, and starts the
// session's readiness check.
func (o streamOpener) Replay(sub sse.Subscription) error {
	if err := sub.Client.Flush(); err != nil {
		return err
	}

	s, ok := sub.Client.(*sse.Session)
	if !ok {
		return nil
	}
	sess, ok := o.sessions.get(s.Req.URL.Query().Get(sessionIDParam))
	if !ok {
		return nil
	}
	// The check publishes through the provider, so it must not run on the provider's goroutine.
	go sess.controller.CheckReadiness(o.ctx)
	return nil
}

func parseTemplates() (*template.Template, error) {
	// Layout, pages and partials live in separate directories; partials are also rendered on
	// their own for SSE pushes.
	tmpl, err := template.ParseFS(
		chatwidget.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

func sessionTopic(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// StartEvictionLoop sweeps idle sessions until ctx ends.
func (m Main) StartEvictionLoop(ctx context.Context) {
	m.sessions.startEvictionLoop(ctx, m.logger)
}

// Shutdown gracefully terminates the Main instance. It cancels outstanding backend calls, tells
// every page to close its stream, and waits up to 5 seconds for SSE connections to terminate.
func (m Main) Shutdown(ctx context.Context) error {
	m.cancel()

	e := &sse.Message{Type: sse.Type("close")}
	// Browsers drop events that carry no data.
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}
