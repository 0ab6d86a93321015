package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aicourse/chatwidget/internal/widget"
	"github.com/google/uuid"
)

const (
	defaultSessionIdleTimeout   = 30 * time.Minute
	defaultSessionEvictInterval = time.Minute
)

// session is one widget on one page.
type session struct {
	id         string
	controller *widget.Controller

	mu       sync.Mutex
	lastSeen time.Time
	streams  int
}

type sessionRegistry struct {
	idle     time.Duration
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	running  bool
}

func newSessionRegistry(idle, interval time.Duration) *sessionRegistry {
	if idle <= 0 {
		idle = defaultSessionIdleTimeout
	}
	if interval <= 0 {
		interval = defaultSessionEvictInterval
	}
	return &sessionRegistry{
		idle:     idle,
		interval: interval,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// newSession registers a session whose controller pushes to the session's SSE topic.
func (m Main) newSession() (*session, error) {
	id := uuid.New().String()

	view := newSSEView(m.pub, sessionTopic(id), m.templates, m.logger)
	ctrl, err := widget.NewController(m.backend, view.widgetView(),
		widget.WithLogger(m.logger.With(slog.String("session", id))),
		widget.WithNotificationTTL(m.cfg.NotificationTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	sess := &session{
		id:         id,
		controller: ctrl,
	}
	m.sessions.add(sess)
	return sess, nil
}

func (r *sessionRegistry) add(s *session) {
	s.touch(r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

// get returns the session and marks it as seen.
func (r *sessionRegistry) get(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	s.touch(r.now())
	return s, true
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *sessionRegistry) startEvictionLoop(ctx context.Context, logger *slog.Logger) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.runEvictionLoop(ctx, logger)
}

func (r *sessionRegistry) runEvictionLoop(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return
		case <-ticker.C:
			if n := r.evictIdleOnce(r.now()); n > 0 {
				logger.Debug("Evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

// evictIdleOnce drops sessions that have no open stream, no exchange in flight, and were not seen
// for longer than the idle timeout.
func (r *sessionRegistry) evictIdleOnce(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		if !s.idleSince(now, r.idle) {
			continue
		}
		if s.controller.AwaitingResponse() {
			continue
		}
		s.controller.DismissNotification()
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *session) attachStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams++
}

func (s *session) detachStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streams > 0 {
		s.streams--
	}
	s.lastSeen = time.Now()
}

func (s *session) idleSince(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams == 0 && now.Sub(s.lastSeen) > idle
}
