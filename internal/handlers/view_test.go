package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	chatwidget "github.com/aicourse/chatwidget"
	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	event string
	data  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

type stubBackend struct {
	reply models.ChatReply
	err   error
}

func (p *recordingPublisher) publish(topic, event, data string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, event: event, data: data})
	return nil
}

func (p *recordingPublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

func (p *recordingPublisher) names() []string {
	var out []string
	for _, e := range p.snapshot() {
		out = append(out, e.event)
	}
	return out
}

func (b stubBackend) Status(context.Context) (models.StatusReport, error) {
	return models.StatusReport{Status: models.BackendStatusNotReady, Message: "Vector store is empty."}, nil
}

func (b stubBackend) Chat(context.Context, models.ChatRequest) (models.ChatReply, error) {
	return b.reply, b.err
}

func newRecordingMain(t *testing.T, backend widget.Backend) (Main, *recordingPublisher) {
	t.Helper()

	m, err := NewMain(backend, Config{NotificationTTL: time.Minute}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	rec := &recordingPublisher{}
	m.pub = rec
	return m, rec
}

func TestSSEViewExchange(t *testing.T) {
	m, rec := newRecordingMain(t, stubBackend{reply: models.ChatReply{
		Response: "Paragraph one.\n\n<script>alert(1)</script>",
		Sources:  []string{"docA.pdf", "docB.pdf"},
	}})

	sess, err := m.newSession()
	require.NoError(t, err)

	require.True(t, sess.controller.Submit(context.Background(), "Hi <b>there</b>", true))

	assert.Equal(t, []string{
		"append", "scroll",
		"input", "input", "placeholder", "scroll",
		"remove", "append", "scroll",
		"input", "input",
	}, rec.names())

	events := rec.snapshot()
	for _, e := range events {
		assert.Equal(t, sessionTopic(sess.id), e.topic)
	}

	user := events[0].data
	assert.Contains(t, user, "user-message")
	assert.Contains(t, user, "Hi &lt;b&gt;there&lt;/b&gt;")
	assert.NotContains(t, user, "<b>")

	placeholderID := events[6].data
	assert.True(t, strings.HasPrefix(placeholderID, placeholderIDPrefix))
	assert.Contains(t, events[4].data, `id="`+placeholderID+`"`)

	bot := events[7].data
	assert.Contains(t, bot, "bot-message")
	assert.Contains(t, bot, "<p>Paragraph one.</p>")
	assert.Contains(t, bot, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, bot, "<script>")
	assert.Contains(t, bot, "Sources:")
	assert.Less(t, strings.Index(bot, "docA.pdf"), strings.Index(bot, "docB.pdf"))

	var state inputState
	require.NoError(t, json.Unmarshal([]byte(events[3].data), &state))
	require.NotNil(t, state.Enabled)
	assert.False(t, *state.Enabled)

	require.NoError(t, json.Unmarshal([]byte(events[9].data), &state))
	require.NotNil(t, state.Enabled)
	assert.True(t, *state.Enabled)

	require.NoError(t, json.Unmarshal([]byte(events[10].data), &state))
	assert.True(t, state.Focus)
}

func TestSSEViewNoSourceList(t *testing.T) {
	m, rec := newRecordingMain(t, stubBackend{reply: models.ChatReply{Response: "Answer.", Sources: []string{}}})

	sess, err := m.newSession()
	require.NoError(t, err)
	require.True(t, sess.controller.Submit(context.Background(), "Hi", false))

	bot := rec.snapshot()[7].data
	assert.NotContains(t, bot, "Sources:")
	assert.NotContains(t, bot, "<ul>")
}

func TestSSEViewFailure(t *testing.T) {
	m, rec := newRecordingMain(t, stubBackend{err: errors.New("overloaded")})

	sess, err := m.newSession()
	require.NoError(t, err)
	require.True(t, sess.controller.Submit(context.Background(), "Hi", false))

	var notify []string
	for _, e := range rec.snapshot() {
		if e.event == notifyEvent {
			notify = append(notify, e.data)
		}
	}
	assert.Equal(t, []string{"overloaded"}, notify)
	assert.Contains(t, rec.snapshot()[7].data, widget.FallbackReply)
}

func TestSSEViewStatus(t *testing.T) {
	m, rec := newRecordingMain(t, stubBackend{})

	sess, err := m.newSession()
	require.NoError(t, err)
	sess.controller.CheckReadiness(context.Background())

	events := rec.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, statusEvent, events[0].event)
	assert.Contains(t, events[0].data, "status-checking")
	assert.Equal(t, statusEvent, events[1].event)
	assert.Contains(t, events[1].data, "status-not-ready")
	assert.Contains(t, events[1].data, "Not Ready - Upload documents first")
	assert.Equal(t, notifyEvent, events[2].event)
	assert.Equal(t, "Vector store is empty.", events[2].data)
}

func TestSessionEviction(t *testing.T) {
	m, _ := newRecordingMain(t, stubBackend{})

	now := time.Now()
	m.sessions.now = func() time.Time { return now }

	idle, err := m.newSession()
	require.NoError(t, err)
	streaming, err := m.newSession()
	require.NoError(t, err)
	streaming.attachStream()
	active, err := m.newSession()
	require.NoError(t, err)

	later := now.Add(defaultSessionIdleTimeout + time.Minute)
	m.sessions.now = func() time.Time { return later }
	_, ok := m.sessions.get(active.id)
	require.True(t, ok)

	assert.Equal(t, 1, m.sessions.evictIdleOnce(later))
	assert.Equal(t, 2, m.sessions.len())

	_, ok = m.sessions.get(idle.id)
	assert.False(t, ok)
	_, ok = m.sessions.get(streaming.id)
	assert.True(t, ok)
}

func TestEvictionLoop(t *testing.T) {
	m, _ := newRecordingMain(t, stubBackend{})

	start := time.Now()
	var clock atomic.Int64
	clock.Store(start.UnixNano())
	m.sessions = newSessionRegistry(time.Minute, 5*time.Millisecond)
	m.sessions.now = func() time.Time { return time.Unix(0, clock.Load()) }

	running := func() bool {
		m.sessions.mu.Lock()
		defer m.sessions.mu.Unlock()
		return m.sessions.running
	}

	_, err := m.newSession()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	m.StartEvictionLoop(ctx)
	require.True(t, running())

	clock.Store(start.Add(2 * time.Minute).UnixNano())
	assert.Eventually(t, func() bool { return m.sessions.len() == 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return !running() }, 2*time.Second, 5*time.Millisecond)

	// A stopped loop leaves idle sessions alone.
	_, err = m.newSession()
	require.NoError(t, err)
	clock.Store(start.Add(10 * time.Minute).UnixNano())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, m.sessions.len())

	// And it can be started again.
	ctx, cancel = context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.StartEvictionLoop(ctx)
	assert.Eventually(t, func() bool { return m.sessions.len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestEvictedSessionRejectsSubmit(t *testing.T) {
	m, rec := newRecordingMain(t, stubBackend{reply: models.ChatReply{Response: "Hi"}})

	now := time.Now()
	m.sessions.now = func() time.Time { return now }
	sess, err := m.newSession()
	require.NoError(t, err)

	require.Equal(t, 1, m.sessions.evictIdleOnce(now.Add(defaultSessionIdleTimeout+time.Minute)))

	form := url.Values{sessionIDParam: {sess.id}, "message": {"Hello"}}
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	m.HandleMessages(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, rec.snapshot(), "nothing is pushed for an evicted session")

	// The page script turns the 404 into a notification instead of failing silently.
	script, err := fs.ReadFile(chatwidget.StaticFS, "static/js/widget.js")
	require.NoError(t, err)
	assert.Contains(t, string(script), "res.status === 404")
	assert.Contains(t, string(script), "Session expired. Reload the page to continue.")
}

func TestFormBool(t *testing.T) {
	assert.True(t, formBool("on"))
	assert.True(t, formBool("true"))
	assert.True(t, formBool("1"))
	assert.False(t, formBool(""))
	assert.False(t, formBool("off"))
	assert.False(t, formBool("false"))
}
