package widget_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/render"
	"github.com/aicourse/chatwidget/internal/widget"
)

type fakeBackend struct {
	mu        sync.Mutex
	chatCalls []models.ChatRequest
	statusN   int

	// release, when set, blocks Chat until a value is sent or the channel is closed.
	release chan struct{}
	// started receives one value per Chat call before it blocks.
	started chan struct{}

	reply     models.ChatReply
	chatErr   error
	chatPanic any

	report    models.StatusReport
	statusErr error
	// statusFunc, when set, answers Status instead of report and statusErr. n counts calls from 1.
	statusFunc func(n int) (models.StatusReport, error)
}

type event struct {
	kind string
	arg  string
}

// fakeView records every mutation in order.
type fakeView struct {
	mu     sync.Mutex
	events []event

	placeholders map[string]bool
	nextID       int

	enabled  bool
	focused  bool
	status   models.Status
	notice   string
	hasNote  bool
	rendered []render.Rendered
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (b *fakeBackend) Status(ctx context.Context) (models.StatusReport, error) {
	b.mu.Lock()
	b.statusN++
	n := b.statusN
	statusFunc := b.statusFunc
	b.mu.Unlock()

	if statusFunc != nil {
		return statusFunc(n)
	}
	return b.report, b.statusErr
}

func (b *fakeBackend) Chat(ctx context.Context, request models.ChatRequest) (models.ChatReply, error) {
	b.mu.Lock()
	b.chatCalls = append(b.chatCalls, request)
	release := b.release
	started := b.started
	b.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if b.chatPanic != nil {
		panic(b.chatPanic)
	}
	return b.reply, b.chatErr
}

func (b *fakeBackend) calls() []models.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.ChatRequest(nil), b.chatCalls...)
}

func newFakeView() *fakeView {
	return &fakeView{
		placeholders: map[string]bool{},
		enabled:      true,
	}
}

func (v *fakeView) view() widget.View {
	return widget.View{
		Transcript:    v,
		Input:         v,
		Status:        v,
		Notifications: v,
	}
}

func (v *fakeView) record(kind, arg string) {
	v.events = append(v.events, event{kind: kind, arg: arg})
}

func (v *fakeView) AppendMessage(msg models.Message, rendered render.Rendered) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rendered = append(v.rendered, rendered)
	v.record("append:"+string(msg.Sender), msg.Text)
}

func (v *fakeView) InsertPlaceholder() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	id := fmt.Sprintf("typing-%d", v.nextID)
	v.placeholders[id] = true
	v.record("placeholder", id)
	return id
}

func (v *fakeView) RemovePlaceholder(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.placeholders, id)
	v.record("remove", id)
}

func (v *fakeView) ScrollToEnd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("scroll", "")
}

func (v *fakeView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("clear", "")
}

func (v *fakeView) SetEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled
	v.record("enabled", fmt.Sprint(enabled))
}

func (v *fakeView) Focus() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused = true
	v.record("focus", "")
}

func (v *fakeView) SetStatus(status models.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
	v.record("status", string(status.Readiness))
}

func (v *fakeView) ShowNotification(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notice = text
	v.hasNote = true
	v.record("notify", text)
}

func (v *fakeView) HideNotification() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notice = ""
	v.hasNote = false
	v.record("notify-hide", "")
}

func (v *fakeView) snapshot() []event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]event(nil), v.events...)
}

func (v *fakeView) placeholderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.placeholders)
}

func (v *fakeView) notification() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notice, v.hasNote
}

func (v *fakeView) input() (enabled, focused bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled, v.focused
}

func (v *fakeView) kinds() []string {
	var out []string
	for _, e := range v.snapshot() {
		out = append(out, e.kind)
	}
	return out
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) widget.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock and runs due timers outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}
