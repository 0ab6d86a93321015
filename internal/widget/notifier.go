package widget

import (
	"sync"
	"time"
)

// DefaultNotificationTTL is how long a notification stays visible after it was last shown.
const DefaultNotificationTTL = 5 * time.Second

// Timer is the part of *time.Timer the notifier needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It has the shape of time.AfterFunc so tests can substitute a fake
// clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Notifier keeps at most one notification on a surface and hides it ttl after the last Notify.
type Notifier struct {
	surface   NotificationSurface
	ttl       time.Duration
	afterFunc AfterFunc

	mu         sync.Mutex
	visible    bool
	text       string
	generation uint64
	timer      Timer
}

// NewNotifier returns a notifier for surface. A nil afterFunc uses the real clock.
func NewNotifier(surface NotificationSurface, ttl time.Duration, afterFunc AfterFunc) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &Notifier{
		surface:   surface,
		ttl:       ttl,
		afterFunc: afterFunc,
	}
}

// Notify shows text, replacing any visible notification, and restarts the expiry.
func (n *Notifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.generation++
	gen := n.generation
	if n.timer != nil {
		n.timer.Stop()
	}

	n.text = text
	n.visible = true
	n.surface.ShowNotification(text)

	n.timer = n.afterFunc(n.ttl, func() { n.expire(gen) })
}

// Dismiss hides the notification at once, if one is visible.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.generation++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.hideLocked()
}

// Current returns the visible notification text and whether one is visible.
func (n *Notifier) Current() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text, n.visible
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// A newer Notify owns the surface now.
	if gen != n.generation {
		return
	}
	n.timer = nil
	n.hideLocked()
}

func (n *Notifier) hideLocked() {
	if !n.visible {
		return
	}
	n.visible = false
	n.text = ""
	n.surface.HideNotification()
}
