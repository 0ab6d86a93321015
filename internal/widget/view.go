package widget

import (
	"context"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/render"
)

// Backend is the chatbot backend as seen by the controller: one readiness probe and one
// request/response exchange.
type Backend interface {
	Status(ctx context.Context) (models.StatusReport, error)
	Chat(ctx context.Context, request models.ChatRequest) (models.ChatReply, error)
}

// Transcript is the append-only render target. Placeholders are identified by the id returned from
// InsertPlaceholder and are never counted as messages.
type Transcript interface {
	AppendMessage(msg models.Message, rendered render.Rendered)
	InsertPlaceholder() string
	RemovePlaceholder(id string)
	ScrollToEnd()
}

// Input is the text entry affordance. The controller never reads from it: hosts pass the current
// text to Submit.
type Input interface {
	Clear()
	SetEnabled(enabled bool)
	Focus()
}

// StatusIndicator shows the backend readiness.
type StatusIndicator interface {
	SetStatus(status models.Status)
}

// NotificationSurface shows a single transient notification. ShowNotification replaces the text
// when the notification is already visible.
type NotificationSurface interface {
	ShowNotification(text string)
	HideNotification()
}

// View bundles the collaborators a controller drives. All fields are required. Notifications are
// hidden from a timer goroutine, so implementations must tolerate calls from any goroutine.
type View struct {
	Transcript    Transcript
	Input         Input
	Status        StatusIndicator
	Notifications NotificationSurface
}
