package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/render"
	"github.com/aicourse/chatwidget/internal/widget"
	"github.com/google/uuid"
)

// SSE event types pushed to a session page.
const (
	appendEvent      = "append"
	placeholderEvent = "placeholder"
	removeEvent      = "remove"
	scrollEvent      = "scroll"
	statusEvent      = "status"
	notifyEvent      = "notify"
	notifyClearEvent = "notify-clear"
	inputEvent       = "input"

	placeholderIDPrefix = "typing-"
)

// sseView renders controller mutations with the partial templates and publishes them to one
// session topic. html/template escapes every message byte, so backend text never becomes markup.
type sseView struct {
	pub       publisher
	topic     string
	templates *template.Template

	logger *slog.Logger
}

type messageData struct {
	ID           string
	Sender       string
	Paragraphs   []string
	Sources      []string
	SourcesLabel string
	Timestamp    time.Time
}

type statusData struct {
	Class  string
	Label  string
	Detail string
}

type inputState struct {
	Enabled *bool `json:"enabled,omitempty"`
	Focus   bool  `json:"focus,omitempty"`
	Clear   bool  `json:"clear,omitempty"`
}

func newSSEView(pub publisher, topic string, templates *template.Template, logger *slog.Logger) *sseView {
	return &sseView{
		pub:       pub,
		topic:     topic,
		templates: templates,
		logger:    logger.With(slog.String("topic", topic)),
	}
}

func (v *sseView) widgetView() widget.View {
	return widget.View{
		Transcript:    v,
		Input:         v,
		Status:        v,
		Notifications: v,
	}
}

func newStatusData(status models.Status) statusData {
	return statusData{
		Class:  "status-" + strings.ReplaceAll(string(status.Readiness), "_", "-"),
		Label:  status.Label(),
		Detail: status.Detail,
	}
}

func (v *sseView) AppendMessage(msg models.Message, rendered render.Rendered) {
	v.publishTemplate(appendEvent, "message", messageData{
		ID:           msg.ID,
		Sender:       string(msg.Sender),
		Paragraphs:   rendered.Paragraphs,
		Sources:      rendered.Sources,
		SourcesLabel: rendered.SourcesLabel(),
		Timestamp:    msg.Timestamp,
	})
}

func (v *sseView) InsertPlaceholder() string {
	id := placeholderIDPrefix + uuid.New().String()
	v.publishTemplate(placeholderEvent, "typing", id)
	return id
}

func (v *sseView) RemovePlaceholder(id string) {
	v.publish(removeEvent, id)
}

func (v *sseView) ScrollToEnd() {
	v.publish(scrollEvent, "end")
}

func (v *sseView) Clear() {
	v.publishInput(inputState{Clear: true})
}

func (v *sseView) SetEnabled(enabled bool) {
	v.publishInput(inputState{Enabled: &enabled})
}

func (v *sseView) Focus() {
	v.publishInput(inputState{Focus: true})
}

func (v *sseView) SetStatus(status models.Status) {
	v.publishTemplate(statusEvent, "status", newStatusData(status))
}

// ShowNotification sends the text as data; the page assigns it with textContent.
func (v *sseView) ShowNotification(text string) {
	v.publish(notifyEvent, text)
}

func (v *sseView) HideNotification() {
	v.publish(notifyClearEvent, "bye")
}

func (v *sseView) publishTemplate(event, name string, data any) {
	var sb strings.Builder
	if err := v.templates.ExecuteTemplate(&sb, name, data); err != nil {
		v.logger.Error("Failed to execute template",
			slog.String("template", name),
			slog.String(errLoggerKey, err.Error()))
		return
	}
	v.publish(event, sb.String())
}

func (v *sseView) publishInput(state inputState) {
	b, err := json.Marshal(state)
	if err != nil {
		v.logger.Error("Failed to marshal input state", slog.String(errLoggerKey, err.Error()))
		return
	}
	v.publish(inputEvent, string(b))
}

func (v *sseView) publish(event, data string) {
	if err := v.pub.publish(v.topic, event, data); err != nil {
		v.logger.Error("Failed to publish",
			slog.String("event", event),
			slog.String(errLoggerKey, err.Error()))
	}
}
