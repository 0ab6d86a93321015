package tui

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/render"
	"github.com/aicourse/chatwidget/internal/widget"
)

// Messages carrying controller mutations into the bubbletea event loop.
type (
	appendMsg struct {
		message  models.Message
		rendered render.Rendered
	}
	placeholderMsg struct{ id string }
	removeMsg      struct{ id string }
	scrollMsg      struct{}
	inputMsg       struct {
		clear   bool
		enabled *bool
		focus   bool
	}
	statusMsg      struct{ status models.Status }
	notifyMsg      struct{ text string }
	notifyClearMsg struct{}
)

// programView forwards every mutation to the program with send. bubbletea serializes them on its
// event loop, so the model is only ever touched from one goroutine.
type programView struct {
	send func(tea.Msg)

	nextPlaceholder atomic.Uint64
}

func newProgramView(send func(tea.Msg)) *programView {
	return &programView{send: send}
}

func (v *programView) widgetView() widget.View {
	return widget.View{
		Transcript:    v,
		Input:         v,
		Status:        v,
		Notifications: v,
	}
}

func (v *programView) AppendMessage(msg models.Message, rendered render.Rendered) {
	v.send(appendMsg{message: msg, rendered: rendered})
}

func (v *programView) InsertPlaceholder() string {
	id := fmt.Sprintf("typing-%d", v.nextPlaceholder.Add(1))
	v.send(placeholderMsg{id: id})
	return id
}

func (v *programView) RemovePlaceholder(id string) {
	v.send(removeMsg{id: id})
}

func (v *programView) ScrollToEnd() {
	v.send(scrollMsg{})
}

func (v *programView) Clear() {
	v.send(inputMsg{clear: true})
}

func (v *programView) SetEnabled(enabled bool) {
	v.send(inputMsg{enabled: &enabled})
}

func (v *programView) Focus() {
	v.send(inputMsg{focus: true})
}

func (v *programView) SetStatus(status models.Status) {
	v.send(statusMsg{status: status})
}

func (v *programView) ShowNotification(text string) {
	v.send(notifyMsg{text: text})
}

func (v *programView) HideNotification() {
	v.send(notifyClearMsg{})
}
