package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/widget"
)

type homePageData struct {
	SessionID      string
	Status         statusData
	ShowSources    bool
	MaxInputHeight int
}

// HandleHome renders the chat page. Each load starts a fresh session, so a reload starts a fresh
// conversation.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := m.newSession()
	if err != nil {
		m.logger.Error("Failed to create session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := homePageData{
		SessionID:      sess.id,
		Status:         newStatusData(models.Status{Readiness: models.ReadinessChecking}),
		ShowSources:    m.cfg.ShowSources,
		MaxInputHeight: widget.MaxInputHeight,
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to render home", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
