package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
)

// HandleMessages submits the "message" form field of a session to its controller. It answers 202
// when an exchange started and 204 when the controller dropped the submit because the text was
// blank or an exchange is already in flight. The outcome reaches the page over SSE.
func (m Main) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.sessions.get(r.FormValue(sessionIDParam))
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	msg := r.FormValue("message")
	showSources := formBool(r.FormValue("show_sources"))

	if _, started := sess.controller.SubmitAsync(m.ctx, msg, showSources); !started {
		m.logger.Debug("Submit dropped", slog.String("session", sess.id))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleStatus starts a readiness check for a session. The result is pushed over SSE.
func (m Main) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, ok := m.sessions.get(r.FormValue(sessionIDParam))
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	go sess.controller.CheckReadiness(m.ctx)

	w.WriteHeader(http.StatusAccepted)
}

// HandleSSE serves the session event stream.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// formBool accepts the values a checkbox or a script may send.
func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
