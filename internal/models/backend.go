package models

// StatusReport is the body of GET /chat/status. Status is kept as a raw string because the backend
// may report values this client does not know about.
type StatusReport struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Message string `json:"message,omitempty"`
}

// Backend status values understood by the widget.
const (
	BackendStatusReady    = "ready"
	BackendStatusNotReady = "not_ready"
)

// ChatRequest is the body of POST /chat/.
type ChatRequest struct {
	Message     string `json:"message"`
	ShowSources bool   `json:"show_sources"`
}

// ChatReply is the decoded success body of POST /chat/. Sources is never nil.
type ChatReply struct {
	Response string
	Sources  []string
}

// ErrorBody is the body the backend sends along with a non-2xx status.
type ErrorBody struct {
	Detail string `json:"detail,omitempty"`
}
