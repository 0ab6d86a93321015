package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aicourse/chatwidget/internal/models"
)

const (
	statusPath = "/chat/status"
	chatPath   = "/chat/"

	// maxBodySize bounds how much of a backend response is read.
	maxBodySize = 4 << 20

	fallbackErrorDetail = "Failed to get response"
)

// RAGBackend is an HTTP client for the chatbot backend. It only knows the two endpoints the widget
// uses: the readiness probe and the chat exchange.
type RAGBackend struct {
	baseURL string
	client  *http.Client

	logger *slog.Logger
}

// TransportError is returned when the request could not be sent or no response was received.
type TransportError struct {
	Op  string
	Err error
}

// ProtocolError is returned when the backend answered with a non-2xx status. Detail holds the
// backend's user-facing error text, or a generic phrase when the body had none.
type ProtocolError struct {
	StatusCode int
	Detail     string
}

// DecodeError is returned when a response body is not valid JSON or lacks required fields.
type DecodeError struct {
	Op  string
	Err error
}

// NewRAGBackend creates a client for the backend at baseURL. A zero timeout leaves requests
// unbounded.
func NewRAGBackend(baseURL string, timeout time.Duration, logger *slog.Logger) (RAGBackend, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return RAGBackend{}, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return RAGBackend{}, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}

	return RAGBackend{
		baseURL: strings.TrimRight(u.String(), "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("module", "rag")),
	}, nil
}

// Status queries GET /chat/status.
func (r RAGBackend) Status(ctx context.Context) (models.StatusReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+statusPath, nil)
	if err != nil {
		return models.StatusReport{}, &TransportError{Op: "status", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	body, code, err := r.do(req, "status")
	if err != nil {
		return models.StatusReport{}, err
	}
	if code < 200 || code > 299 {
		return models.StatusReport{}, protocolError(code, body)
	}

	var report models.StatusReport
	if err := json.Unmarshal(body, &report); err != nil {
		return models.StatusReport{}, &DecodeError{Op: "status", Err: err}
	}

	r.logger.Debug("Status received", slog.String("status", report.Status))
	return report, nil
}

// Chat sends one message with POST /chat/ and returns the decoded reply.
func (r RAGBackend) Chat(ctx context.Context, request models.ChatRequest) (models.ChatReply, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return models.ChatReply{}, &TransportError{Op: "chat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, code, err := r.do(req, "chat")
	if err != nil {
		return models.ChatReply{}, err
	}
	if code < 200 || code > 299 {
		pErr := protocolError(code, body)
		r.logger.Warn("Chat rejected",
			slog.Int("statusCode", code),
			slog.String("detail", pErr.Detail))
		return models.ChatReply{}, pErr
	}

	// Pointer fields let us tell a missing "response" from an empty one.
	var raw struct {
		Response *string  `json:"response"`
		Sources  []string `json:"sources"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.ChatReply{}, &DecodeError{Op: "chat", Err: err}
	}
	if raw.Response == nil {
		return models.ChatReply{}, &DecodeError{Op: "chat", Err: errors.New(`missing "response" field`)}
	}

	sources := raw.Sources
	if sources == nil {
		sources = []string{}
	}
	return models.ChatReply{
		Response: *raw.Response,
		Sources:  sources,
	}, nil
}

func (r RAGBackend) do(req *http.Request, op string) ([]byte, int, error) {
	res, err := r.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, res.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, res.StatusCode, nil
}

func protocolError(code int, body []byte) *ProtocolError {
	var eb models.ErrorBody
	detail := fallbackErrorDetail
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		detail = eb.Detail
	}
	return &ProtocolError{StatusCode: code, Detail: detail}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Error returns the backend's detail text unchanged so it can be shown to the user as is.
func (e *ProtocolError) Error() string {
	return e.Detail
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
