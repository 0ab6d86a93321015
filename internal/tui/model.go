// Package tui is a terminal host for the chat widget.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aicourse/chatwidget/internal/models"
	"github.com/aicourse/chatwidget/internal/render"
	"github.com/aicourse/chatwidget/internal/widget"
)

// UI configuration constants
const (
	defaultWidth   = 100
	defaultHeight  = 30
	inputCharLimit = 4000
	// inputRowUnits is the share of widget.MaxInputHeight one textarea row stands for.
	inputRowUnits = 20
	// chromeHeight counts the status line, the blank line under it, the notification line and the
	// help line.
	chromeHeight      = 4
	minViewportHeight = 3
)

// deps is shared by every copy of the model. The controller is set after the program exists
// because its view sends to that program.
type deps struct {
	ctx        context.Context
	controller *widget.Controller
}

// entry is a transcript line: a message, or a typing placeholder when placeholderID is set.
type entry struct {
	placeholderID string
	message       models.Message
	rendered      render.Rendered
}

type model struct {
	deps *deps

	input      textarea.Model
	transcript viewport.Model
	spinner    spinner.Model

	entries      []entry
	status       models.Status
	notification string
	showSources  bool
	inputEnabled bool
	inputRows    int

	width  int
	height int
}

func newModel(d *deps, showSources bool) model {
	input := textarea.New()
	input.Placeholder = "Ask a question about the course..."
	input.ShowLineNumbers = false
	input.CharLimit = inputCharLimit
	input.Prompt = "┃ "
	// Plain enter submits; the modified forms insert a line break.
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := model{
		deps:         d,
		input:        input,
		transcript:   viewport.New(defaultWidth, defaultHeight),
		spinner:      s,
		status:       models.Status{Readiness: models.ReadinessChecking},
		showSources:  showSources,
		inputEnabled: true,
		inputRows:    1,
		width:        defaultWidth,
		height:       defaultHeight,
	}
	m.layout()
	return m
}

// Init checks readiness once at start-up (Bubble Tea interface).
func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.checkReadiness())
}

// Update processes messages and updates the model (Bubble Tea interface).
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+s":
			m.showSources = !m.showSources
			return m, nil
		case "ctrl+r":
			return m, m.checkReadiness()
		}
		if msg.Type == tea.KeyEnter && widget.KeyAction("enter", msg.Alt) == widget.ActionSubmit {
			return m, m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case spinner.TickMsg:
		if !m.hasPlaceholder() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case appendMsg:
		m.entries = append(m.entries, entry{message: msg.message, rendered: msg.rendered})
		m.refresh()
		return m, nil

	case placeholderMsg:
		m.entries = append(m.entries, entry{placeholderID: msg.id})
		m.refresh()
		return m, m.spinner.Tick

	case removeMsg:
		m.removePlaceholder(msg.id)
		m.refresh()
		return m, nil

	case scrollMsg:
		m.transcript.GotoBottom()
		return m, nil

	case inputMsg:
		if msg.clear {
			m.input.Reset()
		}
		if msg.enabled != nil {
			m.inputEnabled = *msg.enabled
			if !m.inputEnabled {
				m.input.Blur()
			}
		}
		if msg.focus && m.inputEnabled {
			cmds = append(cmds, m.input.Focus())
		}
		m.resizeInput()
		return m, tea.Batch(cmds...)

	case statusMsg:
		m.status = msg.status
		return m, nil

	case notifyMsg:
		m.notification = msg.text
		return m, nil

	case notifyClearMsg:
		m.notification = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.resizeInput()

	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the program's UI (Bubble Tea interface).
func (m model) View() string {
	sources := "off"
	if m.showSources {
		sources = "on"
	}
	help := dimStyle.Render(fmt.Sprintf(
		"enter send • alt+enter newline • ctrl+s sources: %s • ctrl+r recheck • esc quit", sources))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		"",
		m.transcript.View(),
		errorStyle.Render(sanitize(m.notification)),
		m.input.View(),
		help,
	)
}

func (m model) submit() tea.Cmd {
	text := m.input.Value()
	showSources := m.showSources
	d := m.deps
	return func() tea.Msg {
		d.controller.Submit(d.ctx, text, showSources)
		return nil
	}
}

func (m model) checkReadiness() tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		d.controller.CheckReadiness(d.ctx)
		return nil
	}
}

func (m model) hasPlaceholder() bool {
	for _, e := range m.entries {
		if e.placeholderID != "" {
			return true
		}
	}
	return false
}

func (m *model) removePlaceholder(id string) {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.placeholderID == id {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
}

func (m model) statusLine() string {
	style, ok := statusStyles[string(m.status.Readiness)]
	if !ok {
		style = dimStyle
	}
	line := style.Render("● " + m.status.Label())
	if m.status.Detail != "" {
		line += dimStyle.Render("  " + sanitize(m.status.Detail))
	}
	return boldStyle.Render("Course Assistant") + "  " + line
}

// resizeInput grows the textarea with its content up to the input height cap.
func (m *model) resizeInput() {
	h, _ := widget.InputHeight(m.input.LineCount() * inputRowUnits)
	rows := max(h/inputRowUnits, 1)
	if rows == m.inputRows {
		return
	}
	m.inputRows = rows
	m.layout()
}

func (m *model) layout() {
	m.input.SetWidth(m.width)
	m.input.SetHeight(m.inputRows)

	m.transcript.Width = m.width
	m.transcript.Height = max(m.height-chromeHeight-m.inputRows, minViewportHeight)
	m.refresh()
}

func (m *model) refresh() {
	m.transcript.SetContent(m.renderTranscript())
}

func (m model) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 10))

	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if e.placeholderID != "" {
			sb.WriteString(botStyle.Render("Bot"))
			sb.WriteString("\n")
			sb.WriteString(m.spinner.View() + dimStyle.Render(" thinking..."))
			continue
		}

		if e.message.IsUser() {
			sb.WriteString(userStyle.Render("You"))
		} else {
			sb.WriteString(botStyle.Render("Bot"))
		}
		for j, p := range e.rendered.Paragraphs {
			sb.WriteString("\n")
			if j > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(wrap.Render(sanitize(p)))
		}
		if e.rendered.HasSources() {
			sb.WriteString("\n")
			sb.WriteString(sourceStyle.Render(e.rendered.SourcesLabel()))
			for _, src := range e.rendered.Sources {
				sb.WriteString("\n")
				sb.WriteString(sourceStyle.Render("  • " + sanitize(src)))
			}
		}
	}
	return sb.String()
}

// sanitize drops control characters other than newline and tab so backend text cannot drive the
// terminal.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
