// Package tui renders a conversation in the terminal.
package tui

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/model/document"
	chatservice "github.com/zhouzirui/ai-studio/internal/service/chat"
	"github.com/zhouzirui/ai-studio/internal/service/session"
)

// HealthChecker is satisfied by *backend.Client.
type HealthChecker interface {
	Health(ctx context.Context) error
	BaseURL() string
}

// Options tune the presentation.
type Options struct {
	// Markdown renders bot replies through glamour instead of plain wrapped text.
	Markdown bool
	// StartDir is where the file picker opens. Defaults to the working directory.
	StartDir string
}

type (
	storeChangedMsg struct{}
	healthMsg       struct{ err error }
)

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx     context.Context
	ctrl    *session.Controller
	health  HealthChecker
	logger  *zap.Logger
	opts    Options
	changes chan struct{}
	cancel  func()

	input    textinput.Model
	viewport viewport.Model
	picker   filepicker.Model
	renderer *glamour.TermRenderer
	styles   Styles

	picking     bool
	alert       string
	backendNote string
	width       int
	height      int
	ready       bool
}

// New builds the chat screen for ctrl. Call Close when the program exits.
func New(ctx context.Context, ctrl *session.Controller, health HealthChecker, logger *zap.Logger, opts Options) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StartDir == "" {
		opts.StartDir, _ = os.Getwd()
	}

	ti := textinput.New()
	ti.Placeholder = "Type a message... (Enter send, Ctrl+O pick file, Ctrl+U upload, Esc quit)"
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.Focus()

	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		health:   health,
		logger:   logger,
		opts:     opts,
		changes:  make(chan struct{}, 1),
		input:    ti,
		viewport: viewport.New(80, 20),
		picker:   newPicker(opts.StartDir),
		styles:   DefaultStyles(),
	}

	// Coalesce store events into a single pending redraw signal.
	m.cancel = ctrl.Store().Subscribe(func(chatservice.Event) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	m.refresh()
	return m
}

func newPicker(dir string) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = document.AcceptedExtensions
	fp.CurrentDirectory = dir
	fp.Height = 15
	return fp
}

// Close detaches the model from the conversation store.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return storeChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) checkHealth() tea.Cmd {
	if m.health == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 3*time.Second)
		defer cancel()
		return healthMsg{err: m.health.Health(ctx)}
	}
}

// Init starts listening for store changes and probes the backend.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange(), m.checkHealth())
}

// Update handles input, store changes and window resizes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case healthMsg:
		if msg.err != nil {
			m.backendNote = "backend unreachable: " + m.health.BaseURL()
			m.logger.Warn("backend health check failed", zap.Error(msg.err))
		} else {
			m.backendNote = "connected to " + m.health.BaseURL()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		// The warning blocks until acknowledged; the acknowledging key is swallowed.
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)
	}

	if m.picking {
		return m.updatePicker(msg)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if _, err := m.ctrl.Send(m.ctx); err != nil && !errors.Is(err, session.ErrEmptyInput) {
			m.logger.Warn("send not dispatched", zap.Error(err))
		}
		return m, nil

	case tea.KeyCtrlO:
		m.picking = true
		m.picker = newPicker(m.opts.StartDir)
		m.picker.Height = max(m.height-6, 5)
		return m, m.picker.Init()

	case tea.KeyCtrlU:
		if _, err := m.ctrl.Upload(m.ctx); err != nil {
			if errors.Is(err, session.ErrNoFileSelected) {
				m.alert = session.NoFileWarning
				return m, nil
			}
			m.logger.Warn("upload not dispatched", zap.Error(err))
		}
		return m, nil

	case tea.KeyCtrlX:
		m.ctrl.Store().ClearDraftFile()
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.ctrl.Store().SetDraftText(m.input.Value())
	}
	return m, cmd
}

func (m *Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.picking = false
		file, err := document.FromPath(path)
		if err != nil {
			m.logger.Warn("file selection failed", zap.String("path", path), zap.Error(err))
			return m, nil
		}
		m.ctrl.Store().SetDraftFile(file)
		return m, nil
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	vpHeight := max(height-headerHeight-footerHeight, 3)
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = max(width-4, 10)

	if m.opts.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(width-8, 20)),
		)
		if err != nil {
			m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		} else {
			m.renderer = renderer
		}
	}
	m.refresh()
}

// refresh re-renders the transcript, syncs the input with the draft and
// scrolls to the newest message.
func (m *Model) refresh() {
	draft := m.ctrl.Store().Draft()
	if draft.Text != m.input.Value() {
		m.input.SetValue(draft.Text)
		m.input.CursorEnd()
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
