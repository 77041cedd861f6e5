// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
	"github.com/jeranaias/giasu-tui/internal/telemetry"
	"github.com/jeranaias/giasu-tui/internal/ui/styles"
)

const (
	inputPlaceholder = "Nhập câu hỏi... (/help để xem lệnh)"
	pathPlaceholder  = "Đường dẫn tới ảnh (Esc để hủy)"
	inputCharLimit   = 4000
	inputHeight      = 3
)

// =============================================================================
// MODEL
// =============================================================================

// Deps are the collaborators of the chat view.
type Deps struct {
	Backend session.Backend
	State   *session.State
	Config  *config.Config

	// Camera enables /camera. Nil disables it.
	Camera capture.Camera

	// Stats feeds the request counters in the status bar. Nil hides them.
	Stats *telemetry.Stats

	// Context bounds every backend request. Nil uses context.Background.
	Context context.Context
}

// Model is the Bubble Tea model for one tutoring session.
type Model struct {
	ctrl   *session.Controller
	state  *session.State
	bridge *Bridge
	cfg    *config.Config
	camera capture.Camera
	stats  *telemetry.Stats
	ctx    context.Context

	theme    *styles.Theme
	renderer *format.TerminalRenderer
	keys     KeyMap
	help     help.Model

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// messages mirrors what the controller has shown, in order.
	messages []model.ChatMessage
	pending  int

	attachment *capture.Image
	pathPrompt bool
	draft      string
	showHelp   bool
	notice     string
	noticeErr  bool

	width  int
	height int
	ready  bool
}

// New builds the chat model and its session controller.
func New(deps Deps) (Model, error) {
	if deps.Backend == nil {
		return Model{}, errors.New("chat: backend is required")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	state := deps.State
	if state == nil {
		state = session.NewState(nil)
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	bridge := NewBridge()
	ctrl, err := session.New(session.Config{
		Backend:     deps.Backend,
		State:       state,
		Bindings:    bridge.Bindings(),
		Welcome:     cfg.Tutor.WelcomeMessage,
		KeepWelcome: cfg.Tutor.KeepWelcome,
	})
	if err != nil {
		return Model{}, err
	}

	dark := state.DarkMode()
	renderer := format.NewTerminalRenderer(80, dark)
	renderer.SetMarkdown(cfg.UI.Markdown)

	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = inputCharLimit
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	keys := DefaultKeyMap()
	keys.setModeKeys(state.Mode().HasSolutionModes())

	m := Model{
		ctrl:     ctrl,
		state:    state,
		bridge:   bridge,
		cfg:      cfg,
		camera:   deps.Camera,
		stats:    deps.Stats,
		ctx:      ctx,
		theme:    styles.NewTheme(dark),
		renderer: renderer,
		keys:     keys,
		help:     help.New(),
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		messages: state.History.Messages(),
	}
	m.spinner.Style = m.theme.Spinner
	return m, nil
}

// Init starts the cursor blink and the bridge listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.bridge.Listen())
}

// Controller returns the session controller driving this view.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Busy reports whether any request is in flight.
func (m Model) Busy() bool {
	return m.pending > 0
}

// Attachment returns the image attached to the next submit, if any.
func (m Model) Attachment() *capture.Image {
	return m.attachment
}

// =============================================================================
// LAYOUT
// =============================================================================

// handleResize sizes the viewport to what header, input and status leave.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	const (
		headerHeight = 2
		inputArea    = inputHeight + 2 // border + attachment line
		statusHeight = 2               // status + help line
	)

	vpHeight := m.height - headerHeight - inputArea - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.SetWidth(width)
	m.help.Width = width
	// Bubble borders and padding take 4 columns, margins up to 4 more.
	m.renderer.SetWidth(width - 10)

	m.ready = true
	m.refreshViewport(true)
	return m, nil
}

// refreshViewport re-renders all messages. When bottom is set, or the view
// was already at the bottom, it stays pinned there.
func (m *Model) refreshViewport(bottom bool) {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if bottom || atBottom {
		m.viewport.GotoBottom()
	}
}

// setNotice shows a one-line message above the status bar.
func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}
