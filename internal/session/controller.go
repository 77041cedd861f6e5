// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/tutor"
	"github.com/jeranaias/giasu-tui/internal/util"
)

// User-facing failure texts.
const (
	MsgSendFailed       = "Đã xảy ra lỗi khi gửi tin nhắn."
	MsgUnreachable      = "Không thể kết nối đến máy chủ. Vui lòng thử lại sau."
	MsgImageFailed      = "Không thể xử lý hình ảnh"
	MsgImageUnreachable = "Đã xảy ra lỗi khi xử lý hình ảnh. Vui lòng thử lại sau."
)

// Backend is the part of tutor.Client the controller uses.
type Backend interface {
	SendMessage(ctx context.Context, r tutor.Request) (*tutor.Response, error)
	UploadImage(ctx context.Context, r tutor.Request, img *capture.Image) (*tutor.Response, error)
	ClearHistory(ctx context.Context) error
}

// Config wires a Controller.
type Config struct {
	Backend  Backend
	State    *State
	Bindings Bindings

	// Formatter renders message markup. Nil uses format.New(nil).
	Formatter *format.Formatter

	// Welcome is the static first bot message. Empty means none.
	Welcome string
	// KeepWelcome keeps the welcome entry when history is cleared.
	KeepWelcome bool
}

// Options override the session selections for one submit. Zero fields are
// read from State at submit time.
type Options struct {
	Subject      string
	Mode         model.Mode
	SolutionMode model.SolutionMode
}

// Result describes what one Submit did.
type Result struct {
	// Skipped is true when there was nothing to send.
	Skipped bool
	// User is the appended user message.
	User model.ChatMessage
	// Reply is the appended bot or error message.
	Reply model.ChatMessage
	// Response is the raw backend response on success.
	Response *tutor.Response
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs the submit/response cycle for one session.
// Safe for concurrent use; concurrent submits append replies in completion order.
type Controller struct {
	backend Backend
	state   *State
	view    Bindings
	fmt     *format.Formatter

	mu          sync.RWMutex // guards welcome and keepWelcome
	welcome     string
	keepWelcome bool
}

// New builds a Controller. It fails if any view binding is missing.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Bindings.Validate(); err != nil {
		slog.Error("SESSION_BINDINGS_INVALID", "error", err)
		return nil, err
	}
	if cfg.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	if cfg.State == nil {
		cfg.State = NewState(nil)
	}
	if cfg.Formatter == nil {
		cfg.Formatter = format.New(nil)
	}

	c := &Controller{
		backend:     cfg.Backend,
		state:       cfg.State,
		view:        cfg.Bindings,
		fmt:         cfg.Formatter,
		welcome:     strings.TrimSpace(cfg.Welcome),
		keepWelcome: cfg.KeepWelcome,
	}
	if c.state.History.Len() == 0 && c.welcome != "" {
		c.state.History.Append(model.NewWelcomeMessage(c.welcome, c.fmt.Format(c.welcome)))
	}
	return c, nil
}

// State returns the session state.
func (c *Controller) State() *State {
	return c.state
}

// Sync pushes the whole history to the message view.
func (c *Controller) Sync() {
	c.view.Messages.ResetMessages(c.state.History.Messages())
	c.view.Scroll.ScrollToBottom()
}

// Submit sends one turn. Whitespace-only text with no image does nothing.
// Exactly one request is issued otherwise: /upload_image when img is set,
// /send_message when not. The returned error is for diagnostics; the failure
// is already in the history as an error-class message.
func (c *Controller) Submit(ctx context.Context, text string, img *capture.Image, opts Options) (Result, error) {
	text = model.NormalizeText(strings.TrimSpace(text))
	if text == "" && img == nil {
		return Result{Skipped: true}, nil
	}
	opts = c.resolve(opts)

	shown := text
	if shown == "" {
		shown = model.ImagePlaceholder
	}
	user := model.NewUserMessage(shown)
	user.Markup = c.fmt.Format(shown)
	if img != nil {
		user.ImageName = img.Name
	}
	c.appendMessage(user)
	c.view.Input.ClearInput()

	c.view.Busy.ShowBusy()
	defer func() {
		c.view.Busy.HideBusy()
		c.view.Scroll.ScrollToBottom()
	}()

	req := tutor.Request{
		Message:      text,
		Subject:      opts.Subject,
		Mode:         opts.Mode,
		SolutionMode: opts.SolutionMode,
	}
	slog.Info("SUBMIT",
		"session", c.state.ID(),
		"subject", req.Subject,
		"mode", string(req.Mode),
		"solution_mode", string(req.SolutionMode),
		"image", img != nil,
		"chars", len([]rune(text)))
	slog.Debug("SUBMIT_TEXT", "session", c.state.ID(), "preview", util.Preview(text, 80))

	var (
		resp *tutor.Response
		err  error
	)
	if img != nil {
		resp, err = c.backend.UploadImage(ctx, req, img)
	} else {
		resp, err = c.backend.SendMessage(ctx, req)
	}

	res := Result{User: user, Response: resp}
	if err != nil {
		res.Response = nil
		res.Reply = model.NewErrorMessage(failureText(err, img != nil))
		res.Reply.Markup = format.EscapeHTML(res.Reply.Text)
		c.appendMessage(res.Reply)
		slog.Warn("SUBMIT_FAILED", "session", c.state.ID(), "error", err)
		return res, err
	}

	res.Reply = model.NewBotMessage(resp.Response, c.fmt.FormatLive(resp.Response, false))
	c.appendMessage(res.Reply)
	return res, nil
}

// ClearHistory asks the backend to forget the conversation. On success the
// history and view return to the baseline; on failure both stay untouched and
// the error is logged and returned.
func (c *Controller) ClearHistory(ctx context.Context) error {
	if err := c.backend.ClearHistory(ctx); err != nil {
		slog.Warn("CLEAR_HISTORY_FAILED", "session", c.state.ID(), "error", err)
		return err
	}

	c.state.History.Reset(c.baseline()...)
	c.view.Messages.ResetMessages(c.state.History.Messages())
	c.view.Scroll.ScrollToBottom()
	slog.Info("CLEAR_HISTORY", "session", c.state.ID())
	return nil
}

// ToggleExplanation flips the explanation section of a bot message and
// re-renders it. Returns false if the message has no explanation section.
func (c *Controller) ToggleExplanation(id string) bool {
	msg, ok := c.state.History.Find(id)
	if !ok || !msg.IsBot() {
		return false
	}
	if _, _, _, split := format.Split(msg.Text); !split {
		return false
	}

	msg.ShowExplanation = !msg.ShowExplanation
	msg.Markup = c.fmt.FormatLive(msg.Text, msg.ShowExplanation)
	c.state.History.Update(msg)
	c.view.Messages.UpdateMessage(msg)
	return true
}

// ToggleLatestExplanation toggles the newest bot message that has an explanation.
func (c *Controller) ToggleLatestExplanation() bool {
	msgs := c.state.History.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender != model.SenderBot {
			continue
		}
		if _, _, _, ok := format.Split(msgs[i].Text); ok {
			return c.ToggleExplanation(msgs[i].ID)
		}
	}
	return false
}

// =============================================================================
// PREFERENCES
// =============================================================================

// SetSolutionMode selects and persists a solution mode. Invalid modes are ignored.
func (c *Controller) SetSolutionMode(mode model.SolutionMode) bool {
	if !mode.IsValid() {
		return false
	}
	c.state.Prefs.SetSolutionMode(mode)
	return true
}

// CycleSolutionMode advances full → step_by_step → hint → full.
func (c *Controller) CycleSolutionMode() model.SolutionMode {
	next := c.state.SolutionMode().Next()
	c.state.Prefs.SetSolutionMode(next)
	return next
}

// ToggleDarkMode flips and persists dark mode, returning the new value.
func (c *Controller) ToggleDarkMode() bool {
	dark := !c.state.DarkMode()
	c.state.Prefs.SetDarkMode(dark)
	return dark
}

// SetSubject selects a subject.
func (c *Controller) SetSubject(subject string) {
	c.state.SetSubject(subject)
}

// SetMode selects a mode.
func (c *Controller) SetMode(mode model.Mode) {
	c.state.SetMode(mode)
}

// SetWelcome replaces the welcome text used for future baselines and, when
// the first entry is the welcome message, the one shown now.
func (c *Controller) SetWelcome(text string, keep bool) {
	c.mu.Lock()
	c.welcome = strings.TrimSpace(text)
	c.keepWelcome = keep
	c.mu.Unlock()

	msgs := c.state.History.Messages()
	if len(msgs) == 0 || msgs[0].Sender != model.SenderWelcome || strings.TrimSpace(text) == "" {
		return
	}
	w := msgs[0]
	w.Text = strings.TrimSpace(text)
	w.Markup = c.fmt.Format(w.Text)
	c.state.History.Update(w)
	c.view.Messages.UpdateMessage(w)
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Controller) resolve(opts Options) Options {
	if opts.Subject == "" {
		opts.Subject = c.state.Subject()
	}
	if opts.Mode == "" {
		opts.Mode = c.state.Mode()
	}
	if !opts.SolutionMode.IsValid() {
		opts.SolutionMode = c.state.SolutionMode()
	}
	return opts
}

func (c *Controller) appendMessage(msg model.ChatMessage) {
	c.state.History.Append(msg)
	c.view.Messages.AppendMessage(msg)
}

// baseline is what History.Reset reseeds: zero or one welcome entry.
func (c *Controller) baseline() []model.ChatMessage {
	c.mu.RLock()
	welcome, keep := c.welcome, c.keepWelcome
	c.mu.RUnlock()
	if welcome == "" || !keep {
		return nil
	}
	return []model.ChatMessage{model.NewWelcomeMessage(welcome, c.fmt.Format(welcome))}
}

// failureText picks the message shown for a failed submit. Errors that are
// not tutor.ClientErrors count as transport failures.
func failureText(err error, image bool) string {
	var ce *tutor.ClientError
	if !errors.As(err, &ce) || tutor.IsTransport(err) {
		if image {
			return MsgImageUnreachable
		}
		return MsgUnreachable
	}
	if msg := tutor.ServerMessage(err); msg != "" {
		return msg
	}
	if image {
		return MsgImageFailed
	}
	return MsgSendFailed
}
