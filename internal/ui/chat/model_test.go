// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/config"
	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/session"
	"github.com/jeranaias/giasu-tui/internal/storage"
	"github.com/jeranaias/giasu-tui/internal/tutor"
)

// =============================================================================
// FAKES AND HELPERS
// =============================================================================

type fakeBackend struct {
	mu       sync.Mutex
	reply    string
	err      error
	sent     []tutor.Request
	uploads  []string
	clears   int
	clearErr error
}

func (f *fakeBackend) SendMessage(_ context.Context, r tutor.Request) (*tutor.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	if f.err != nil {
		return nil, f.err
	}
	return &tutor.Response{Response: f.reply, Subject: r.Subject, Mode: r.Mode}, nil
}

func (f *fakeBackend) UploadImage(_ context.Context, r tutor.Request, img *capture.Image) (*tutor.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, img.Name)
	return &tutor.Response{Response: f.reply, OriginalImage: img.Name}, nil
}

func (f *fakeBackend) ClearHistory(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return f.clearErr
}

func newTestModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	state := session.NewState(storage.NewPreferences(storage.NewMemoryStore()))
	cfg := config.Default()
	cfg.UI.Markdown = false

	m, err := New(Deps{Backend: backend, State: state, Config: cfg})
	require.NoError(t, err)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

// update applies msg and returns the new model and command.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drain applies every view message the controller has queued.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for {
		select {
		case msg := <-m.bridge.ch:
			m, _ = update(t, m, msg)
		default:
			return m
		}
	}
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	return update(t, m, tea.KeyMsg{Type: k})
}

// typeAndSubmit sets the input and presses Enter, running the resulting
// command and any view messages it produced.
func typeAndSubmit(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := press(t, m, tea.KeyEnter)
	if cmd != nil {
		m, _ = update(t, m, cmd())
	}
	return drain(t, m)
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// =============================================================================
// CONSTRUCTION AND RENDERING
// =============================================================================

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestNew_ShowsWelcome(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	require.Len(t, m.messages, 1)
	assert.Equal(t, model.SenderWelcome, m.messages[0].Sender)

	view := m.View()
	assert.Contains(t, view, "Gia sư AI")
	assert.Contains(t, view, model.DefaultSubject)
}

func TestView_BeforeResize(t *testing.T) {
	m, err := New(Deps{Backend: &fakeBackend{}})
	require.NoError(t, err)
	assert.Equal(t, "Đang khởi động...", m.View())
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_AppendsUserAndReply(t *testing.T) {
	backend := &fakeBackend{reply: "Kết quả là **4**"}
	m := newTestModel(t, backend)

	m = typeAndSubmit(t, m, "2 + 2 bằng mấy?")

	require.Len(t, backend.sent, 1)
	assert.Equal(t, "2 + 2 bằng mấy?", backend.sent[0].Message)
	assert.Equal(t, model.DefaultSubject, backend.sent[0].Subject)

	require.Len(t, m.messages, 3)
	assert.Equal(t, model.SenderUser, m.messages[1].Sender)
	assert.Equal(t, model.SenderBot, m.messages[2].Sender)
	assert.Empty(t, m.input.Value(), "input should be cleared")
	assert.False(t, m.Busy())
	assert.Contains(t, m.viewport.View(), "2 + 2 bằng mấy?")
}

func TestSubmit_EmptyInputDoesNothing(t *testing.T) {
	backend := &fakeBackend{reply: "x"}
	m := newTestModel(t, backend)

	m.input.SetValue("   ")
	_, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Empty(t, backend.sent)
}

func TestSubmit_FailureShowsErrorMessage(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	m := newTestModel(t, backend)

	m = typeAndSubmit(t, m, "Xin chào")

	last := m.messages[len(m.messages)-1]
	assert.True(t, last.IsError())
	assert.Equal(t, session.MsgUnreachable, last.Text)
	assert.False(t, m.Busy())
}

func TestBusy_CountsRequestsInFlight(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, cmd := update(t, m, BusyMsg{Delta: 1})
	assert.NotNil(t, cmd, "first request should start the spinner")
	m, _ = update(t, m, BusyMsg{Delta: 1})
	m, _ = update(t, m, BusyMsg{Delta: -1})

	assert.Equal(t, 1, m.pending)
	assert.Contains(t, m.View(), "Đang trả lời (1)")

	m, _ = update(t, m, BusyMsg{Delta: -1})
	m, _ = update(t, m, BusyMsg{Delta: -1})
	assert.Equal(t, 0, m.pending)
}

// =============================================================================
// KEYS
// =============================================================================

func TestToggleDark(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	before := m.state.DarkMode()

	m, _ = press(t, m, tea.KeyCtrlT)

	assert.Equal(t, !before, m.state.DarkMode(), "preference should be persisted")
	assert.Equal(t, !before, m.theme.IsDark)
}

func TestCycleSolution_OnlyInExerciseMode(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	start := m.state.SolutionMode()

	m, _ = press(t, m, tea.KeyCtrlS)
	assert.Equal(t, start, m.state.SolutionMode(), "assistant mode ignores ctrl+s")

	m = typeAndSubmit(t, m, "/mode giải bài tập")
	m, _ = press(t, m, tea.KeyCtrlS)
	assert.Equal(t, start.Next(), m.state.SolutionMode())
	assert.Contains(t, m.notice, start.Next().Label())
}

func TestToggleExplanation(t *testing.T) {
	backend := &fakeBackend{reply: "x = 2\n" + format.SentinelExplanation + "\nChia hai vế cho 3."}
	m := newTestModel(t, backend)
	m = typeAndSubmit(t, m, "3x = 6")

	m, _ = press(t, m, tea.KeyCtrlE)
	m = drain(t, m)

	last := m.messages[len(m.messages)-1]
	assert.True(t, last.ShowExplanation)
	assert.Contains(t, m.viewport.View(), "Chia hai vế cho 3.")
}

func TestToggleExplanation_NothingToToggle(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = press(t, m, tea.KeyCtrlE)
	assert.NotEmpty(t, m.notice)
}

func TestClearHistory(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	m := newTestModel(t, backend)
	m = typeAndSubmit(t, m, "câu hỏi")
	require.Len(t, m.messages, 3)

	m, cmd := press(t, m, tea.KeyCtrlL)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	m = drain(t, m)

	assert.Equal(t, 1, backend.clears)
	require.Len(t, m.messages, 1, "welcome message is kept")
	assert.Equal(t, model.SenderWelcome, m.messages[0].Sender)
	assert.False(t, m.noticeErr)
}

func TestClearHistory_FailureKeepsMessages(t *testing.T) {
	backend := &fakeBackend{reply: "ok", clearErr: errors.New("boom")}
	m := newTestModel(t, backend)
	m = typeAndSubmit(t, m, "câu hỏi")

	m = typeAndSubmit(t, m, "/clear")

	assert.Len(t, m.messages, 3)
	assert.True(t, m.noticeErr)
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	require.True(t, m.showHelp)
	view := m.View()
	assert.Contains(t, view, "/subject")
	assert.Contains(t, view, "/export")

	m, _ = press(t, m, tea.KeyEsc)
	assert.False(t, m.showHelp)
}

func TestHelpKey_TypesWhenInputNotEmpty(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.input.SetValue("tại sao")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})

	assert.False(t, m.showHelp)
	assert.Equal(t, "tại sao?", m.input.Value())
}

// =============================================================================
// IMAGES
// =============================================================================

func TestAttachImage_PathPrompt(t *testing.T) {
	backend := &fakeBackend{reply: "Đây là một hình chữ nhật."}
	m := newTestModel(t, backend)
	path := writePNG(t, t.TempDir(), "hinh.png")

	m.input.SetValue("nháp")
	m, _ = press(t, m, tea.KeyCtrlO)
	require.True(t, m.pathPrompt)
	assert.Empty(t, m.input.Value())

	m.input.SetValue(path)
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.False(t, m.pathPrompt)
	assert.Equal(t, "nháp", m.input.Value(), "draft restored")

	m, _ = update(t, m, cmd())
	require.NotNil(t, m.Attachment())
	assert.Equal(t, "hinh.png", m.Attachment().Name)

	m = typeAndSubmit(t, m, m.input.Value())

	assert.Equal(t, []string{"hinh.png"}, backend.uploads)
	user := m.messages[len(m.messages)-2]
	assert.Equal(t, "nháp", user.Text)
	assert.Equal(t, "hinh.png", user.ImageName)
}

func TestAttachImage_ImageOnlySubmit(t *testing.T) {
	backend := &fakeBackend{reply: "Đã nhận ảnh."}
	m := newTestModel(t, backend)
	path := writePNG(t, t.TempDir(), "de.png")

	m = typeAndSubmit(t, m, "/image "+path)
	require.NotNil(t, m.Attachment())

	m = typeAndSubmit(t, m, "")

	assert.Equal(t, []string{"de.png"}, backend.uploads)
	assert.Nil(t, m.Attachment())
	user := m.messages[len(m.messages)-2]
	assert.Equal(t, model.ImagePlaceholder, user.Text)
	assert.Equal(t, "de.png", user.ImageName)
}

func TestAttachImage_BadPath(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = typeAndSubmit(t, m, "/image "+filepath.Join(t.TempDir(), "missing.png"))

	assert.Nil(t, m.Attachment())
	assert.True(t, m.noticeErr)
}

func TestEscDropsAttachment(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.attachment = &capture.Image{Name: "a.png"}

	m, _ = press(t, m, tea.KeyEsc)
	assert.Nil(t, m.Attachment())
}

func TestCameraCommand_Unconfigured(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = typeAndSubmit(t, m, "/camera")
	assert.True(t, m.noticeErr)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in, name, arg string
	}{
		{"/subject toán", "subject", "toán"},
		{"  /MODE   giải bài tập ", "mode", "giải bài tập"},
		{"/clear", "clear", ""},
		{"/export ~/bai.md", "export", "~/bai.md"},
	}
	for _, tt := range tests {
		name, arg := parseCommand(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.arg, arg, tt.in)
	}
}

func TestSlashCommands(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)

	m = typeAndSubmit(t, m, "/subject toan")
	assert.Equal(t, "Toán học", m.state.Subject())

	m = typeAndSubmit(t, m, "/mode giai bai tap")
	assert.Equal(t, model.ModeExercise, m.state.Mode())

	m = typeAndSubmit(t, m, "/solution hint")
	assert.Equal(t, model.SolutionHint, m.state.SolutionMode())

	m = typeAndSubmit(t, m, "/subject thiên văn")
	assert.True(t, m.noticeErr)

	m = typeAndSubmit(t, m, "/khong-co")
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "/khong-co")

	assert.Empty(t, backend.sent, "commands are never sent to the backend")
}

func TestMathCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m = typeAndSubmit(t, m, `/math \frac{1}{2}`)
	assert.Equal(t, `$\frac{1}{2}$ `, m.input.Value())

	m.input.Reset()
	m = typeAndSubmit(t, m, "/math")
	assert.True(t, m.noticeErr)
}

func TestExportCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{reply: "Đáp án"})
	m = typeAndSubmit(t, m, "câu hỏi")

	path := filepath.Join(t.TempDir(), "bai.md")
	m.input.SetValue("/export " + path)
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.False(t, m.noticeErr, m.notice)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "câu hỏi")
	assert.Contains(t, string(data), "Đáp án")
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigReload(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	cfg := config.Default()
	cfg.Tutor.Subject = "Vật lý"
	cfg.Tutor.Mode = string(model.ModeExercise)
	cfg.Tutor.WelcomeMessage = "Chào mừng trở lại!"

	m, _ = update(t, m, ConfigReloadMsg{Config: cfg})
	m = drain(t, m)

	assert.Equal(t, "Vật lý", m.state.Subject())
	assert.Equal(t, model.ModeExercise, m.state.Mode())
	assert.True(t, m.keys.CycleSolution.Enabled())
	assert.Equal(t, "Chào mừng trở lại!", m.messages[0].Text)
}

func TestConfigReload_Error(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, _ = update(t, m, ConfigReloadMsg{Err: errors.New("bad toml")})
	assert.True(t, m.noticeErr)
	assert.True(t, strings.Contains(m.notice, "bad toml"))
}

func TestConfigReloader_Forwards(t *testing.T) {
	var got tea.Msg
	ConfigReloader(func(msg tea.Msg) { got = msg })(config.Default(), nil)

	reload, ok := got.(ConfigReloadMsg)
	require.True(t, ok)
	assert.NotNil(t, reload.Config)
}
