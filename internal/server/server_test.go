// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/giasu-tui/internal/format"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/tutor"
)

// =============================================================================
// HELPERS
// =============================================================================

// recordingAnswerer records questions and answers with a fixed text.
type recordingAnswerer struct {
	mu        sync.Mutex
	questions []Question
	histories [][]Turn
	answer    string
	err       error
}

func (a *recordingAnswerer) Name() string { return "recording" }

func (a *recordingAnswerer) Answer(_ context.Context, q Question, history []Turn) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.questions = append(a.questions, q)
	a.histories = append(a.histories, history)
	return a.answer, a.err
}

func (a *recordingAnswerer) last() (Question, []Turn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.questions)
	return a.questions[n-1], a.histories[n-1]
}

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := New(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return ts, &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) (*http.Response, []byte) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func errorText(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("error body %q: %v", body, err)
	}
	return e.Error
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, filename string, image []byte) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(image)
	}
	mw.Close()
	return mw.FormDataContentType(), &buf
}

// =============================================================================
// SEND MESSAGE
// =============================================================================

func TestSendMessage_Success(t *testing.T) {
	ans := &recordingAnswerer{answer: "Đáp án là 4"}
	ts, c := newTestServer(t, Config{Answerer: ans})

	resp, body := postJSON(t, c, ts.URL+tutor.PathSendMessage, tutor.Request{
		Message: "2+2=?",
		Subject: "toan",
		Mode:    model.ModeExercise,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var out tutor.Response
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Response != "Đáp án là 4" {
		t.Errorf("Response = %q", out.Response)
	}
	if out.Subject != "Toán học" {
		t.Errorf("Subject = %q, want canonical Toán học", out.Subject)
	}
	if out.Mode != model.ModeExercise {
		t.Errorf("Mode = %q", out.Mode)
	}

	q, _ := ans.last()
	if q.SolutionMode != model.DefaultSolutionMode {
		t.Errorf("SolutionMode = %q, want default", q.SolutionMode)
	}
}

func TestSendMessage_Defaults(t *testing.T) {
	ans := &recordingAnswerer{answer: "ok"}
	ts, c := newTestServer(t, Config{Answerer: ans})

	resp, _ := postJSON(t, c, ts.URL+tutor.PathSendMessage, map[string]string{"message": "xin chào"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	q, _ := ans.last()
	if q.Subject != model.DefaultSubject {
		t.Errorf("Subject = %q, want %q", q.Subject, model.DefaultSubject)
	}
	if q.Mode != model.ModeAssistant {
		t.Errorf("Mode = %q, want %q", q.Mode, model.ModeAssistant)
	}
}

func TestSendMessage_BlankTextIsAnswered(t *testing.T) {
	ans := &recordingAnswerer{answer: "Bạn muốn hỏi gì?"}
	ts, c := newTestServer(t, Config{Answerer: ans})

	resp, body := postJSON(t, c, ts.URL+tutor.PathSendMessage, map[string]string{"message": "   "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	q, _ := ans.last()
	if q.Message != "   " {
		t.Errorf("Message = %q, want the blank text unchanged", q.Message)
	}
}

func TestSendMessage_Rejects(t *testing.T) {
	ts, c := newTestServer(t, Config{Answerer: &recordingAnswerer{answer: "x"}})

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"empty message", `{"message":""}`, http.StatusBadRequest, ErrTextEmptyMessage},
		{"missing message", `{"subject":"Toán học"}`, http.StatusBadRequest, ErrTextEmptyMessage},
		{"invalid json", `{"message":`, http.StatusBadRequest, ErrTextBadRequest},
		{"too long", `{"message":"` + strings.Repeat("a", MaxQueryLength+1) + `"}`, http.StatusBadRequest, ErrTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Post(ts.URL+tutor.PathSendMessage, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := errorText(t, body); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendMessage_AnswererFailure(t *testing.T) {
	ts, c := newTestServer(t, Config{Answerer: &recordingAnswerer{err: errors.New("quota")}})

	resp, body := postJSON(t, c, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "hỏi"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if got := errorText(t, body); got != "Đã xảy ra lỗi: quota" {
		t.Errorf("error = %q", got)
	}
}

func TestSendMessage_TrailingSlash(t *testing.T) {
	ts, c := newTestServer(t, Config{Answerer: &recordingAnswerer{answer: "ok"}})

	resp, _ := postJSON(t, c, ts.URL+tutor.PathSendMessage+"/", tutor.Request{Message: "a"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with trailing slash", resp.StatusCode)
	}
}

// =============================================================================
// SESSIONS AND HISTORY
// =============================================================================

func TestSessionHistory_PerCookie(t *testing.T) {
	ans := &recordingAnswerer{answer: "trả lời"}
	ts, alice := newTestServer(t, Config{Answerer: ans})

	postJSON(t, alice, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "câu 1"})
	postJSON(t, alice, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "câu 2"})

	_, history := ans.last()
	if len(history) != 1 || history[0].User != "câu 1" || history[0].Bot != "trả lời" {
		t.Fatalf("history = %+v, want the first turn", history)
	}

	// A second client has its own session.
	jar, _ := cookiejar.New(nil)
	bob := &http.Client{Jar: jar}
	postJSON(t, bob, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "khác"})
	if _, history := ans.last(); len(history) != 0 {
		t.Errorf("new session saw %d turns", len(history))
	}
}

func TestClearHistory(t *testing.T) {
	ans := &recordingAnswerer{answer: "ok"}
	ts, c := newTestServer(t, Config{Answerer: ans})

	postJSON(t, c, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "một"})

	resp, body := postJSON(t, c, ts.URL+tutor.PathClearHistory, struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var status tutor.StatusResponse
	json.Unmarshal(body, &status)
	if status.Status != "success" || status.Message != "Lịch sử đã được xóa" {
		t.Errorf("clear body = %+v", status)
	}

	postJSON(t, c, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "hai"})
	if _, history := ans.last(); len(history) != 0 {
		t.Errorf("history after clear = %+v", history)
	}
}

func TestInvalidSessionCookieReplaced(t *testing.T) {
	srv := New(Config{Answerer: &recordingAnswerer{answer: "ok"}})

	req := httptest.NewRequest(http.MethodPost, tutor.PathClearHistory, nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].Value == "not-a-uuid" {
		t.Errorf("cookies = %+v, want a fresh session cookie", cookies)
	}
}

// =============================================================================
// UPLOAD IMAGE
// =============================================================================

func TestUploadImage_Success(t *testing.T) {
	ans := &recordingAnswerer{answer: "Hình tam giác"}
	ts, c := newTestServer(t, Config{Answerer: ans})

	ct, body := multipartBody(t, map[string]string{
		"subject":       "Toán học",
		"mode":          "giải bài tập",
		"solution_mode": "hint",
	}, "bai.png", testPNG(t, 2048, 1024))

	resp, err := c.Post(ts.URL+tutor.PathUploadImage, ct, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}

	var out tutor.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Response != "Hình tam giác" || out.OriginalImage != "bai.png" {
		t.Errorf("response = %+v", out)
	}

	jpg, err := base64.StdEncoding.DecodeString(out.OptimizedImageB64)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpg))
	if err != nil {
		t.Fatalf("optimized image is not JPEG: %v", err)
	}
	if cfg.Width != MaxImageDimension || cfg.Height != MaxImageDimension/2 {
		t.Errorf("optimized size = %dx%d, want %dx%d", cfg.Width, cfg.Height, MaxImageDimension, MaxImageDimension/2)
	}

	q, _ := ans.last()
	if q.SolutionMode != model.SolutionHint || q.Mode != model.ModeExercise {
		t.Errorf("question = %+v", q)
	}
	if len(q.Image) == 0 || strings.TrimSpace(q.Message) == "" {
		t.Error("question should carry the image and a default prompt")
	}
}

func TestUploadImage_Rejects(t *testing.T) {
	ts, c := newTestServer(t, Config{Answerer: &recordingAnswerer{answer: "x"}})

	t.Run("no image", func(t *testing.T) {
		ct, body := multipartBody(t, map[string]string{"message": "xem"}, "", nil)
		resp, err := c.Post(ts.URL+tutor.PathUploadImage, ct, body)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusBadRequest || errorText(t, data) != ErrTextNoImage {
			t.Errorf("status %d body %s", resp.StatusCode, data)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		ct, body := multipartBody(t, nil, "notes.txt", []byte("plain text, not pixels"))
		resp, err := c.Post(ts.URL+tutor.PathUploadImage, ct, body)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusBadRequest || errorText(t, data) != ErrTextBadImage {
			t.Errorf("status %d body %s", resp.StatusCode, data)
		}
	})

	t.Run("json body", func(t *testing.T) {
		resp, body := postJSON(t, c, ts.URL+tutor.PathUploadImage, map[string]string{"message": "x"})
		if resp.StatusCode != http.StatusBadRequest || errorText(t, body) != ErrTextNoImage {
			t.Errorf("status %d body %s", resp.StatusCode, body)
		}
	})
}

// =============================================================================
// INFO ENDPOINTS
// =============================================================================

func TestHealthAndSubjects(t *testing.T) {
	ts, c := newTestServer(t, Config{})

	resp, err := c.Get(ts.URL + tutor.PathHealth)
	if err != nil {
		t.Fatal(err)
	}
	var health tutor.StatusResponse
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status != "ok" || !strings.Contains(health.Message, "answerer=canned") {
		t.Errorf("health = %+v", health)
	}

	resp, err = c.Get(ts.URL + tutor.PathSubjects)
	if err != nil {
		t.Fatal(err)
	}
	var subjects tutor.SubjectsResponse
	json.NewDecoder(resp.Body).Decode(&subjects)
	resp.Body.Close()
	if len(subjects.Subjects) != len(model.Subjects()) || len(subjects.Modes) != 2 {
		t.Errorf("subjects = %+v", subjects)
	}
}

func TestStats(t *testing.T) {
	ts, c := newTestServer(t, Config{Answerer: &recordingAnswerer{answer: "ok"}})

	postJSON(t, c, ts.URL+tutor.PathSendMessage, tutor.Request{Message: "a"})
	postJSON(t, c, ts.URL+tutor.PathClearHistory, struct{}{})

	resp, err := c.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats StatsResponse
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats.Messages != 1 || stats.Clears != 1 || stats.History != "memory" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := New(Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tutor.PathHealth, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestRateLimit(t *testing.T) {
	srv := New(Config{Answerer: &recordingAnswerer{answer: "ok"}, RequestsPerMinute: 2})
	defer srv.close()

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, tutor.PathSendMessage, strings.NewReader(`{"message":"a"}`))
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send(); got != http.StatusOK {
		t.Fatalf("first = %d", got)
	}
	if got := send(); got != http.StatusOK {
		t.Fatalf("second = %d", got)
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Errorf("third = %d, want 429", got)
	}

	// Info endpoints are not limited.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, tutor.PathHealth, nil)
	req.RemoteAddr = "203.0.113.7:4000"
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := New(Config{})

	req := httptest.NewRequest(http.MethodOptions, tutor.PathSendMessage, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, tutor.PathHealth, nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for unknown origin = %q", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:1234", "", "203.0.113.5"},
		{"untrusted proxy ignored", "203.0.113.5:1234", "198.51.100.1", "203.0.113.5"},
		{"trusted proxy", "127.0.0.1:1234", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"trusted proxy bad header", "127.0.0.1:1234", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// ANSWERERS
// =============================================================================

func TestCannedAnswerer(t *testing.T) {
	var a CannedAnswerer
	ctx := context.Background()

	greeting, _ := a.Answer(ctx, Question{Message: "hello", Subject: "Toán học"}, nil)
	found := false
	for _, g := range greetings {
		found = found || g == greeting
	}
	if !found {
		t.Errorf("short hello should get a greeting, got %q", greeting)
	}

	types, _ := a.Answer(ctx, Question{Message: "Có những loại AI nào?", Subject: "Tin học"}, nil)
	if types != aiTypes {
		t.Errorf("AI types question answered with %q", types)
	}

	q := Question{Message: "Giải phương trình bậc hai", Subject: "Vật lý"}
	first, _ := a.Answer(ctx, q, nil)
	second, _ := a.Answer(ctx, q, nil)
	if first != second {
		t.Error("answers should be deterministic")
	}
	inTable := false
	for _, r := range subjectResponses["Vật lý"] {
		inTable = inTable || r == first
	}
	if !inTable {
		t.Errorf("answer %q not from the subject table", first)
	}

	unknown, _ := a.Answer(ctx, Question{Message: "một câu hỏi dài hơn", Subject: model.DefaultSubject}, nil)
	inMath := false
	for _, r := range subjectResponses[fallbackSubject] {
		inMath = inMath || r == unknown
	}
	if !inMath {
		t.Errorf("unknown subject should fall back to %s, got %q", fallbackSubject, unknown)
	}
}

func TestCannedAnswerer_ExerciseSections(t *testing.T) {
	var a CannedAnswerer
	ctx := context.Background()
	base := Question{Message: "Tính diện tích hình tròn", Subject: "Toán học", Mode: model.ModeExercise}

	tests := []struct {
		solution model.SolutionMode
		kind     string
		split    bool
	}{
		{model.SolutionFull, "explanation", true},
		{model.SolutionStepByStep, "step", true},
		{model.SolutionHint, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.solution), func(t *testing.T) {
			q := base
			q.SolutionMode = tt.solution
			answer, err := a.Answer(ctx, q, nil)
			if err != nil {
				t.Fatal(err)
			}
			_, explanation, _, ok := format.Split(answer)
			if ok != tt.split {
				t.Fatalf("Split ok = %v, want %v (answer %q)", ok, tt.split, answer)
			}
			if ok && strings.TrimSpace(explanation) == "" {
				t.Error("explanation section is empty")
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	assistant := BuildPrompt(Question{Message: "x là gì", Subject: "Toán học", Mode: model.ModeAssistant})
	if assistant != "Trả lời bằng tiếng Việt về câu hỏi liên quan đến môn Toán học: x là gì" {
		t.Errorf("assistant prompt = %q", assistant)
	}

	exercise := BuildPrompt(Question{Message: "1+1", Subject: "Toán học", Mode: model.ModeExercise, SolutionMode: model.SolutionStepByStep})
	if !strings.HasPrefix(exercise, "Hãy giải bài tập môn Toán học sau đây mà không đưa ra giải thích nào: 1+1") {
		t.Errorf("exercise prompt = %q", exercise)
	}
	if !strings.Contains(exercise, format.SentinelStepExplanation) {
		t.Error("step-by-step prompt should name the step sentinel")
	}
}

// =============================================================================
// HISTORY STORES
// =============================================================================

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Hour)
	now := time.Now()
	m.now = func() time.Time { return now }

	for i := 0; i < MaxTurnsPerSession+5; i++ {
		m.Append(ctx, "s1", Turn{User: "q", Bot: "a"})
	}
	turns, _ := m.List(ctx, "s1")
	if len(turns) != MaxTurnsPerSession {
		t.Errorf("len = %d, want %d", len(turns), MaxTurnsPerSession)
	}

	turns[0].User = "mutated"
	again, _ := m.List(ctx, "s1")
	if again[0].User == "mutated" {
		t.Error("List should return a copy")
	}

	now = now.Add(2 * time.Hour)
	if turns, _ := m.List(ctx, "s1"); len(turns) != 0 {
		t.Error("expired session should be empty")
	}
	if m.Sessions() != 0 {
		t.Errorf("Sessions() = %d after expiry", m.Sessions())
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("GIASU_TEST_REDIS_URL")
	if url == "" {
		t.Skip("GIASU_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	sid := "test-" + time.Now().Format("150405.000000")
	defer store.Clear(ctx, sid)

	store.Append(ctx, sid, Turn{User: "một", Bot: "hai"})
	store.Append(ctx, sid, Turn{User: "ba", Bot: "bốn"})
	turns, err := store.List(ctx, sid)
	if err != nil || len(turns) != 2 || turns[1].User != "ba" {
		t.Fatalf("List = %+v, %v", turns, err)
	}
	if err := store.Clear(ctx, sid); err != nil {
		t.Fatal(err)
	}
	if turns, _ := store.List(ctx, sid); len(turns) != 0 {
		t.Errorf("after Clear: %+v", turns)
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "http://nope", time.Minute); err == nil {
		t.Error("expected error for non-redis URL")
	}
}

// =============================================================================
// IMAGES AND LIFECYCLE
// =============================================================================

func TestFitWithin(t *testing.T) {
	tests := []struct{ w, h, wantW, wantH int }{
		{800, 600, 800, 600},
		{2048, 1024, 1024, 512},
		{1000, 3000, 341, 1024},
		{5000, 1, 1024, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, 1024)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitWithin(%d,%d) = %d,%d want %d,%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := New(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + ln.Addr().String() + tutor.PathHealth)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
