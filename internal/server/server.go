// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/model"
	"github.com/jeranaias/giasu-tui/internal/tutor"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address of the development backend.
	DefaultAddr = "127.0.0.1:5000"

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 1 << 20

	// MaxQueryLength is the longest accepted message, in bytes.
	MaxQueryLength = 100000

	// SessionCookie carries the session identifier.
	SessionCookie = "giasu_session"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second
)

// Error texts returned to clients.
const (
	ErrTextEmptyMessage = "Tin nhắn không được để trống"
	ErrTextNoImage      = "Không có hình ảnh"
	ErrTextBadImage     = "Không thể xử lý hình ảnh"
	ErrTextBadRequest   = "Yêu cầu không hợp lệ"
	ErrTextTooLong      = "Tin nhắn quá dài"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks server usage.
type ServerStats struct {
	Messages  atomic.Int64
	Images    atomic.Int64
	Clears    atomic.Int64
	Failures  atomic.Int64
	StartTime time.Time
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Messages      int64  `json:"messages"`
	Images        int64  `json:"images"`
	Clears        int64  `json:"clears"`
	Failures      int64  `json:"failures"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Answerer      string `json:"answerer"`
	History       string `json:"history"`
}

func (s *ServerStats) snapshot() StatsResponse {
	return StatsResponse{
		Messages:      s.Messages.Load(),
		Images:        s.Images.Load(),
		Clears:        s.Clears.Load(),
		Failures:      s.Failures.Load(),
		UptimeSeconds: int64(time.Since(s.StartTime).Seconds()),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Config configures a Server. Zero values take defaults.
type Config struct {
	Addr string

	// Answerer produces replies. Nil uses CannedAnswerer.
	Answerer Answerer

	// History stores per-session turns. Nil uses a MemoryStore with HistoryTTL.
	History    HistoryStore
	HistoryTTL time.Duration

	// MaxUploadBytes bounds image uploads. 0 uses capture.MaxImageBytes.
	MaxUploadBytes int64

	// RequestsPerMinute per client IP. 0 disables rate limiting.
	RequestsPerMinute int

	CORS   *CORSConfig
	Logger *slog.Logger
}

// Server is the development tutoring backend.
type Server struct {
	cfg      Config
	answerer Answerer
	history  HistoryStore
	limiter  *RateLimiter
	logger   *slog.Logger
	stats    *ServerStats
	handler  http.Handler
}

// New creates a Server and builds its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = capture.MaxImageBytes
	}
	if cfg.CORS == nil {
		cfg.CORS = DefaultCORSConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		answerer: cfg.Answerer,
		history:  cfg.History,
		logger:   cfg.Logger,
		stats:    &ServerStats{StartTime: time.Now()},
	}
	if s.answerer == nil {
		s.answerer = CannedAnswerer{}
	}
	if s.history == nil {
		s.history = NewMemoryStore(cfg.HistoryTTL)
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(s.cfg.CORS))

	r.Get(tutor.PathHealth, s.handleHealth)
	r.Get(tutor.PathSubjects, s.handleSubjects)
	r.Get("/stats", s.handleStats)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(RateLimitMiddleware(s.limiter))
		}
		r.Post(tutor.PathSendMessage, s.handleSendMessage)
		r.Post(tutor.PathUploadImage, s.handleUploadImage)
		r.Post(tutor.PathClearHistory, s.handleClearHistory)
	})

	return r
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleSendMessage handles POST /send_message.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req tutor.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrTextTooLong)
			return
		}
		s.logger.Debug("INVALID_BODY", "error", err)
		writeError(w, http.StatusBadRequest, ErrTextBadRequest)
		return
	}

	q := questionFrom(req.Message, req.Subject, string(req.Mode), string(req.SolutionMode))
	// Only the empty string is rejected; blank text is passed on as asked.
	if q.Message == "" {
		writeError(w, http.StatusBadRequest, ErrTextEmptyMessage)
		return
	}
	if len(q.Message) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, ErrTextTooLong)
		return
	}

	s.stats.Messages.Add(1)
	s.respond(w, r, q, "")
}

// handleUploadImage handles POST /upload_image.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+MaxRequestBodySize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrTextBadImage)
			return
		}
		writeError(w, http.StatusBadRequest, ErrTextNoImage)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrTextNoImage)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrTextNoImage)
		return
	}
	if _, err := capture.NewImage(header.Filename, data); err != nil {
		s.logger.Info("UPLOAD_REJECTED", "name", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, ErrTextBadImage)
		return
	}
	optimized, err := optimizeImage(data)
	if err != nil {
		s.logger.Info("UPLOAD_DECODE_FAILED", "name", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, ErrTextBadImage)
		return
	}

	q := questionFrom(r.FormValue("message"), r.FormValue("subject"), r.FormValue("mode"), r.FormValue("solution_mode"))
	q.Image = optimized
	if strings.TrimSpace(q.Message) == "" {
		q.Message = "Hãy giải thích nội dung trong hình ảnh này."
	}

	s.stats.Images.Add(1)
	s.respond(w, r, q, header.Filename)
}

// respond answers q, records the turn and writes the response.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, q Question, imageName string) {
	ctx := r.Context()
	sid := s.sessionID(w, r)

	history, err := s.history.List(ctx, sid)
	if err != nil {
		s.logger.Warn("HISTORY_LIST_FAILED", "session", sid, "error", err)
	}

	start := time.Now()
	answer, err := s.answerer.Answer(ctx, q, history)
	if err != nil {
		s.stats.Failures.Add(1)
		s.logger.Error("ANSWER_FAILED", "answerer", s.answerer.Name(), "subject", q.Subject, "error", err)
		writeError(w, http.StatusInternalServerError, "Đã xảy ra lỗi: "+err.Error())
		return
	}
	s.logger.Info("ANSWER",
		"session", sid,
		"subject", q.Subject,
		"mode", string(q.Mode),
		"solution_mode", string(q.SolutionMode),
		"image", len(q.Image) > 0,
		"latency", time.Since(start),
	)

	turn := Turn{
		User:    q.Message,
		Bot:     answer,
		Subject: q.Subject,
		Mode:    string(q.Mode),
		Image:   len(q.Image) > 0,
		At:      time.Now(),
	}
	if err := s.history.Append(ctx, sid, turn); err != nil {
		s.logger.Warn("HISTORY_APPEND_FAILED", "session", sid, "error", err)
	}

	resp := tutor.Response{
		Response: answer,
		Subject:  q.Subject,
		Mode:     q.Mode,
	}
	if len(q.Image) > 0 {
		resp.OriginalImage = imageName
		resp.OptimizedImageB64 = base64.StdEncoding.EncodeToString(q.Image)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClearHistory handles POST /clear_history.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sid := s.sessionID(w, r)
	if err := s.history.Clear(r.Context(), sid); err != nil {
		s.logger.Error("CLEAR_HISTORY_FAILED", "session", sid, "error", err)
		writeError(w, http.StatusInternalServerError, "Đã xảy ra lỗi khi xóa lịch sử: "+err.Error())
		return
	}
	s.stats.Clears.Add(1)
	s.logger.Info("CLEAR_HISTORY", "session", sid)
	writeJSON(w, http.StatusOK, tutor.StatusResponse{
		Status:  "success",
		Message: "Lịch sử đã được xóa",
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tutor.StatusResponse{
		Status:  "ok",
		Message: fmt.Sprintf("answerer=%s history=%s", s.answerer.Name(), s.history.Name()),
	})
}

// handleSubjects handles GET /subjects.
func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tutor.SubjectsResponse{
		Subjects: model.Subjects(),
		Modes:    []string{string(model.ModeAssistant), string(model.ModeExercise)},
	})
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := s.stats.snapshot()
	resp.Answerer = s.answerer.Name()
	resp.History = s.history.Name()
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// SESSIONS
// ============================================================================

// sessionID returns the caller's session, issuing a cookie for new callers.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// questionFrom normalises request fields, applying the original defaults:
// subject "Tổng hợp" and mode "trợ lý".
func questionFrom(message, subject, mode, solution string) Question {
	q := Question{
		Message:      model.NormalizeText(message),
		Subject:      model.DefaultSubject,
		Mode:         model.DefaultMode,
		SolutionMode: model.DefaultSolutionMode,
	}
	if subject = strings.TrimSpace(model.NormalizeText(subject)); subject != "" {
		if canonical, ok := model.MatchSubject(subject); ok {
			subject = canonical
		}
		q.Subject = subject
	}
	if m, err := model.ParseMode(mode); err == nil {
		q.Mode = m
	}
	if sm, err := model.ParseSolutionMode(solution); err == nil {
		q.SolutionMode = sm
	}
	return q
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("SERVER_START",
			"addr", ln.Addr().String(),
			"answerer", s.answerer.Name(),
			"history", s.history.Name(),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("SERVER_SHUTDOWN", "reason", ctx.Err())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.close()
	return err
}

// close releases the limiter, history store and answerer.
func (s *Server) close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if err := s.history.Close(); err != nil {
		s.logger.Warn("HISTORY_CLOSE_FAILED", "error", err)
	}
	if c, ok := s.answerer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("ANSWERER_CLOSE_FAILED", "error", err)
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the backend's error body: {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
