// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/giasu-tui/internal/capture"
	"github.com/jeranaias/giasu-tui/internal/telemetry"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the tutoring client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:5000)
	BaseURL string

	// Timeout per request (default: 60s). Answers are generated by a model
	// and routinely take several seconds.
	Timeout time.Duration

	// RequestsPerMinute throttles outgoing requests. Zero means unlimited.
	RequestsPerMinute int

	// UserAgent sent with every request (default: giasu/dev)
	UserAgent string

	// Instruments records spans and metrics. Nil disables telemetry.
	Instruments *telemetry.Instruments
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "http://127.0.0.1:5000",
		Timeout:   60 * time.Second,
		UserAgent: "giasu/dev",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the tutoring backend. The backend keys its conversation
// history on a session cookie, so one Client is one conversation.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	inst       *telemetry.Instruments
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:5000"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "giasu/dev"
	}

	// cookiejar.New only fails with a non-nil PublicSuffixList.
	jar, _ := cookiejar.New(nil)

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		inst: config.Instruments,
	}
	if config.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(config.RequestsPerMinute)
		c.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
	return c
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SendMessage posts a text turn to /send_message.
func (c *Client) SendMessage(ctx context.Context, r Request) (*Response, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	var out Response
	err = c.do(ctx, "send_message", http.MethodPost, PathSendMessage, "application/json", bytes.NewReader(body), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage posts an image turn to /upload_image as multipart form data.
// The message field is only sent when r.Message is non-empty.
func (c *Client) UploadImage(ctx context.Context, r Request, img *capture.Image) (*Response, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "no image to upload"}
	}

	body, contentType, err := encodeUpload(r, img)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to encode upload", Cause: err}
	}

	var out Response
	if err := c.do(ctx, "upload_image", http.MethodPost, PathUploadImage, contentType, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHistory asks the backend to forget this session's conversation.
func (c *Client) ClearHistory(ctx context.Context) error {
	var out StatusResponse
	return c.do(ctx, "clear_history", http.MethodPost, PathClearHistory, "application/json", nil, &out)
}

// Health verifies that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	var out StatusResponse
	return c.do(ctx, "health", http.MethodGet, PathHealth, "", nil, &out)
}

// Subjects lists the subjects and modes the backend accepts.
func (c *Client) Subjects(ctx context.Context) (*SubjectsResponse, error) {
	var out SubjectsResponse
	if err := c.do(ctx, "subjects", http.MethodGet, PathSubjects, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, endpoint, method, path, contentType string, body io.Reader, out any) (err error) {
	ctx, done := c.inst.Start(ctx, endpoint)
	status := 0
	defer func() {
		done(status, outcomeOf(err), err)
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return classifyTransport(werr)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeTransport, Message: "failed to create request", Cause: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("TUTOR_TRANSPORT_ERROR", "endpoint", endpoint, "error", err)
		return classifyTransport(err)
	}
	defer drainAndClose(resp.Body)
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransport(err)
	}

	slog.Debug("TUTOR_RESPONSE",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"bytes", len(data),
		"ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A failure body that is not JSON still counts as an application
		// error; callers fall back to their generic message.
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &ClientError{
			Type:    ErrTypeApplication,
			Message: endpoint + " failed",
			Status:  resp.StatusCode,
			Server:  strings.TrimSpace(eb.Error),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeTransport, Message: ErrUnreachable.Message, Cause: err}
}

func outcomeOf(err error) telemetry.Outcome {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case IsTransport(err):
		return telemetry.OutcomeTransport
	default:
		return telemetry.OutcomeApplication
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeUpload builds the multipart body for /upload_image.
func encodeUpload(r Request, img *capture.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+quoteEscaper.Replace(img.Name)+`"`)
	mime := img.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	fields := []struct{ name, value string }{
		{"subject", r.Subject},
		{"mode", string(r.Mode)},
		{"solution_mode", string(r.SolutionMode)},
	}
	if strings.TrimSpace(r.Message) != "" {
		fields = append(fields, struct{ name, value string }{"message", r.Message})
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// drainAndClose drains any remaining data from the reader before closing.
// This allows the underlying TCP connection to be reused.
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 4096))
	_ = r.Close()
}
