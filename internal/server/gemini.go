// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// historyWindow is how many past turns are replayed to the model.
const historyWindow = 10

const systemInstruction = "Bạn là gia sư AI cho học sinh Việt Nam. " +
	"Luôn trả lời bằng tiếng Việt, rõ ràng và chính xác. " +
	"Dùng Markdown cho định dạng và LaTeX trong $...$ hoặc $$...$$ cho công thức toán học."

// GeminiAnswerer answers questions with a Gemini model.
type GeminiAnswerer struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiAnswerer creates a Gemini client for apiKey.
func NewGeminiAnswerer(ctx context.Context, apiKey, modelName string) (*GeminiAnswerer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: API key is empty")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnswerer{client: client, model: modelName, temperature: 0.3}, nil
}

// Name identifies the answerer in logs and /health.
func (g *GeminiAnswerer) Name() string { return "gemini:" + g.model }

// Answer sends the prompt, the optional image and recent history to Gemini.
func (g *GeminiAnswerer) Answer(ctx context.Context, q Question, history []Turn) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	m.SetTemperature(g.temperature)

	cs := m.StartChat()
	cs.History = historyContents(history)

	parts := []genai.Part{genai.Text(BuildPrompt(q))}
	if len(q.Image) > 0 {
		parts = append(parts, genai.ImageData("jpeg", q.Image))
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		slog.Warn("GEMINI_EMPTY_RESPONSE", "model", g.model)
		return FallbackAnswer, nil
	}
	return text, nil
}

// Close releases the Gemini client.
func (g *GeminiAnswerer) Close() error {
	return g.client.Close()
}

func historyContents(history []Turn) []*genai.Content {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	out := make([]*genai.Content, 0, 2*len(history))
	for _, t := range history {
		if t.User == "" || t.Bot == "" {
			continue
		}
		out = append(out,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(t.User)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(t.Bot)}},
		)
	}
	return out
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
