package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

var tracer = otel.Tracer("exposuregraph.llm.ollama")

// OllamaClient talks to a local Ollama server over its chat API.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewOllamaClient builds a client for the given host (e.g.
// "http://localhost:11434") and model.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	slog.Info("Initializing Ollama client", "base_url", baseURL, "model", model)
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
		model:      model,
	}
}

// Complete sends one chat turn and returns the assistant message content.
func (o *OllamaClient) Complete(ctx context.Context, prompt, system string) (string, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload := chatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]interface{}{"temperature": 0.0},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "non-200 response")
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}

	slog.Debug("Ollama completion finished", "model", o.model, "chars", len(parsed.Message.Content))
	return parsed.Message.Content, nil
}

var _ ports.LLMClient = (*OllamaClient)(nil)
