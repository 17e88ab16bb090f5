// Package ollama provides a text-completion adapter for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/llm"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.TextCompletionProvider = (*Provider)(nil)

const providerName = "ollama"

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Provider completes prompts with the /api/chat endpoint.
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error,omitempty"`
}

// New creates an Ollama provider. No credentials are needed.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Complete produces a text completion for the prompt.
func (p *Provider) Complete(
	ctx context.Context,
	prompt string,
	opts driven.CompletionOptions,
) (driven.Completion, error) {
	text, tokens, err := p.chat(ctx, prompt, opts, "")
	if err != nil {
		return driven.Completion{}, err
	}
	return driven.Completion{Text: text, TokensUsed: tokens}, nil
}

// CompleteJSON uses Ollama's "json" format and validates against schema.
func (p *Provider) CompleteJSON(
	ctx context.Context,
	prompt, schema string,
	opts driven.CompletionOptions,
) (driven.JSONCompletion, error) {
	text, tokens, err := p.chat(ctx, llm.JSONPrompt(prompt, schema), opts, "json")
	if err != nil {
		return driven.JSONCompletion{}, err
	}
	data, err := llm.DecodeObject(text, schema)
	if err != nil {
		return driven.JSONCompletion{}, fmt.Errorf("ollama: %w", err)
	}
	return driven.JSONCompletion{Data: data, Raw: text, TokensUsed: tokens}, nil
}

func (p *Provider) chat(
	ctx context.Context,
	prompt string,
	opts driven.CompletionOptions,
	format string,
) (string, int, error) {
	messages := make([]chatMessage, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Format:   format,
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(opts.StopWords) > 0 {
		reqBody.Options = &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("ollama: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("ollama: read response: %w", err)
	}

	var chatResp chatResponse
	decodeErr := json.Unmarshal(body, &chatResp)
	if err := llm.CheckResponse(providerName, resp, body, chatResp.Error); err != nil {
		return "", 0, err
	}
	if decodeErr != nil {
		return "", 0, fmt.Errorf("ollama: decode response: %w", decodeErr)
	}

	return chatResp.Message.Content, chatResp.PromptEvalCount + chatResp.EvalCount, nil
}

// ModelName returns the name of the model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed (is Ollama running?): %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return llm.CheckResponse(providerName, resp, body, "")
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
