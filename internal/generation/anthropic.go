package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/intake"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider talks to the Anthropic Messages API. PDFs are sent
// as base64 document blocks ahead of the prompt.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *logrus.Entry
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config *Config) *AnthropicProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &AnthropicProvider{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     config.logger().WithField("provider", "anthropic"),
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func buildAnthropicRequest(req Request) anthropicRequest {
	var blocks []anthropicBlock
	if req.Document.Kind == intake.KindPDF {
		blocks = append(blocks, anthropicBlock{
			Type: "document",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: req.Document.MediaType,
				Data:      req.Document.Encoded,
			},
		})
	}
	blocks = append(blocks, anthropicBlock{Type: "text", Text: req.Prompt})

	return anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: blocks}},
	}
}

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(buildAnthropicRequest(req))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	raw, err := p.do(ctx, http.MethodPost, "/v1/messages", body)
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Content) == 0 || resp.Content[0].Type != "text" {
		return "", errors.New("could not extract text from the model response")
	}
	return resp.Content[0].Text, nil
}

// ListModels implements ModelLister.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	raw, err := p.do(ctx, http.MethodGet, "/v1/models?limit=100", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (p *AnthropicProvider) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	p.log.WithFields(logrus.Fields{"method": method, "path": path, "content_length": len(body)}).Debug("Sending request")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		var apiErr anthropicError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &StatusError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("anthropic API error (%d %s): %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message),
			}
		}
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("anthropic API error: non-2xx status %d", resp.StatusCode),
		}
	}
	return raw, nil
}
