package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/topicreel/internal/ports/adapters/httpapi"
)

const (
	defaultModel   = "anthropic/claude-sonnet-4"
	requestTimeout = 90 * time.Second
)

// ErrTruncated means the model stopped at its token limit. A cut script would
// silently lose trailing segments, so it is reported instead of parsed.
var ErrTruncated = errors.New("openrouter: reply truncated at the token limit")

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

type Option func(*Adapter)

func WithClient(c *http.Client) Option { return func(a *Adapter) { a.client = c } }

func WithLogger(l zerolog.Logger) Option { return func(a *Adapter) { a.log = l } }

func New(apiKey, model, baseURL string, opts ...Option) *Adapter {
	if model == "" {
		model = defaultModel
	}
	a := &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: httpapi.NormalizeBaseURL(baseURL, defaultBaseURL),
		client:  &http.Client{Timeout: 5 * time.Minute},
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	// Upstream provider failures can arrive with status 200.
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends prompt as a single user message and returns the reply text.
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    a.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "topicreel")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, httpapi.ErrorBody(rb, a.key))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openrouter error %v: %s", out.Error.Code, httpapi.ErrorBody([]byte(out.Error.Message), a.key))
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openrouter: no choices")
	}
	a.log.Debug().
		Str("model", out.Model).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Msg("openrouter completion")

	choice := out.Choices[0]
	if choice.FinishReason == "length" {
		return "", ErrTruncated
	}
	return contentText(choice.Message.Content)
}

// contentText accepts a plain string or an array of {type,text} parts.
func contentText(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []any:
		var b strings.Builder
		for _, it := range x {
			if m, ok := it.(map[string]any); ok {
				if t, ok := m["text"].(string); ok {
					b.WriteString(t)
				}
			}
		}
		s = b.String()
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return "", errors.New("openrouter: empty content")
	}
	return s, nil
}
