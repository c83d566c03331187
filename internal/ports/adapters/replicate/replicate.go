// Package replicate drives the Replicate predictions API for every
// generation step: script text, narration, segment visuals and music.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/topicreel/internal/ports/adapters/httpapi"
	"github.com/forPelevin/topicreel/internal/types"
)

const (
	requestTimeout    = 2 * time.Minute
	predictionTimeout = 15 * time.Minute
	pollInterval      = 2 * time.Second
)

type Adapter struct {
	token   string
	baseURL string
	// hosts are the extra hosts poll URLs may point at.
	hosts   []string
	client  *http.Client
	poll    time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

type Option func(*Adapter)

func WithClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithAllowedHosts lets poll URLs point at these hosts besides the base host.
func WithAllowedHosts(hosts []string) Option {
	return func(a *Adapter) { a.hosts = hosts }
}

func WithPollInterval(d time.Duration) Option {
	return func(a *Adapter) { a.poll = d }
}

// WithTimeout bounds one prediction including polling.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

func New(token, baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		token:   token,
		baseURL: httpapi.NormalizeBaseURL(baseURL, defaultBaseURL),
		client:  &http.Client{Timeout: requestTimeout},
		poll:    pollInterval,
		timeout: predictionTimeout,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Text binds a language model to the adapter so it satisfies
// ports.TextGenerator.
func (a *Adapter) Text(model string, params map[string]any) *Text {
	return &Text{a: a, model: model, params: params}
}

type Text struct {
	a      *Adapter
	model  string
	params map[string]any
}

func (t *Text) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := t.a.Predict(ctx, t.model, withInput(t.params, "prompt", prompt))
	if err != nil {
		return "", err
	}
	s := outputText(out)
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("replicate %s: empty text output", t.model)
	}
	return s, nil
}

func (a *Adapter) Synthesize(ctx context.Context, r types.SpeechRequest) ([]string, error) {
	input := withInput(r.Params, "text", r.Text)
	if r.Voice != "" {
		input["voice_id"] = r.Voice
	}
	if r.Emotion != "" {
		input["emotion"] = r.Emotion
	}
	return a.predictURLs(ctx, r.Model, input)
}

func (a *Adapter) GenerateVideo(ctx context.Context, r types.VideoRequest) ([]string, error) {
	return a.predictURLs(ctx, r.Model, withInput(r.Params, "prompt", r.Prompt))
}

// GenerateMusic asks for a bed of r.Duration when the model takes a duration
// parameter; other models return their native length.
func (a *Adapter) GenerateMusic(ctx context.Context, r types.MusicRequest) ([]string, error) {
	input := withInput(r.Params, "prompt", r.Prompt)
	if _, ok := input["duration"]; ok && r.Duration > 0 {
		input["duration"] = int(math.Ceil(r.Duration.Seconds()))
	}
	return a.predictURLs(ctx, r.Model, input)
}

func (a *Adapter) predictURLs(ctx context.Context, model string, input map[string]any) ([]string, error) {
	out, err := a.Predict(ctx, model, input)
	if err != nil {
		return nil, err
	}
	urls := outputURLs(out)
	if len(urls) == 0 {
		return nil, fmt.Errorf("replicate %s: no file output", model)
	}
	return urls, nil
}

type prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	Error  any    `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// Predict creates a prediction for model ("owner/name" or
// "owner/name:version") and waits for it to finish, returning its raw output.
func (a *Adapter) Predict(ctx context.Context, model string, input map[string]any) (any, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	url, body, err := a.createRequest(model, input)
	if err != nil {
		return nil, err
	}
	p, err := a.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("replicate %s: %w", model, err)
	}
	a.log.Debug().Str("model", model).Str("id", p.ID).Str("status", p.Status).Msg("prediction created")

	for !p.terminal() {
		if p.URLs.Get == "" {
			return nil, fmt.Errorf("replicate %s: prediction %s is %s without a poll url", model, p.ID, p.Status)
		}
		if err := endpoint.CheckURL(p.URLs.Get, a.baseURL, a.hosts); err != nil {
			return nil, fmt.Errorf("replicate %s: poll: %w", model, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("replicate %s: prediction %s: %w", model, p.ID, ctx.Err())
		case <-time.After(a.poll):
		}
		p, err = a.do(ctx, http.MethodGet, p.URLs.Get, nil)
		if err != nil {
			return nil, fmt.Errorf("replicate %s: poll: %w", model, err)
		}
		a.log.Debug().Str("model", model).Str("id", p.ID).Str("status", p.Status).Msg("prediction polled")
	}

	if p.Status != "succeeded" {
		return nil, fmt.Errorf("replicate %s: prediction %s %s: %v", model, p.ID, p.Status, p.Error)
	}
	return p.Output, nil
}

func (a *Adapter) createRequest(model string, input map[string]any) (string, []byte, error) {
	if input == nil {
		input = map[string]any{}
	}
	name, version, pinned := strings.Cut(strings.TrimSpace(model), ":")
	owner, slug, ok := strings.Cut(name, "/")
	if !ok || owner == "" || slug == "" {
		return "", nil, fmt.Errorf("replicate: model %q is not owner/name", model)
	}

	payload := map[string]any{"input": input}
	url := a.baseURL + "/v1/models/" + owner + "/" + slug + "/predictions"
	if pinned {
		payload["version"] = version
		url = a.baseURL + "/v1/predictions"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}
	return url, body, nil
}

func (a *Adapter) do(ctx context.Context, method, url string, body []byte) (prediction, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return prediction{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "wait")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return prediction{}, fmt.Errorf("timeout after %s", a.timeout)
		}
		return prediction{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return prediction{}, fmt.Errorf("status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return prediction{}, fmt.Errorf("status %d: %s", resp.StatusCode, httpapi.ErrorBody(rb, a.token))
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return prediction{}, fmt.Errorf("decode prediction: %w", err)
	}
	return p, nil
}

func withInput(params map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[key] = value
	return out
}

// outputText joins streamed token lists the way language models return them.
func outputText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		var b strings.Builder
		for _, it := range x {
			if s, ok := it.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	default:
		return ""
	}
}

func outputURLs(v any) []string {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, it := range x {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
