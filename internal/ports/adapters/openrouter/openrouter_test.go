package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	var gotAuth, gotModel, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if len(req.Messages) == 1 {
			gotPrompt = req.Messages[0].Content
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"1: a\n"},{"type":"text","text":"2: b"}]}}]}`))
	}))
	defer srv.Close()

	a := New("sk-test", "openai/gpt-4.1", srv.URL+"/")
	got, err := a.Generate(context.Background(), "write two segments")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "1: a\n2: b" {
		t.Fatalf("unexpected content %q", got)
	}
	if gotAuth != "Bearer sk-test" || gotModel != "openai/gpt-4.1" || gotPrompt != "write two segments" {
		t.Fatalf("unexpected request auth=%q model=%q prompt=%q", gotAuth, gotModel, gotPrompt)
	}
}

func TestGenerate_ErrorBodyIsRedacted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`bad key sk-or-v1-secret; Authorization: Bearer sk-or-v1-secret`))
	}))
	defer srv.Close()

	_, err := New("sk-or-v1-secret", "", srv.URL).Generate(context.Background(), "p")
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "sk-or-v1-secret") || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("unexpected error %q", err)
	}
}

func TestGenerate_ProviderFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"error object with 200", `{"error":{"code":502,"message":"upstream sk-or-v1-secret failed"}}`, "openrouter error 502"},
		{"truncated", `{"choices":[{"finish_reason":"length","message":{"content":"1: a"}}]}`, ErrTruncated.Error()},
		{"no choices", `{"choices":[]}`, "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New("sk-or-v1-secret", "", srv.URL, WithClient(srv.Client())).Generate(context.Background(), "p")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
			if strings.Contains(err.Error(), "sk-or-v1-secret") {
				t.Fatalf("key leaked: %v", err)
			}
		})
	}
}

func TestContentText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{"string", "1: hi", "1: hi", false},
		{"parts", []any{map[string]any{"text": "a"}, "junk", map[string]any{"text": "b"}}, "ab", false},
		{"blank", "  ", "", true},
		{"empty parts", []any{}, "", true},
		{"number", 42.0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := contentText(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	if err := ValidateBaseURL("", nil); err != nil {
		t.Fatalf("default base URL rejected: %v", err)
	}
	if err := ValidateBaseURL("https://evil.example", nil); err == nil {
		t.Fatalf("expected unknown host to be rejected")
	}
}
