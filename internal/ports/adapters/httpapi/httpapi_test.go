package httpapi

import (
	"strings"
	"testing"
)

var testEndpoint = Endpoint{
	Name:         "OPENROUTER",
	DefaultURL:   "https://openrouter.ai",
	DefaultHosts: []string{"openrouter.ai", "api.openrouter.ai"},
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{name: "empty falls back to default", baseURL: ""},
		{name: "default host with https", baseURL: "https://openrouter.ai"},
		{name: "default api host with https", baseURL: "https://api.openrouter.ai/"},
		{name: "reject non-absolute URL", baseURL: "openrouter.ai", wantErr: true},
		{name: "reject http by default", baseURL: "http://openrouter.ai", wantErr: true},
		{name: "reject unknown host by default", baseURL: "https://evil.example", wantErr: true},
		{name: "allow configured host", baseURL: "https://proxy.internal", allowedHosts: []string{"proxy.internal"}},
		{name: "configured host with scheme and port", baseURL: "https://proxy.internal:8443", allowedHosts: []string{"https://Proxy.Internal:8443/"}},
		{name: "reject query", baseURL: "https://openrouter.ai?x=1", wantErr: true},
		{name: "reject userinfo", baseURL: "https://u:p@openrouter.ai", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testEndpoint.Validate(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEndpointCheckURL(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		baseURL      string
		allowedHosts []string
		wantErr      string
	}{
		{name: "default host", raw: "https://api.openrouter.ai/v1/p/1"},
		{name: "base host", raw: "http://127.0.0.1:9000/v1/p/1", baseURL: "http://127.0.0.1:9000"},
		{name: "allowed host", raw: "https://cdn.internal/p/1", allowedHosts: []string{"cdn.internal"}},
		{name: "foreign host", raw: "https://evil.example/p/1", wantErr: "not in OPENROUTER_ALLOWED_HOSTS"},
		{name: "scheme downgrade", raw: "http://openrouter.ai/p/1", wantErr: "does not match https"},
		{name: "userinfo", raw: "https://u:p@openrouter.ai/p/1", wantErr: "userinfo"},
		{name: "relative", raw: "/v1/p/1", wantErr: "absolute URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testEndpoint.CheckURL(tt.raw, tt.baseURL, tt.allowedHosts)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEndpointValidate_NamesEnvVar(t *testing.T) {
	err := testEndpoint.Validate("https://evil.example", nil)
	if err == nil || !strings.Contains(err.Error(), "OPENROUTER_ALLOWED_HOSTS") {
		t.Fatalf("expected env var in error, got %v", err)
	}
}

func TestAllowed_DefaultWhenBlank(t *testing.T) {
	out := testEndpoint.allowed([]string{" ", "https://", "http://"})
	if len(out) != 2 {
		t.Fatalf("expected default allowed hosts, got %v", out)
	}
}

func TestSplitHosts(t *testing.T) {
	if got := SplitHosts("  "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := SplitHosts("a.example,b.example"); len(got) != 2 {
		t.Fatalf("unexpected split %v", got)
	}
}

func TestRedactSecrets(t *testing.T) {
	apiKey := "r8_super_secret"
	in := `status 401; Authorization: Bearer r8_super_secret; api_key=r8_super_secret; token: abc123`
	got := RedactSecrets(in, apiKey)

	if strings.Contains(got, apiKey) || strings.Contains(got, "abc123") {
		t.Fatalf("expected secrets to be redacted, got: %q", got)
	}
	if !strings.Contains(got, "Authorization: [REDACTED]") {
		t.Fatalf("expected authorization header to be redacted, got: %q", got)
	}
	if !strings.Contains(got, "api_key=[REDACTED]") {
		t.Fatalf("expected api_key field to be redacted, got: %q", got)
	}
}

func TestErrorBody_Truncates(t *testing.T) {
	got := ErrorBody([]byte(strings.Repeat("é", 1000)), "")
	if n := len([]rune(got)); n != 400 {
		t.Fatalf("expected 400 runes, got %d", n)
	}
}
