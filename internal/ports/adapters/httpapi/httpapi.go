// Package httpapi holds the pieces shared by the JSON-over-HTTPS service
// adapters: base URL policy and secret scrubbing for error messages.
package httpapi

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// NormalizeBaseURL trims whitespace and trailing slashes, falling back to def.
func NormalizeBaseURL(baseURL, def string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = def
	}
	return strings.TrimRight(baseURL, "/")
}

// Endpoint describes a service base URL and the hosts it may point at.
// Name is the environment variable prefix used in error messages.
type Endpoint struct {
	Name         string
	DefaultURL   string
	DefaultHosts []string
}

// Validate rejects anything but an https URL without userinfo, query or
// fragment whose host is in allowedHosts (or the defaults when empty).
func (e Endpoint) Validate(baseURL string, allowedHosts []string) error {
	baseURL = NormalizeBaseURL(baseURL, e.DefaultURL)
	env := e.Name + "_BASE_URL"

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", env, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", env, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", env, baseURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", env, baseURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("invalid %s %q: https is required", env, baseURL)
	}

	allowed := e.allowed(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in %s_ALLOWED_HOSTS", env, baseURL, host, e.Name)
	}
	return nil
}

// CheckURL vets a URL handed back by the service before credentials are sent
// to it. It must share baseURL's scheme, carry no userinfo and point at the
// base host or an allowed host.
func (e Endpoint) CheckURL(raw, baseURL string, allowedHosts []string) error {
	base, err := url.Parse(NormalizeBaseURL(baseURL, e.DefaultURL))
	if err != nil {
		return fmt.Errorf("invalid %s_BASE_URL: %w", e.Name, err)
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid service url: %w", err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return fmt.Errorf("service url %q: absolute URL with host is required", raw)
	}
	if u.User != nil {
		return fmt.Errorf("service url %q: userinfo is not allowed", raw)
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) {
		return fmt.Errorf("service url %q: scheme %q does not match %s", raw, u.Scheme, base.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	allowed := e.allowed(allowedHosts)
	allowed[strings.ToLower(base.Hostname())] = struct{}{}
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("service url %q: host %q is not in %s_ALLOWED_HOSTS", raw, host, e.Name)
	}
	return nil
}

func (e Endpoint) allowed(allowedHosts []string) map[string]struct{} {
	out := NormalizeHosts(allowedHosts)
	if len(out) == 0 {
		out = NormalizeHosts(e.DefaultHosts)
	}
	return out
}

// NormalizeHosts lowercases hosts and strips schemes, ports and slashes.
// Blank entries are dropped.
func NormalizeHosts(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}

// SplitHosts parses a comma separated *_ALLOWED_HOSTS value.
func SplitHosts(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)((?:api[_-]?key|token)\s*[:=]\s*)([^\n\r,;]+)`)
)

// RedactSecrets scrubs the key itself plus anything shaped like a credential.
func RedactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ErrorBody renders a non-2xx body for embedding in an error.
func ErrorBody(body []byte, apiKey string) string {
	return Truncate(RedactSecrets(string(body), apiKey), 400)
}
