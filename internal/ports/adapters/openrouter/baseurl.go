package openrouter

import "github.com/forPelevin/topicreel/internal/ports/adapters/httpapi"

const defaultBaseURL = "https://openrouter.ai"

var endpoint = httpapi.Endpoint{
	Name:         "OPENROUTER",
	DefaultURL:   defaultBaseURL,
	DefaultHosts: []string{"openrouter.ai", "api.openrouter.ai"},
}

func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	return endpoint.Validate(baseURL, allowedHosts)
}
