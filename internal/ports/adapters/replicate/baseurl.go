package replicate

import "github.com/forPelevin/topicreel/internal/ports/adapters/httpapi"

const defaultBaseURL = "https://api.replicate.com"

var endpoint = httpapi.Endpoint{
	Name:         "REPLICATE",
	DefaultURL:   defaultBaseURL,
	DefaultHosts: []string{"api.replicate.com"},
}

func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	return endpoint.Validate(baseURL, allowedHosts)
}
