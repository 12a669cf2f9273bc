package utils

import "net/url"

// -----------------------------------------------------------------------------

// credentialParams lists query parameter names treated as secrets.
var credentialParams = []string{"apiKey", "apikey", "api_key", "token", "key"}

// -----------------------------------------------------------------------------

// MaskAPIKey hides credential material in an endpoint URL or bare key so it
// can be logged safely.
func MaskAPIKey(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err == nil && parsed.Scheme != "" {
		if parsed.RawQuery == "" {
			// A URL without a query string carries no credential.
			return endpoint
		}
		query := parsed.Query()
		for _, name := range credentialParams {
			if query.Has(name) {
				query.Set(name, "****")
			}
		}
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	// Not a URL with a query string: assume it is the key itself.
	if len(endpoint) > 8 {
		return endpoint[:4] + "****"
	}
	return "****"
}
