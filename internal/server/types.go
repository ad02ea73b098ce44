package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK       bool   `json:"ok"`
	Upstream string `json:"upstream"`          // Enso API base URL
	Cache    string `json:"cache,omitempty"`   // "ok", "down" or empty when disabled
	Journal  string `json:"journal,omitempty"` // same values as Cache
}

// ItemsResponse wraps list payloads
type ItemsResponse struct {
	Items any `json:"items"`
}

// FlagSetRequest creates or replaces an endpoint switch
type FlagSetRequest struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// FlagUpdateRequest updates the switch named in the path
type FlagUpdateRequest struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}
