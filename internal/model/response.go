package model

// Response is the envelope every API response is wrapped in.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Error   *ErrorBody          `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ErrorBody is the machine-readable part of a failed response.
type ErrorBody struct {
	Code          string         `json:"code"`
	Details       map[string]any `json:"details,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}
