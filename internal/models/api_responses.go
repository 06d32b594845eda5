package models

// AnswerResponse is returned by the chat and research endpoints.
type AnswerResponse struct {
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ContactResponse acknowledges a delivered contact request.
type ContactResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is returned by the probe endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
