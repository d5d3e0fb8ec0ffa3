package errors

// ErrorResponse is the envelope every failed API request renders
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the caller-facing message plus any reportable
// details attached by the error builder (entity IDs, limits, dates)
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
