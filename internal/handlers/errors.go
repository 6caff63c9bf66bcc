package handlers

// APIError represents a standardized error response format for the API.
// @Description APIError represents a standardized error response format, including an application-specific error code, a human-readable message, and optional details.
type APIError struct {
	Code    string      `json:"code"`              // Application-specific error code (e.g., "RUN_NOT_FOUND", "VALIDATION_ERROR")
	Message string      `json:"message"`           // Human-readable message describing the error
	Details interface{} `json:"details,omitempty"` // Optional field for additional error details
}

// Predefined application-specific error codes
const (
	// Generic Errors
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"

	// Input Validation & Data Errors
	ErrorCodeValidation      = "VALIDATION_ERROR" // General validation failure
	ErrorCodeInvalidJSON     = "INVALID_JSON"     // Malformed JSON payload
	ErrorCodeInvalidIDFormat = "INVALID_ID_FORMAT"

	// Resource Specific Errors
	ErrorCodeRunNotFound = "RUN_NOT_FOUND"

	// Business Logic / State Errors
	ErrorCodeEmptyBatch = "EMPTY_BATCH" // Clean or predict called with no records
)
