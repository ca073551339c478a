package dto

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ValidationErrorResponse carries soft validation failures as a
// field->message map; the caller decides whether to block the save.
type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
