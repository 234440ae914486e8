package errors

// ErrorResponse is the only error body the service ever returns.
type ErrorResponse struct {
	Error string `json:"error"`
}
