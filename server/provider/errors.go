package provider

import "errors"

var (
	// ErrNoChoices is returned when a completion response carries no reply
	ErrNoChoices = errors.New("chat completion returned no choices")

	// ErrEmptyAPIKey is returned when a client is built without credentials
	ErrEmptyAPIKey = errors.New("api key is empty")
)
