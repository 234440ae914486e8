// Package provider wraps the external services the server depends on: a
// chat completion API used for triage and a places search API used for the
// hospital lookup. Clients are built once at startup and shared by all
// requests.
package provider

import (
	"context"
)

// Message roles understood by every chat client.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat message sent to the completion API.
type Message struct {
	Role    string
	Content string
}

// ChatCompleter returns the text of the first reply to a conversation.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// NearbyQuery describes a places search around a point.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	// Radius in meters
	Radius uint
	// Category is the upstream place type, e.g. "hospital"
	Category string
}

// Place is one search result. Coordinates are nil when the upstream record
// lacks them.
type Place struct {
	Name      string
	Vicinity  string
	Latitude  *float64
	Longitude *float64
}

// PlacesSearcher finds places near a point, in upstream ranking order.
type PlacesSearcher interface {
	SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error)
}
