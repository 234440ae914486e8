package provider

import (
	"context"

	"github.com/teilomillet/medtriage/server/circuitbreaker"
)

type chatBreaker struct {
	next    ChatCompleter
	breaker *circuitbreaker.CircuitBreaker
}

// WithChatBreaker guards c with cb. While the circuit is open Complete fails
// fast with circuitbreaker.ErrCircuitOpen.
func WithChatBreaker(c ChatCompleter, cb *circuitbreaker.CircuitBreaker) ChatCompleter {
	return &chatBreaker{next: c, breaker: cb}
}

func (b *chatBreaker) Complete(ctx context.Context, messages []Message) (string, error) {
	var text string
	err := b.breaker.Execute(func() error {
		var err error
		text, err = b.next.Complete(ctx, messages)
		return err
	})
	return text, err
}

type placesBreaker struct {
	next    PlacesSearcher
	breaker *circuitbreaker.CircuitBreaker
}

// WithPlacesBreaker guards s with cb. An empty result set is a success.
func WithPlacesBreaker(s PlacesSearcher, cb *circuitbreaker.CircuitBreaker) PlacesSearcher {
	return &placesBreaker{next: s, breaker: cb}
}

func (b *placesBreaker) SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	var places []Place
	err := b.breaker.Execute(func() error {
		var err error
		places, err = b.next.SearchNearby(ctx, q)
		return err
	})
	return places, err
}
