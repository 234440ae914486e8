package provider

import (
	"fmt"

	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/server/circuitbreaker"
	"github.com/teilomillet/medtriage/server/metrics"
	"go.uber.org/zap"
)

// Clients holds the upstream capabilities shared by all handlers.
type Clients struct {
	Chat   ChatCompleter
	Places PlacesSearcher
}

// NewClients builds both upstream clients from cfg and wraps them with the
// configured circuit breakers and metrics. It is called once per process.
func NewClients(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Clients, error) {
	chat, err := newChatCompleter(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("chat client: %w", err)
	}
	places, err := NewGooglePlaces(cfg.Places)
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}
	return Wrap(chat, places, cfg.CircuitBreaker, m, logger), nil
}

// Wrap applies breakers (when enabled) and instrumentation around raw clients.
func Wrap(chat ChatCompleter, places PlacesSearcher, cbCfg config.CircuitBreakerConfig, m *metrics.Metrics, logger *zap.Logger) *Clients {
	if cbCfg.Enabled {
		breakerCfg := circuitbreaker.Config{
			FailureThreshold: cbCfg.FailureThreshold,
			MaxRequests:      cbCfg.MaxRequests,
			Interval:         cbCfg.Interval,
			Timeout:          cbCfg.Timeout,
		}
		chat = WithChatBreaker(chat, circuitbreaker.NewCircuitBreaker(metrics.ServiceChat, breakerCfg, logger, m.Registry()))
		places = WithPlacesBreaker(places, circuitbreaker.NewCircuitBreaker(metrics.ServicePlaces, breakerCfg, logger, m.Registry()))
	}
	return &Clients{
		Chat:   InstrumentChat(chat, m, logger),
		Places: InstrumentPlaces(places, m, logger),
	}
}

func newChatCompleter(cfg config.LLMConfig) (ChatCompleter, error) {
	switch cfg.Client {
	case config.ClientOpenAI, "":
		return NewOpenAICompleter(cfg, nil)
	case config.ClientGollm:
		return NewGollmCompleter(cfg)
	}
	return nil, fmt.Errorf("unknown llm client %q", cfg.Client)
}
