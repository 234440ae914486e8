package provider

import (
	"context"
	"time"

	"github.com/teilomillet/medtriage/server/metrics"
	"go.uber.org/zap"
)

type instrumentedChat struct {
	next    ChatCompleter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// InstrumentChat records the duration and outcome of every completion call.
func InstrumentChat(c ChatCompleter, m *metrics.Metrics, logger *zap.Logger) ChatCompleter {
	return &instrumentedChat{next: c, metrics: m, logger: logger}
}

func (i *instrumentedChat) Complete(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, messages)
	duration := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	i.metrics.ObserveUpstream(metrics.ServiceChat, outcome, duration)
	i.logger.Debug("chat completion finished",
		zap.String("outcome", outcome),
		zap.Duration("duration", duration),
		zap.Int("messages", len(messages)),
		zap.Int("reply_length", len(text)),
	)
	return text, err
}

type instrumentedPlaces struct {
	next    PlacesSearcher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// InstrumentPlaces records the duration and outcome of every search call.
func InstrumentPlaces(s PlacesSearcher, m *metrics.Metrics, logger *zap.Logger) PlacesSearcher {
	return &instrumentedPlaces{next: s, metrics: m, logger: logger}
}

func (i *instrumentedPlaces) SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	start := time.Now()
	places, err := i.next.SearchNearby(ctx, q)
	duration := time.Since(start)

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case len(places) == 0:
		outcome = metrics.OutcomeEmpty
	}
	i.metrics.ObserveUpstream(metrics.ServicePlaces, outcome, duration)
	i.logger.Debug("places search finished",
		zap.String("outcome", outcome),
		zap.Duration("duration", duration),
		zap.Int("results", len(places)),
	)
	return places, err
}
