package middleware

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue/v2"
	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/metrics"
)

// drainPollInterval is how often Shutdown checks for in-flight requests.
const drainPollInterval = 50 * time.Millisecond

// QueueMiddleware bounds the number of requests admitted at once. A triage
// request holds its slot for the whole LLM call.
//
// Each admitted request adds a completion channel to a FIFO queue and
// removes one when it finishes; the queue length is the number of requests
// in flight. Requests arriving while the queue is full get 503.
type QueueMiddleware struct {
	queue      *queue.Queue[chan struct{}]
	maxSize    atomic.Int64
	mu         sync.Mutex
	processing atomic.Int32
	metrics    *metrics.Metrics
	closed     atomic.Bool
}

// QueueConfig defines the operational parameters for the queue middleware.
type QueueConfig struct {
	MaxSize int64            // Maximum requests admitted at once
	Metrics *metrics.Metrics // Optional metrics collector
}

// NewQueueMiddleware initializes a new queue middleware with the given configuration.
func NewQueueMiddleware(cfg QueueConfig) *QueueMiddleware {
	qm := &QueueMiddleware{
		queue:   queue.New[chan struct{}](),
		metrics: cfg.Metrics,
	}
	qm.maxSize.Store(cfg.MaxSize)
	return qm
}

// SetMaxSize updates the admission limit. It takes effect for the next
// request; requests already admitted are unaffected.
func (qm *QueueMiddleware) SetMaxSize(size int64) {
	qm.maxSize.Store(size)
}

// GetMaxSize returns the current maximum queue size.
func (qm *QueueMiddleware) GetMaxSize() int64 {
	return qm.maxSize.Load()
}

// GetQueueSize returns the current queue length.
func (qm *QueueMiddleware) GetQueueSize() int {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.queue.Length()
}

// GetProcessing returns the number of requests currently being processed.
func (qm *QueueMiddleware) GetProcessing() int32 {
	return qm.processing.Load()
}

// Shutdown stops admitting requests and waits for admitted ones to finish
// or for ctx to end.
func (qm *QueueMiddleware) Shutdown(ctx context.Context) error {
	qm.closed.Store(true)

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		if qm.GetQueueSize() == 0 && qm.GetProcessing() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			if qm.metrics != nil {
				qm.metrics.ErrorsTotal.WithLabelValues("queue_shutdown_timeout").Inc()
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Handler admits requests while there is room in the queue.
func (qm *QueueMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := GetRequestID(r.Context())

		if qm.closed.Load() {
			errors.WriteError(w, errors.NewUnavailableError(requestID, "Server is shutting down"))
			return
		}

		qm.mu.Lock()
		if int64(qm.queue.Length()) >= qm.maxSize.Load() {
			qm.mu.Unlock()
			if qm.metrics != nil {
				qm.metrics.ErrorsTotal.WithLabelValues("queue_full").Inc()
			}
			errors.WriteError(w, errors.NewUnavailableError(requestID, "Server is busy, try again later"))
			return
		}
		done := make(chan struct{})
		qm.queue.Add(done)
		qm.setQueuedLocked()
		qm.mu.Unlock()

		qm.processing.Add(1)
		if qm.metrics != nil {
			qm.metrics.ActiveRequests.WithLabelValues("processing").Inc()
		}

		defer func() {
			qm.processing.Add(-1)
			if qm.metrics != nil {
				qm.metrics.ActiveRequests.WithLabelValues("processing").Dec()
				qm.metrics.RequestDuration.WithLabelValues("queue_wait").Observe(time.Since(start).Seconds())
			}
			close(done)
			qm.mu.Lock()
			qm.queue.Remove()
			qm.setQueuedLocked()
			qm.mu.Unlock()
		}()

		next.ServeHTTP(w, r)
	})
}

func (qm *QueueMiddleware) setQueuedLocked() {
	if qm.metrics != nil {
		qm.metrics.ActiveRequests.WithLabelValues("queued").Set(float64(qm.queue.Length()))
	}
}
