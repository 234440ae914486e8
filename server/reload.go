package server

import (
	"context"

	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/server/middleware"
	"go.uber.org/zap"
)

// WatchConfig applies the settings that can change at runtime, the log
// level and the queue size, each time watcher publishes a new configuration.
// Everything else is fixed at startup. It returns when ctx is done or the
// watcher is closed. queue may be nil.
func WatchConfig(ctx context.Context, watcher config.Watcher, level zap.AtomicLevel, queue *middleware.QueueMiddleware, logger *zap.Logger) {
	updates := watcher.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			applyConfig(cfg, level, queue, logger)
		}
	}
}

func applyConfig(cfg *config.Config, level zap.AtomicLevel, queue *middleware.QueueMiddleware, logger *zap.Logger) {
	lvl, err := cfg.Logging.ZapLevel()
	if err != nil {
		logger.Warn("Ignoring invalid log level", zap.Error(err))
	} else if lvl != level.Level() {
		logger.Info("Log level changed",
			zap.Stringer("from", level.Level()),
			zap.Stringer("to", lvl),
		)
		level.SetLevel(lvl)
	}

	if queue != nil && cfg.Queue.MaxSize != queue.GetMaxSize() {
		logger.Info("Queue size changed",
			zap.Int64("from", queue.GetMaxSize()),
			zap.Int64("to", cfg.Queue.MaxSize),
		)
		queue.SetMaxSize(cfg.Queue.MaxSize)
	}
}
