package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server"
	"github.com/teilomillet/medtriage/server/metrics"
	"github.com/teilomillet/medtriage/server/middleware"
	"github.com/teilomillet/medtriage/server/processing"
	"github.com/teilomillet/medtriage/server/provider"
	"github.com/teilomillet/medtriage/server/routing"
	"go.uber.org/zap"
)

const Version = "v0.1.0"

// pageClientSlack is added to the LLM timeout for the page's loopback call.
const pageClientSlack = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "medtriage: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("medtriage", flag.ContinueOnError)
	configFile := flags.String("config", "medtriage.yaml", "Path to configuration file")
	envFile := flags.String("env", ".env", "Path to an optional .env file")
	validate := flags.Bool("validate", false, "Validate configuration and exit")
	version := flags.Bool("version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Fprintf(stdout, "medtriage %s\n", Version)
		return nil
	}

	// Environment first so the config file can reference it
	loadedEnv, err := config.LoadDotEnv(*envFile)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Just validate and exit if requested
	if *validate {
		fmt.Fprintln(stdout, "Configuration is valid")
		return nil
	}

	logger, level, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	errors.SetLogger(logger)

	if loadedEnv != "" {
		logger.Info("Loaded environment file", zap.String("path", loadedEnv))
	}

	m := metrics.NewMetrics()
	clients, err := provider.NewClients(cfg, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create upstream clients: %w", err)
	}
	triager, err := processing.NewTriager(clients.Chat)
	if err != nil {
		return err
	}

	queue := middleware.NewQueueMiddleware(middleware.QueueConfig{
		MaxSize: cfg.Queue.MaxSize,
		Metrics: m,
	})
	srv, err := server.New(cfg, routing.Dependencies{
		Triager:     triager,
		Locator:     processing.NewHospitalLocator(clients.Places),
		Metrics:     m,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, m),
		Queue:       queue,
		HTTPClient:  &http.Client{Timeout: cfg.LLM.Timeout + pageClientSlack},
	}, logger)
	if err != nil {
		return err
	}

	watcher, err := config.NewConfigWatcher(*configFile, logger)
	if err != nil {
		logger.Warn("Config hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		go server.WatchConfig(ctx, watcher, level, queue, logger)
	}

	logger.Info("Starting medtriage",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("llm_client", cfg.LLM.Client),
		zap.String("model", cfg.LLM.Model),
	)
	return srv.Start(ctx)
}
