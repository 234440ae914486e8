// Package config provides configuration management for the medtriage server.
// It covers the HTTP server, the LLM chat client, the places search client,
// logging, route definitions and the protective middleware settings.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Handler names accepted in route definitions.
const (
	HandlerTriage    = "triage"
	HandlerHospitals = "hospitals"
	HandlerPage      = "page"
	HandlerHealth    = "health"
	HandlerMetrics   = "metrics"
)

// LLM client implementations.
const (
	ClientGollm  = "gollm"
	ClientOpenAI = "openai"
)

// Environment variables holding the upstream API keys. They are consulted
// when the config file leaves the corresponding api_key empty.
const (
	EnvLLMAPIKey    = "MISTRAL_API_KEY"
	EnvPlacesAPIKey = "GOOGLE_API_KEY"
)

var (
	knownHandlers = map[string]bool{
		HandlerTriage:    true,
		HandlerHospitals: true,
		HandlerPage:      true,
		HandlerHealth:    true,
		HandlerMetrics:   true,
	}
	knownSources    = map[string]bool{"query": true, "json": true}
	knownMiddleware = map[string]bool{"ratelimit": true, "queue": true}
)

// Config represents the complete server configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	LLM            LLMConfig            `yaml:"llm"`
	Places         PlacesConfig         `yaml:"places"`
	Logging        LoggingConfig        `yaml:"logging"`
	Routes         []RouteConfig        `yaml:"routes"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Queue          QueueConfig          `yaml:"queue"`
	Page           PageConfig           `yaml:"page"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
// It defines timeouts, limits, and operational parameters.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 5000)
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// It must leave room for the slowest upstream call (default: 90s)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// ShutdownTimeout specifies how long to wait for the server to shutdown
	// gracefully before forcing termination (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig holds the chat completion client configuration.
type LLMConfig struct {
	// Client selects the implementation: "openai" (OpenAI-compatible API,
	// the default) or "gollm". gollm reports failures without the upstream
	// message.
	Client string `yaml:"client"`

	// Provider is the gollm provider name (default: "mistral")
	Provider string `yaml:"provider"`

	// Model is the pinned model identifier
	Model string `yaml:"model"`

	// APIKey authenticates against the chat API.
	// Falls back to $MISTRAL_API_KEY when empty.
	APIKey string `yaml:"api_key"`

	// Endpoint is the base URL of an OpenAI-compatible API.
	// Only used by the "openai" client.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single completion call
	Timeout time.Duration `yaml:"timeout"`
}

// PlacesConfig holds the places search client configuration.
type PlacesConfig struct {
	// APIKey authenticates against the places API.
	// Falls back to $GOOGLE_API_KEY when empty.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the Google Maps API host (tests, proxies)
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single search call
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond caps outbound search calls; 0 keeps the client default
	RequestsPerSecond int `yaml:"requests_per_second"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`

	// Format specifies log output format: json or text
	Format string `yaml:"format"`
}

// RouteConfig holds route-specific configuration.
type RouteConfig struct {
	// Path is the URL path to match
	Path string `yaml:"path"`

	// Handler specifies which handler to use for this route
	Handler string `yaml:"handler"`

	// Methods specifies the allowed HTTP methods for this route
	Methods []string `yaml:"methods"`

	// Sources lists where coordinates are read from, in order ("query", "json").
	// Required for hospitals routes.
	Sources []string `yaml:"sources,omitempty"`

	// Middleware specifies the route-specific middleware ("ratelimit", "queue")
	Middleware []string `yaml:"middleware,omitempty"`
}

// CircuitBreakerConfig configures the breakers guarding upstream calls.
type CircuitBreakerConfig struct {
	// Enabled wraps both upstream clients in a breaker
	Enabled bool `yaml:"enabled"`

	// MaxRequests is maximum number of requests allowed to pass through when in half-open state
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period of the closed state for the circuit breaker
	Interval time.Duration `yaml:"interval"`

	// Timeout is the period of the open state until it becomes half-open
	Timeout time.Duration `yaml:"timeout"`

	// FailureThreshold is the number of consecutive failures needed to trip the circuit
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// QueueConfig defines the configuration for the admission queue middleware.
type QueueConfig struct {
	// MaxSize is the number of requests admitted at once; later ones get 503
	MaxSize int64 `yaml:"max_size"`
}

// PageConfig configures the HTML form front-end.
type PageConfig struct {
	// TriageURL is where the page re-posts form input.
	// Empty means the local triage route on the configured port.
	TriageURL string `yaml:"triage_url"`
}

// DefaultConfig returns the configuration used when no file overrides it.
// The route table exposes both hospital lookup variants.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},

		LLM: LLMConfig{
			Client:   ClientOpenAI,
			Provider: "mistral",
			Model:    "mistral-large-latest",
			Endpoint: "https://api.mistral.ai/v1",
			Timeout:  60 * time.Second,
		},

		Places: PlacesConfig{
			Timeout: 10 * time.Second,
		},

		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},

		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             10,
		},

		Queue: QueueConfig{
			MaxSize: 100,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		Routes: []RouteConfig{
			{
				Path:       "/triage",
				Handler:    HandlerTriage,
				Methods:    []string{"POST"},
				Middleware: []string{"ratelimit", "queue"},
			},
			{
				Path:       "/nearest_hospitals",
				Handler:    HandlerHospitals,
				Methods:    []string{"GET"},
				Sources:    []string{"query"},
				Middleware: []string{"ratelimit"},
			},
			{
				Path:       "/nearest-hospitals",
				Handler:    HandlerHospitals,
				Methods:    []string{"POST"},
				Sources:    []string{"json"},
				Middleware: []string{"ratelimit"},
			},
			{
				Path:       "/",
				Handler:    HandlerPage,
				Methods:    []string{"GET", "POST"},
				Middleware: []string{"ratelimit"},
			},
			{
				Path:    "/health",
				Handler: HandlerHealth,
				Methods: []string{"GET"},
			},
			{
				Path:    "/metrics",
				Handler: HandlerMetrics,
				Methods: []string{"GET"},
			},
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// expandEnvVars resolves ${VAR} and ${VAR:-default} references. An unset or
// empty variable falls back to the default when one is given, otherwise it
// expands to the empty string.
//
//	"${PORT:-5000}" -> "5000" (if PORT is unset)
//	"${HOST}/v1"    -> "api.mistral.ai/v1"
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	})
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Start with defaults
	config := DefaultConfig()

	// An empty document leaves the defaults untouched
	dec := yaml.NewDecoder(strings.NewReader(expandEnvVars(string(data))))
	if err := dec.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	config.ResolveSecrets()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// ResolveSecrets fills empty API keys from the process environment.
func (c *Config) ResolveSecrets() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(EnvLLMAPIKey)
	}
	if c.Places.APIKey == "" {
		c.Places.APIKey = os.Getenv(EnvPlacesAPIKey)
	}
}

// TriageURL returns the URL the page controller posts form input to.
func (c *Config) TriageURL() string {
	if c.Page.TriageURL != "" {
		return c.Page.TriageURL
	}
	return fmt.Sprintf("http://127.0.0.1:%d/triage", c.Server.Port)
}

func (c *Config) hasRoute(handler string) bool {
	for _, route := range c.Routes {
		if route.Handler == handler {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.Port == 0 && c.Page.TriageURL == "" && c.hasRoute(HandlerPage) {
		return fmt.Errorf("port 0 needs page.triage_url: the page cannot reach an ephemeral port")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.MaxHeaderBytes < 0 {
		return fmt.Errorf("negative max header bytes: %d", c.Server.MaxHeaderBytes)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}

	// LLM validation
	switch c.LLM.Client {
	case ClientGollm:
		if c.LLM.Provider == "" {
			return fmt.Errorf("empty LLM provider")
		}
	case ClientOpenAI:
		if c.LLM.Endpoint == "" {
			return fmt.Errorf("empty LLM endpoint")
		}
	default:
		return fmt.Errorf("invalid LLM client: %q", c.LLM.Client)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("empty LLM model")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("missing LLM api key (set %s)", EnvLLMAPIKey)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("negative LLM timeout: %v", c.LLM.Timeout)
	}

	// Places validation
	if c.Places.APIKey == "" {
		return fmt.Errorf("missing places api key (set %s)", EnvPlacesAPIKey)
	}
	if c.Places.Timeout < 0 {
		return fmt.Errorf("negative places timeout: %v", c.Places.Timeout)
	}
	if c.Places.RequestsPerSecond < 0 {
		return fmt.Errorf("negative places requests per second: %d", c.Places.RequestsPerSecond)
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Protective middleware
	if c.CircuitBreaker.Enabled && c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("circuit breaker failure threshold must be positive")
	}
	if c.CircuitBreaker.Interval < 0 || c.CircuitBreaker.Timeout < 0 {
		return fmt.Errorf("negative circuit breaker durations")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("negative rate limit settings")
	}
	if c.Queue.MaxSize < 0 {
		return fmt.Errorf("negative queue size: %d", c.Queue.MaxSize)
	}

	// Route validation
	if len(c.Routes) == 0 {
		return fmt.Errorf("no routes configured")
	}
	for i, route := range c.Routes {
		if route.Path == "" {
			return fmt.Errorf("empty path in route %d", i)
		}
		if !knownHandlers[route.Handler] {
			return fmt.Errorf("unknown handler %q in route %d", route.Handler, i)
		}
		if len(route.Methods) == 0 {
			return fmt.Errorf("no methods in route %d", i)
		}
		if route.Handler == HandlerHospitals && len(route.Sources) == 0 {
			return fmt.Errorf("hospitals route %d has no parameter sources", i)
		}
		for _, s := range route.Sources {
			if !knownSources[s] {
				return fmt.Errorf("unknown parameter source %q in route %d", s, i)
			}
		}
		for _, m := range route.Middleware {
			if !knownMiddleware[m] {
				return fmt.Errorf("unknown middleware %q in route %d", m, i)
			}
		}
	}

	return nil
}
