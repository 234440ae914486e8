// Package routing builds the HTTP route table of the medtriage server from
// configuration. Each configured route names a handler, the methods it
// answers and the route-specific middleware in front of it.
package routing

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/handlers"
	"github.com/teilomillet/medtriage/server/metrics"
	"github.com/teilomillet/medtriage/server/middleware"
	"github.com/teilomillet/medtriage/server/params"
	"github.com/teilomillet/medtriage/server/processing"
	"go.uber.org/zap"
)

// Dependencies are the shared components handlers and middleware are built
// from. Components a route table does not reference may be nil.
type Dependencies struct {
	Triager     *processing.Triager
	Locator     *processing.HospitalLocator
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Queue       *middleware.QueueMiddleware

	// HTTPClient is used by the page for its call to the triage route
	HTTPClient *http.Client
}

// Router handles HTTP routing for the configured route table.
type Router struct {
	router chi.Router
	cfg    *config.Config
	deps   Dependencies
	logger *zap.Logger
}

// NewRouter creates a router with the global middleware stack and every
// route of cfg.Routes. It fails on a route it cannot build rather than
// serving a partial table.
func NewRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) (*Router, error) {
	r := &Router{
		router: chi.NewRouter(),
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}

	// Global middleware stack
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Logging(logger))
	r.router.Use(middleware.Recovery(logger))
	r.router.Use(middleware.CORS())
	if deps.Metrics != nil {
		r.router.Use(middleware.PrometheusMetrics(deps.Metrics))
	}

	r.router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, errors.NewNotFoundError(middleware.GetRequestID(req.Context()), "Not found"))
	})
	r.router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, errors.NewMethodNotAllowedError(middleware.GetRequestID(req.Context())))
	})

	if err := r.setupRoutes(); err != nil {
		return nil, err
	}
	return r, nil
}

// setupRoutes configures all routes based on the configuration.
// For each route:
// - Builds the named handler
// - Adds route-specific middleware in the listed order
// - Restricts HTTP methods
func (r *Router) setupRoutes() error {
	servesPage := false
	for _, route := range r.cfg.Routes {
		handler, err := r.buildHandler(route)
		if err != nil {
			return fmt.Errorf("route %s: %w", route.Path, err)
		}
		chain, err := r.buildMiddleware(route)
		if err != nil {
			return fmt.Errorf("route %s: %w", route.Path, err)
		}
		if route.Handler == config.HandlerPage {
			servesPage = true
		}

		methods := route.Methods
		if len(methods) == 0 {
			methods = []string{http.MethodGet} // Default to GET if no methods specified
		}

		r.router.Group(func(router chi.Router) {
			for _, mw := range chain {
				router.Use(mw)
			}
			for _, method := range methods {
				router.Method(method, route.Path, handler)
			}
		})

		r.logger.Debug("Route registered",
			zap.String("path", route.Path),
			zap.String("handler", route.Handler),
			zap.Strings("methods", methods),
			zap.Strings("middleware", route.Middleware),
		)
	}

	// The page loads its script from here
	if servesPage {
		r.router.Get("/static/*", handlers.StaticHandler().ServeHTTP)
	}
	return nil
}

func (r *Router) buildHandler(route config.RouteConfig) (http.Handler, error) {
	switch route.Handler {
	case config.HandlerTriage:
		if r.deps.Triager == nil {
			return nil, fmt.Errorf("triage handler needs a triager")
		}
		return handlers.NewTriageHandler(r.deps.Triager, r.logger), nil

	case config.HandlerHospitals:
		if r.deps.Locator == nil {
			return nil, fmt.Errorf("hospitals handler needs a locator")
		}
		sources, err := params.ParseSources(route.Sources)
		if err != nil {
			return nil, err
		}
		return handlers.NewHospitalsHandler(r.deps.Locator, params.NewCoordinateParser(sources...), r.logger), nil

	case config.HandlerPage:
		return handlers.NewPageHandler(r.cfg.TriageURL(), r.deps.HTTPClient, r.logger)

	case config.HandlerHealth:
		return http.HandlerFunc(handlers.Health), nil

	case config.HandlerMetrics:
		if r.deps.Metrics == nil {
			return nil, fmt.Errorf("metrics handler needs metrics")
		}
		return r.deps.Metrics.Handler(), nil

	default:
		return nil, fmt.Errorf("unknown handler %q", route.Handler)
	}
}

func (r *Router) buildMiddleware(route config.RouteConfig) ([]func(http.Handler) http.Handler, error) {
	chain := make([]func(http.Handler) http.Handler, 0, len(route.Middleware))
	for _, mw := range route.Middleware {
		switch mw {
		case "ratelimit":
			if r.deps.RateLimiter == nil {
				return nil, fmt.Errorf("ratelimit middleware needs a rate limiter")
			}
			chain = append(chain, r.deps.RateLimiter.Handler)
		case "queue":
			if r.deps.Queue == nil {
				return nil, fmt.Errorf("queue middleware needs a queue")
			}
			chain = append(chain, r.deps.Queue.Handler)
		default:
			return nil, fmt.Errorf("unknown middleware %q", mw)
		}
	}
	return chain, nil
}

// ServeHTTP implements the http.Handler interface.
// Delegates request handling to the underlying Chi router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
