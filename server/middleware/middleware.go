package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS handles Cross-Origin Resource Sharing. The page and its location
// script call the API from the browser, so every origin is allowed.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
}
