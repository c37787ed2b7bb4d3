package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS builds the CORS middleware for the dashboard and import clients.
// DELETE and PUT are deliberately absent; the API is uploads plus reads.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}
