package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS answers browser preflights and tags responses for allowed origins.
type CORS struct {
	c *cors.Cors
}

// NewCORS creates a CORS middleware for origins. A "*" entry allows any origin.
func NewCORS(origins []string) *CORS {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	return &CORS{c: cors.New(cors.Options{
		AllowedOrigins:       allowed,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:       []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	})}
}

func (c *CORS) Apply(next http.Handler) http.Handler {
	return c.c.Handler(next)
}
