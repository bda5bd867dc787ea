package security

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"hostelfees/internal/log"
)

// CORS allows browser requests from the listed origins only, with
// credentials. Requests without an Origin header are not affected.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := slices.Clone(allowedOrigins)
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if slices.Contains(origins, origin) {
				return true
			}
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
				"Blocked by CORS", "origin", origin)
			return false
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
