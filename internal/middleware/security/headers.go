package security

import (
	"net/http"

	"github.com/unrolled/secure"

	"hostelfees/internal/log"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int64
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	ReferrerPolicy    string
	PermissionsPolicy string
	CrossOriginOpener string

	// SSLRedirect forces https, trusting X-Forwarded-Proto from the proxy.
	SSLRedirect bool
	// IsDevelopment disables HSTS and the redirect.
	IsDevelopment bool
}

// DefaultHeadersConfig returns defaults for a JSON-only API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	secure *secure.Secure
}

// NewHeadersMiddleware creates a new security headers middleware
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{
		secure: secure.New(secure.Options{
			FrameDeny:               true,
			ContentTypeNosniff:      true,
			BrowserXssFilter:        true,
			ContentSecurityPolicy:   config.CSP,
			ReferrerPolicy:          config.ReferrerPolicy,
			PermissionsPolicy:       config.PermissionsPolicy,
			CrossOriginOpenerPolicy: config.CrossOriginOpener,
			STSSeconds:              config.HSTSMaxAge,
			STSIncludeSubdomains:    config.HSTSIncludeSubdomains,
			STSPreload:              config.HSTSPreload,
			SSLRedirect:             config.SSLRedirect,
			SSLProxyHeaders:         map[string]string{"X-Forwarded-Proto": "https"},
			IsDevelopment:           config.IsDevelopment,
		}),
	}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.secure.Process(w, r); err != nil {
			// Process already wrote the redirect or rejection.
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
				"Secure headers blocked request", log.FieldError, err.Error(), log.FieldPath, r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}
