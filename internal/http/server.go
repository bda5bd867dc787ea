package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hostelfees/internal/log"
	"hostelfees/internal/middleware/ratelimit"
	"hostelfees/internal/middleware/security"
	"hostelfees/internal/middleware/trace"
)

// ServerConfig carries the HTTP settings taken from the app config.
type ServerConfig struct {
	Addr              string
	AllowedOrigins    []string
	RequestsPerMinute int
	RequestTimeout    time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	Production        bool
}

// Server is the report API server.
type Server struct {
	http.Server
	trace        *trace.Middleware
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer wires the middleware stack and routes, returning a
// ready-to-run server.
func NewServer(cfg ServerConfig, reports Reporter, credentialsLoaded bool, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
			Window:            time.Minute,
		}),
	}
	s.trace = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg, NewHandlers(reports, credentialsLoaded)),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(cfg ServerConfig, h *Handlers) chi.Router {
	headers := security.DefaultHeadersConfig()
	headers.SSLRedirect = cfg.Production
	headers.IsDevelopment = !cfg.Production

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(s.trace.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(headers).Middleware)
	r.Use(security.CORS(cfg.AllowedOrigins))
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, nil))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.StripSlashes)
	r.Use(lowercasePath)
	r.Use(middleware.GetHead)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleNotFound)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/sheets", h.handleSheets)
	r.Get("/summary", h.handleSummary)
	r.Get("/roomwise", h.handleRoomWise)
	r.Get("/yearwise", h.handleYearWise)
	r.Get("/debug/columns", h.handleDebugColumns)
	r.Get("/debug/sample", h.handleDebugSample)
	return r
}

// lowercasePath routes /SUMMARY like /summary. Every route is registered
// in lower case and query values are untouched.
func lowercasePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		path := r.URL.Path
		if rctx != nil && rctx.RoutePath != "" {
			path = rctx.RoutePath
		}
		if lower := strings.ToLower(path); lower != path {
			if rctx != nil {
				rctx.RoutePath = lower
			} else {
				r.URL.Path = lower
			}
		}
		next.ServeHTTP(w, r)
	})
}

// TotalRequests returns how many requests the server has traced.
func (s *Server) TotalRequests() int64 {
	return s.trace.TotalRequests()
}

// Shutdown gracefully shuts down the server. Only the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
