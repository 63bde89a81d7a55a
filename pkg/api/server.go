package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/verdant-labs/greenledger/pkg/auth"
	"github.com/verdant-labs/greenledger/pkg/engine"
	"github.com/verdant-labs/greenledger/pkg/observability"
)

// Server exposes the ledger engine over HTTP.
type Server struct {
	engine    *engine.Engine
	logger    *slog.Logger
	limiter   LimiterStore
	validator *auth.Validator
	telemetry *observability.Provider
}

// Option configures a Server.
type Option func(*Server)

// WithLimiter installs a rate limiter in front of mutating endpoints.
func WithLimiter(l LimiterStore) Option {
	return func(s *Server) { s.limiter = l }
}

// WithValidator enables JWT authentication.
func WithValidator(v *auth.Validator) Option {
	return func(s *Server) { s.validator = v }
}

// WithTelemetry records metrics and spans for each operation.
func WithTelemetry(p *observability.Provider) Option {
	return func(s *Server) { s.telemetry = p }
}

// NewServer creates a server over the engine.
func NewServer(e *engine.Engine, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: e, logger: logger.With("component", "api")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with auth and rate limiting
// applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/v1/actions", s.handleActions)
	mux.HandleFunc("/v1/actions/verify", s.handleVerify)
	mux.HandleFunc("/v1/pending", s.handlePending)
	mux.HandleFunc("/v1/stats", s.handleStats)

	mux.HandleFunc("/v1/sponsors", s.handleSponsors)
	mux.HandleFunc("/v1/sponsors/contribute", s.handleContribute)

	mux.HandleFunc("/v1/tokens/transfer", s.handleTransfer)
	mux.HandleFunc("/v1/tokens/trade", s.handleTrade)
	mux.HandleFunc("/v1/tokens/approve", s.handleApprove)
	mux.HandleFunc("/v1/tokens/balance", s.handleBalance)
	mux.HandleFunc("/v1/tokens/meta", s.handleTokenMeta)

	mux.HandleFunc("/v1/status", s.handleStatus)

	mux.HandleFunc("/v1/admin/toggle", s.handleToggle)
	mux.HandleFunc("/v1/admin/token-uri", s.handleTokenURI)
	mux.HandleFunc("/v1/admin/verifiers", s.handleVerifiers)

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = auth.Middleware(s.validator, h)
	h = s.logRequests(h)
	return h
}

// rateLimit throttles mutating requests per principal (remote IP for
// anonymous callers). Reads pass through.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		key, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			} else {
				key = r.RemoteAddr
			}
		}
		allowed, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			s.logger.Error("rate limiter unavailable", "error", err)
			// Fail open: the limiter protects capacity, it is not an
			// authorization control.
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			WriteTooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if s.telemetry != nil {
			spanCtx, span := s.telemetry.StartSpan(ctx, r.Method+" "+r.URL.Path)
			defer span.End()
			ctx = spanCtx
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
