// Package server is the HTTP surface of s3gate: authentication endpoints,
// backend configuration endpoints and the directory-style object API, all
// but the first guarded by bearer-token access control.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/koustreak/s3gate/internal/auth"
	"github.com/koustreak/s3gate/internal/config"
	"github.com/koustreak/s3gate/internal/gateway"
	"github.com/koustreak/s3gate/internal/logger"
	"github.com/koustreak/s3gate/internal/metrics"
)

// Options tunes the router.
type Options struct {
	// MaxUploadSize caps the request body of uploads in bytes. Zero means no limit.
	MaxUploadSize int64
	CORS          config.CORSConfig
	// MetricsPath is where Prometheus metrics are served when Metrics is set.
	MetricsPath string
}

// Server wires the gateway, the credential store and the token service to
// HTTP routes.
type Server struct {
	gw      *gateway.Gateway
	creds   *auth.CredentialStore
	tokens  *auth.TokenService
	log     *logger.Logger
	metrics *metrics.Metrics
	opts    Options
}

// New returns a Server. m may be nil to disable metrics.
func New(gw *gateway.Gateway, creds *auth.CredentialStore, tokens *auth.TokenService, log *logger.Logger, m *metrics.Metrics, opts Options) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{
		gw:      gw,
		creds:   creds,
		tokens:  tokens,
		log:     log.With().Str("component", "http").Logger(),
		metrics: m,
		opts:    opts,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.log.Middleware)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if c := s.opts.CORS; c.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   c.AllowedOrigins,
			AllowedMethods:   c.AllowedMethods,
			AllowedHeaders:   c.AllowedHeaders,
			ExposedHeaders:   c.ExposedHeaders,
			AllowCredentials: c.AllowCredentials,
			MaxAge:           c.MaxAge,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.opts.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Get("/validate", s.handleValidate)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(AccessControl(s.tokens, s.log))

			r.Route("/config", func(r chi.Router) {
				r.Get("/", s.handleGetConfig)
				r.Put("/", s.handlePutConfig)
				r.Post("/test", s.handleTestConfig)
				r.Get("/status", s.handleConfigStatus)
			})

			r.Route("/s3", func(r chi.Router) {
				r.Get("/objects", s.handleList)
				r.Post("/objects", s.handleUpload)
				r.Delete("/objects", s.handleDelete)
				r.Get("/objects/metadata", s.handleMetadata)
				r.Get("/objects/download", s.handleDownload)
				r.Get("/buckets", s.handleBuckets)
				r.Post("/folders", s.handleCreateFolder)
				r.Get("/test-connection", s.handleTestConnection)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.gw.State().String(),
	})
}

// requestLog returns the server logger tagged with the request id.
func (s *Server) requestLog(r *http.Request) *logger.Logger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return s.log.With().Str("request_id", id).Logger()
	}
	return s.log
}
