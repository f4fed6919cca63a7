// Package server provides the alertdesk Gin-based HTTP API.
//
//	GET  /                 HTML shell
//	GET  /static/*         embedded assets
//	POST /alerts/          create an alert
//	GET  /alerts/          list alerts, newest first
//	GET  /alerts/search    filter by hostname substring and time window
//	GET  /healthz          store reachability
//	GET  /metrics          prometheus exposition
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vesaa/alertdesk/internal/models"
	"github.com/vesaa/alertdesk/internal/store"
	"go.uber.org/zap"
)

// Publisher fans saved alerts out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, a models.Alert) error
}

// Options configures a Server. Store is required; everything else has a default.
type Options struct {
	Store     store.AlertStore
	Logger    *zap.Logger
	Publisher Publisher
	// Registry receives the HTTP and alert metrics. nil creates a private one.
	Registry *prometheus.Registry
	// IngestToken protects POST /alerts/ when non-empty.
	IngestToken string
	// RequestTimeout bounds each request's context. Zero disables it.
	RequestTimeout time.Duration
}

// Server holds the process-wide state shared by all handlers. It is built once
// at startup and never mutated by requests.
type Server struct {
	store          store.AlertStore
	log            *zap.Logger
	publisher      Publisher
	metrics        *Metrics
	ingestToken    string
	requestTimeout time.Duration
}

// New builds a Server from opts.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = nopPublisher{}
	}
	return &Server{
		store:          opts.Store,
		log:            log.Named("http"),
		publisher:      pub,
		metrics:        NewMetrics(opts.Registry),
		ingestToken:    opts.IngestToken,
		requestTimeout: opts.RequestTimeout,
	}
}

// Engine returns a Gin engine with middleware, the web shell and the API mounted.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		corsMiddleware,
		requestLogger(s.log),
		s.metrics.Middleware(),
		timeoutMiddleware(s.requestTimeout),
	)
	RegisterStaticFiles(r)
	s.RegisterRoutes(r)
	return r
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.Alert) error { return nil }
