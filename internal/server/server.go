package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/shiftboard/internal/dashboard"
	"github.com/runnerr0/shiftboard/internal/figure"
	"github.com/runnerr0/shiftboard/internal/metrics"
)

// Options configures a Server.
type Options struct {
	Addr            string
	MetricsAddr     string // empty serves /metrics on Addr
	MetricsEnabled  bool
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	AllowedOrigins  []string // CORS origins for /api; empty disables CORS
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// Server serves the dashboard page, chart endpoints and the filter callback.
// Everything it reads is built before the first request and never modified.
type Server struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	views   *dashboard.Views
	handler http.Handler

	info   figure.InfoPanel
	pie    *figure.Pie
	pieSVG []byte
}

// New prepares the static parts of the page from views and builds the router.
func New(views *dashboard.Views, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = 1 << 20
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		views:   views,
		info:    figure.NewInfoPanel(views),
		pie:     figure.NewPie(views),
	}

	var buf bytes.Buffer
	if err := figure.RenderPieSVG(&buf, s.pie); err != nil {
		if !errors.Is(err, figure.ErrEmptyPie) {
			return nil, err
		}
		s.logger.Warn("pie chart has no positive durations; rendering placeholder")
	} else {
		s.pieSVG = buf.Bytes()
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/", s.handlePage)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/chart", func(r chi.Router) {
		r.Get("/pie.svg", s.handlePieSVG)
		r.Get("/timeline.svg", s.handleTimelineSVG)
	})

	r.Route("/api", func(r chi.Router) {
		if len(s.opts.AllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.opts.AllowedOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				ExposedHeaders: []string{"X-Filter-State"},
				MaxAge:         300,
			}))
		}
		r.Get("/summary", s.handleSummary)
		r.Get("/pie", s.handlePie)
		r.Get("/timeline", s.handleTimeline)
		r.Post("/filter", s.handleFilter)
	})

	if s.opts.MetricsEnabled && s.opts.MetricsAddr == "" {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	servers := []*http.Server{{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}}
	listeners := []net.Listener{ln}

	if s.opts.MetricsEnabled && s.opts.MetricsAddr != "" {
		mln, err := net.Listen("tcp", s.opts.MetricsAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen metrics %s: %w", s.opts.MetricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		servers = append(servers, &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second})
		listeners = append(listeners, mln)
		s.logger.Info("metrics listening", "addr", mln.Addr().String())
	}

	s.logger.Info("dashboard listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	for i := range servers {
		srv, l := servers[i], listeners[i]
		g.Go(func() error {
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
