package httpapi

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/memfault/memfaultd/internal/log"
	"github.com/memfault/memfaultd/internal/obsmetrics"
)

// Server listens on a loopback address and dispatches every request to the
// first handler in its chain that claims it.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer binds addr and builds a server that will try handlers in order
// once Serve is called. When metrics is non-nil, every request that goes
// through the handler chain is recorded against it and the registry is
// served at /metrics; requests to /metrics itself are not recorded.
func NewServer(addr string, handlers []Handler, metrics *obsmetrics.Registry) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		dispatch(handlers, rec, r)

		if metrics != nil {
			metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		}
	})

	return &Server{
		httpServer: &http.Server{Handler: mux},
		listener:   listener,
	}, nil
}

// statusRecorder captures the status code a handler wrote so it can be
// reported after the fact without changing handler signatures.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Addr is the bound address, useful when addr was passed as ":0".
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Serve runs the server's accept loop until Shutdown is called. Intended to
// be run in its own goroutine.
func (s *Server) Serve() error {
	err := s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func dispatch(handlers []Handler, w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("httpapi")
	logger.Trace().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")

	for _, h := range handlers {
		outcome, err := h.HandleRequest(w, r)
		if err != nil {
			logger.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("handler error")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if outcome == Handled {
			return
		}
	}

	logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("no handler matched")
	http.NotFound(w, r)
}
