package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/send-gcode/pkg/framework"
)

// DefaultPath is where metrics are served.
const DefaultPath = "/metrics"

// Server serves metrics over HTTP.
type Server struct {
	Addr     string
	Path     string
	Registry *prometheus.Registry
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// NewServer creates a Server.
func NewServer(addr string, reg *prometheus.Registry) *Server {
	return &Server{Addr: addr, Path: DefaultPath, Registry: reg}
}

// Handler returns the http.Handler serving the metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux.Handle(path, promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	glog.Infof("serving metrics on %s", s.Addr)
	err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	if err == http.ErrServerClosed {
		return context.Canceled
	}
	return err
}
