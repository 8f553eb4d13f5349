package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/metrics"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/prometheus/client_golang/prometheus"
)

// pathMetrics is the path of the Prometheus metrics.
const pathMetrics = "/metrics"

// metricsSvc serves the Prometheus metrics on a separate listener.
type metricsSvc struct {
	logger *slog.Logger
	http   *http.Server
	addr   netip.AddrPort

	// mu protects listener.
	mu       *sync.Mutex
	listener net.Listener
}

// newMetricsSvc returns a new properly initialized *metricsSvc serving the
// metrics gathered by g on addr.
func newMetricsSvc(
	logger *slog.Logger,
	addr netip.AddrPort,
	g prometheus.Gatherer,
	timeout time.Duration,
) (svc *metricsSvc) {
	mux := http.NewServeMux()
	mux.Handle(http.MethodGet+" "+pathMetrics, metrics.Handler(g))

	return &metricsSvc{
		logger: logger,
		http: &http.Server{
			Handler:           mux,
			ReadTimeout:       timeout,
			ReadHeaderTimeout: timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       timeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		addr: addr,
		mu:   &sync.Mutex{},
	}
}

// type check
var _ service.Interface = (*metricsSvc)(nil)

// Start implements the [service.Interface] interface for *metricsSvc.
func (svc *metricsSvc) Start(ctx context.Context) (err error) {
	l, err := net.Listen("tcp", svc.addr.String())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", svc.addr, err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.listener = l

	go svc.serve(ctx, l)

	return nil
}

// serve serves the metrics on l.  It is intended to be used as a goroutine.
func (svc *metricsSvc) serve(ctx context.Context, l net.Listener) {
	defer slogutil.RecoverAndLog(ctx, svc.logger)

	svc.logger.InfoContext(ctx, "starting", "addr", l.Addr())

	err := svc.http.Serve(l)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	svc.logger.ErrorContext(ctx, "serving", slogutil.KeyError, err)
}

// Shutdown implements the [service.Interface] interface for *metricsSvc.
func (svc *metricsSvc) Shutdown(ctx context.Context) (err error) {
	err = svc.http.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}

	return nil
}

// localAddr returns the address the service listens on or nil if it is not
// started.
func (svc *metricsSvc) localAddr() (addr net.Addr) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.listener == nil {
		return nil
	}

	return svc.listener.Addr()
}
