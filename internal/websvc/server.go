package websvc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
)

// server is a single HTTP listener of the API.
type server struct {
	http *http.Server

	baseLogger *slog.Logger
	addr       netip.AddrPort

	// mu protects listener and logger, which are set by [server.listen].
	mu       *sync.Mutex
	listener net.Listener
	logger   *slog.Logger
}

// newServer returns a new server for addr.  The listener is not bound until
// [server.listen] is called.  handler must not be nil.
func newServer(
	baseLogger *slog.Logger,
	addr netip.AddrPort,
	handler http.Handler,
	timeout time.Duration,
) (s *server) {
	s = &server{
		http: &http.Server{
			Handler:           handler,
			ReadTimeout:       timeout,
			ReadHeaderTimeout: timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       timeout,
		},
		baseLogger: baseLogger,
		addr:       addr,
		mu:         &sync.Mutex{},
	}

	s.setLogger(addr.String())

	return s
}

// setLogger sets the logger of s and of its HTTP server using host as the
// server's identifier.  s.mu must be locked or s must not be shared yet.
func (s *server) setLogger(host string) {
	u := &url.URL{
		Scheme: urlutil.SchemeHTTP,
		Host:   host,
	}

	s.logger = s.baseLogger.With("server", u)
	s.http.ErrorLog = slog.NewLogLogger(s.logger.Handler(), slog.LevelError)
}

// localAddr returns the address s is listening on or nil if it isn't listening
// yet.
func (s *server) localAddr() (addr net.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// listen binds the TCP listener of s.
func (s *server) listen(ctx context.Context) (err error) {
	lc := &net.ListenConfig{}
	l, err := lc.Listen(ctx, "tcp", s.addr.String())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = l

	// The port may have been chosen by the system.
	s.setLogger(l.Addr().String())

	return nil
}

// serve handles requests on the listener bound by [server.listen] until the
// server is shut down.  It is intended to be used as a goroutine.
func (s *server) serve(ctx context.Context) {
	s.mu.Lock()
	l, logger := s.listener, s.logger
	s.mu.Unlock()

	defer slogutil.RecoverAndLog(ctx, logger)

	logger.InfoContext(ctx, "serving")

	err := s.http.Serve(l)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorContext(ctx, "serving", slogutil.KeyError, err)
	}
}

// shutdown gracefully stops s and closes its listener.
func (s *server) shutdown(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.http.Shutdown(ctx)
	if err != nil {
		err = fmt.Errorf("shutting down server on %s: %w", s.addr, err)
	}

	if s.listener == nil {
		return err
	}

	// The listener stays open when Shutdown returns early because of ctx.
	closeErr := s.listener.Close()
	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		err = errors.Join(err, fmt.Errorf("closing listener: %w", closeErr))
	}

	return err
}
