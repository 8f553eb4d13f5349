// Package websvc contains the HTTP API of the reports, the query log, the
// blocking switch, and the domain lists.
//
// NOTE: Packages other than cmd must not import this package, as it imports
// most other packages.
package websvc

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/blocking"
	"github.com/AdguardTeam/dnsreport/internal/domainlist"
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/metrics"
	"github.com/AdguardTeam/dnsreport/internal/querylog"
	"github.com/AdguardTeam/dnsreport/internal/setupvars"
	"github.com/AdguardTeam/dnsreport/internal/stats"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/c2h5oh/datasize"
)

// Reporter builds the reports.  [*stats.Reporter] implements it.
type Reporter interface {
	Summary(ctx context.Context) (s *stats.Summary)
	History(ctx context.Context) (window []eventstore.Slot)
	ClientsOverTime(ctx context.Context) (cot *stats.ClientsOverTime)
	TopDomains(ctx context.Context, req *stats.TopRequest) (entries []stats.Entry)
	TopClients(ctx context.Context, req *stats.TopRequest) (entries []stats.Entry)
	Upstreams(ctx context.Context) (ups []stats.Upstream, c *eventstore.Counters)
	QueryTypes(ctx context.Context) (types []stats.TypeCount)
	Totals(ctx context.Context) (c eventstore.Counters)
}

// type check
var _ Reporter = (*stats.Reporter)(nil)

// QueryLog searches the recorded queries.  [*querylog.Log] implements it.
type QueryLog interface {
	Search(ctx context.Context, p *querylog.SearchParams) (entries []*querylog.Entry)
	RecentBlocked(ctx context.Context, n int) (domains []string)
}

// type check
var _ QueryLog = (*querylog.Log)(nil)

// Resolver resolves the names used in the query log filters into IDs.
// [*eventstore.Store] implements it.
type Resolver interface {
	DomainID(name string) (id int, ok bool)
	ClientID(ipOrName string) (id int, ok bool)
	ForwardID(ipOrName string) (id int, ok bool)
}

// type check
var _ Resolver = (*eventstore.Store)(nil)

// Lists manages the domain lists.  [*domainlist.Manager] implements it.
type Lists interface {
	List(ctx context.Context, cat domainlist.Category) (seq iter.Seq2[string, error])
	Add(ctx context.Context, cat domainlist.Category, entry string) (err error)
	Remove(ctx context.Context, cat domainlist.Category, entry string) (err error)
}

// type check
var _ Lists = (*domainlist.Manager)(nil)

// Blocking is the blocking switch.  [*blocking.Switch] implements it.
type Blocking interface {
	Status() (enabled bool, revertAt time.Time)
	Set(ctx context.Context, enabled bool, delay time.Duration) (err error)
}

// type check
var _ Blocking = (*blocking.Switch)(nil)

// Settings returns the current settings.  [*setupvars.File] implements it.
type Settings interface {
	Settings() (s *setupvars.Settings)
}

// type check
var _ Settings = (*setupvars.File)(nil)

// DefaultMaxBodySize is the default maximum size of a request body.
const DefaultMaxBodySize = 1 * datasize.KB

// Config is the configuration of the web service.
type Config struct {
	// Logger is used for logging the operation of the web service.  It must
	// not be nil.
	Logger *slog.Logger

	// Reporter builds the reports.  It must not be nil.
	Reporter Reporter

	// QueryLog searches the recorded queries.  It must not be nil.
	QueryLog QueryLog

	// Resolver resolves the names in query log filters.  It must not be nil.
	Resolver Resolver

	// Lists manages the domain lists.  It must not be nil.
	Lists Lists

	// Blocking is the blocking switch.  It must not be nil.
	Blocking Blocking

	// Settings is the source of the query log visibility.  It must not be
	// nil.
	Settings Settings

	// Auth is the configuration of the authentication.  It must not be nil.
	Auth *AuthConfig

	// Metrics records the requests.  It may be nil.
	Metrics *metrics.HTTP

	// Addresses are the addresses on which to serve the API.
	Addresses []netip.AddrPort

	// Timeout is the timeout for all server operations.
	Timeout time.Duration

	// MaxBodySize is the maximum size of a request body.  If it is zero,
	// [DefaultMaxBodySize] is used.
	MaxBodySize datasize.ByteSize
}

// type check
var _ validate.Interface = (*Config)(nil)

// Validate implements the [validate.Interface] interface for *Config.
func (c *Config) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		validate.NotNil("Logger", c.Logger),
		validate.NotNilInterface("Reporter", c.Reporter),
		validate.NotNilInterface("QueryLog", c.QueryLog),
		validate.NotNilInterface("Resolver", c.Resolver),
		validate.NotNilInterface("Lists", c.Lists),
		validate.NotNilInterface("Blocking", c.Blocking),
		validate.NotNilInterface("Settings", c.Settings),
		validate.NotNegative("Timeout", c.Timeout),
	}

	errs = validate.Append(errs, "Auth", c.Auth)

	return errors.Join(errs...)
}

// Service is the web service.
type Service struct {
	logger      *slog.Logger
	reporter    Reporter
	queryLog    QueryLog
	resolver    Resolver
	lists       Lists
	blocking    Blocking
	settings    Settings
	auth        *authenticator
	metrics     *metrics.HTTP
	handler     http.Handler
	servers     []*server
	maxBodySize datasize.ByteSize
}

// New returns a new properly initialized *Service.  c must not be nil and
// must be valid.
func New(c *Config) (svc *Service, err error) {
	auth, err := newAuthenticator(c.Logger, c.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	svc = &Service{
		logger:      c.Logger,
		reporter:    c.Reporter,
		queryLog:    c.QueryLog,
		resolver:    c.Resolver,
		lists:       c.Lists,
		blocking:    c.Blocking,
		settings:    c.Settings,
		auth:        auth,
		metrics:     c.Metrics,
		maxBodySize: c.MaxBodySize,
	}

	if svc.maxBodySize == 0 {
		svc.maxBodySize = DefaultMaxBodySize
	}

	mux := http.NewServeMux()
	svc.route(mux)
	svc.handler = mux

	for _, a := range c.Addresses {
		svc.servers = append(svc.servers, newServer(svc.logger, a, mux, c.Timeout))
	}

	return svc, nil
}

// ServeHTTP implements the [http.Handler] interface for *Service.
func (svc *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.handler.ServeHTTP(w, r)
}

// LocalAddrs returns the addresses on which the servers are listening.  They
// are only known after a successful call to [Service.Start].
func (svc *Service) LocalAddrs() (addrs []net.Addr) {
	for _, srv := range svc.servers {
		if addr := srv.localAddr(); addr != nil {
			addrs = append(addrs, addr)
		}
	}

	return addrs
}

// type check
var _ service.Interface = (*Service)(nil)

// Start implements the [service.Interface] interface for *Service.  All
// listeners are bound before it returns.
func (svc *Service) Start(ctx context.Context) (err error) {
	defer func() { err = errors.Annotate(err, "starting websvc: %w") }()

	for _, srv := range svc.servers {
		err = srv.listen(ctx)
		if err != nil {
			return err
		}

		go srv.serve(ctx)
	}

	return nil
}

// Shutdown implements the [service.Interface] interface for *Service.
func (svc *Service) Shutdown(ctx context.Context) (err error) {
	defer func() { err = errors.Annotate(err, "shutting down websvc: %w") }()

	var errs []error
	for _, srv := range svc.servers {
		errs = append(errs, srv.shutdown(ctx))
	}

	return errors.Join(errs...)
}
