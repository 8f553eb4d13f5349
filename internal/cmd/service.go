package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/blocking"
	"github.com/AdguardTeam/dnsreport/internal/domainlist"
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/metrics"
	"github.com/AdguardTeam/dnsreport/internal/querylog"
	"github.com/AdguardTeam/dnsreport/internal/setupvars"
	"github.com/AdguardTeam/dnsreport/internal/stats"
	"github.com/AdguardTeam/dnsreport/internal/websvc"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// namedService is a service with a name for logging.
type namedService struct {
	svc  service.Interface
	name string
}

// serviceMgr manages the dnsreport services.
type serviceMgr struct {
	logger *slog.Logger

	// store is the event store written by the DNS engine.
	store *eventstore.Store

	// db is closed after all services are shut down.
	db *domainlist.DB

	web     *websvc.Service
	metrics *metricsSvc

	// services are started in order and shut down in the reverse order.
	services []*namedService
}

// newServiceMgr assembles the services from the configuration.  conf must be
// valid.
func newServiceMgr(
	ctx context.Context,
	baseLogger *slog.Logger,
	conf *configuration,
) (m *serviceMgr, err error) {
	settings, err := setupvars.New(&setupvars.Config{
		Logger: baseLogger.With(slogutil.KeyPrefix, "setupvars"),
		Path:   conf.SettingsFile,
		Watch:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating settings: %w", err)
	}

	return assemble(ctx, baseLogger, conf, settings)
}

// assemble creates the service manager with the services using settings.  If
// it fails, settings are shut down.
func assemble(
	ctx context.Context,
	baseLogger *slog.Logger,
	conf *configuration,
	settings *setupvars.File,
) (m *serviceMgr, err error) {
	defer func() {
		if err != nil {
			err = errors.WithDeferred(err, settings.Shutdown(ctx))
		}
	}()

	clock := timeutil.SystemClock{}

	storeConf := &eventstore.Config{
		Logger:    baseLogger.With(slogutil.KeyPrefix, "eventstore"),
		Clock:     clock,
		Privacy:   settings,
		SlotWidth: time.Duration(conf.Store.SlotWidth),
		SlotCount: conf.Store.SlotCount,
	}

	err = storeConf.Validate()
	if err != nil {
		return nil, fmt.Errorf("event store: %w", err)
	}

	store := eventstore.New(storeConf)

	db, err := domainlist.OpenDB(ctx, &domainlist.DBConfig{
		Logger: baseLogger.With(slogutil.KeyPrefix, "domainlist_db"),
		Clock:  clock,
		Path:   conf.ListsDB,
	})
	if err != nil {
		return nil, fmt.Errorf("opening lists: %w", err)
	}

	m = &serviceMgr{
		logger: baseLogger.With(slogutil.KeyPrefix, "service_mgr"),
		store:  store,
		db:     db,
	}

	err = m.initServices(baseLogger, conf, settings)
	if err != nil {
		return nil, errors.WithDeferred(err, db.Close())
	}

	return m, nil
}

// initServices creates the services over the store and the database of m.
func (m *serviceMgr) initServices(
	baseLogger *slog.Logger,
	conf *configuration,
	settings *setupvars.File,
) (err error) {
	reg := prometheus.NewRegistry()
	err = errors.Join(
		reg.Register(collectors.NewGoCollector()),
		reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
		metrics.RegisterStore(reg, m.store),
	)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTP(reg)
	if err != nil {
		return fmt.Errorf("creating http metrics: %w", err)
	}

	lists := domainlist.New(&domainlist.Config{
		Logger: baseLogger.With(slogutil.KeyPrefix, "domainlist"),
		Store:  m.db,
	})

	switcher := blocking.New(&blocking.Config{
		Logger:    baseLogger.With(slogutil.KeyPrefix, "blocking"),
		Clock:     timeutil.SystemClock{},
		Persister: settings,
		Enabled:   settings.Settings().BlockingEnabled,
	})

	webConf := &websvc.Config{
		Logger: baseLogger.With(slogutil.KeyPrefix, "websvc"),
		Reporter: stats.New(&stats.Config{
			Logger:   baseLogger.With(slogutil.KeyPrefix, "stats"),
			Store:    m.store,
			Privacy:  settings,
			Settings: settings,
			Audit:    lists,
			Blocking: switcher,
		}),
		QueryLog: querylog.New(&querylog.Config{
			Logger:  baseLogger.With(slogutil.KeyPrefix, "querylog"),
			Store:   m.store,
			Privacy: settings,
		}),
		Resolver:    m.store,
		Lists:       lists,
		Blocking:    switcher,
		Settings:    settings,
		Auth:        conf.Auth.toInternal(),
		Metrics:     httpMetrics,
		Addresses:   conf.HTTP.Addresses,
		Timeout:     time.Duration(conf.HTTP.Timeout),
		MaxBodySize: conf.MaxBodySize,
	}

	err = webConf.Validate()
	if err != nil {
		return fmt.Errorf("websvc: %w", err)
	}

	m.web, err = websvc.New(webConf)
	if err != nil {
		return fmt.Errorf("creating websvc: %w", err)
	}

	rotator := eventstore.NewRotator(
		baseLogger.With(slogutil.KeyPrefix, "rotator"),
		m.store,
		time.Duration(conf.Store.RotateInterval),
	)

	m.services = []*namedService{{
		svc:  settings,
		name: "settings",
	}, {
		svc:  rotator,
		name: "rotator",
	}, {
		svc:  m.web,
		name: "websvc",
	}}

	if conf.Metrics.enabled() {
		m.metrics = newMetricsSvc(
			baseLogger.With(slogutil.KeyPrefix, "metrics"),
			conf.Metrics.Address,
			reg,
			time.Duration(conf.HTTP.Timeout),
		)

		m.services = append(m.services, &namedService{
			svc:  m.metrics,
			name: "metrics",
		})
	}

	return nil
}

// type check
var _ service.Interface = (*serviceMgr)(nil)

// Start implements the [service.Interface] interface for *serviceMgr.  If a
// service fails to start, the already started ones are shut down.
func (m *serviceMgr) Start(ctx context.Context) (err error) {
	for i, s := range m.services {
		err = s.svc.Start(ctx)
		if err != nil {
			err = fmt.Errorf("starting %s: %w", s.name, err)

			return errors.WithDeferred(err, m.shutdownServices(ctx, m.services[:i]))
		}

		m.logger.DebugContext(ctx, "started service", "name", s.name)
	}

	return nil
}

// Shutdown implements the [service.Interface] interface for *serviceMgr.
func (m *serviceMgr) Shutdown(ctx context.Context) (err error) {
	err = m.shutdownServices(ctx, m.services)

	closeErr := m.db.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("closing lists: %w", closeErr)
	}

	return errors.Join(err, closeErr)
}

// shutdownServices shuts svcs down in the reverse order.
func (m *serviceMgr) shutdownServices(ctx context.Context, svcs []*namedService) (err error) {
	var errs []error
	for i := len(svcs) - 1; i >= 0; i-- {
		s := svcs[i]
		shutdownErr := s.svc.Shutdown(ctx)
		if shutdownErr != nil {
			errs = append(errs, fmt.Errorf("shutting down %s: %w", s.name, shutdownErr))

			continue
		}

		m.logger.DebugContext(ctx, "shut down service", "name", s.name)
	}

	return errors.Join(errs...)
}
