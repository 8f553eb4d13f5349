// Package stats contains the top lists, the time series, and the summary of
// the recorded queries.
package stats

import (
	"context"
	"log/slog"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/dnsreport/internal/setupvars"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Store is the source of the aggregates.  [*eventstore.Store] implements it.
type Store interface {
	Counters() (c eventstore.Counters)
	Domains() (ds []eventstore.Domain)
	Clients() (cs []eventstore.Client)
	Forwards() (fs []eventstore.Forward)
	Slots() (slots []eventstore.Slot)
	ClientSlots() (slots []eventstore.Slot, clients []eventstore.Client, counts [][]int64)
	Now() (ts int64)
}

// type check
var _ Store = (*eventstore.Store)(nil)

// SettingsSource returns the current settings.  [*setupvars.File] implements
// it.
type SettingsSource interface {
	Settings() (s *setupvars.Settings)
}

// AuditSource returns the predicate of the audit list.
// [*domainlist.Manager] implements it.
type AuditSource interface {
	Audited(ctx context.Context) (pred func(domain string) (ok bool), err error)
}

// BlockingStatus reports the blocking state.  [*blocking.Switch] implements
// it.
type BlockingStatus interface {
	Enabled() (ok bool)
}

// Config is the configuration structure for [Reporter].
type Config struct {
	// Logger is used for logging the operation of the reporter.  It must not
	// be nil.
	Logger *slog.Logger

	// Store is the source of the aggregates.  It must not be nil.
	Store Store

	// Privacy is the source of the current privacy level.  It must not be nil.
	Privacy privacy.Source

	// Settings is the source of the exclusions and the visibility.  It must
	// not be nil.
	Settings SettingsSource

	// Audit is the source of the audit list.  It must not be nil.
	Audit AuditSource

	// Blocking is the blocking state.  It must not be nil.
	Blocking BlockingStatus
}

// Reporter builds the reports over a store using the current settings.  All
// reports degrade to empty results instead of failing.
type Reporter struct {
	logger   *slog.Logger
	store    Store
	privacy  privacy.Source
	settings SettingsSource
	audit    AuditSource
	blocking BlockingStatus
}

// New returns a new *Reporter.  conf must not be nil.
func New(conf *Config) (r *Reporter) {
	return &Reporter{
		logger:   conf.Logger,
		store:    conf.Store,
		privacy:  conf.Privacy,
		settings: conf.Settings,
		audit:    conf.Audit,
		blocking: conf.Blocking,
	}
}

// TopRequest is a request for a top list.
type TopRequest struct {
	// Limit is the maximum number of entries.  Non-positive values mean
	// [DefaultLimit].
	Limit int

	// Ascending sorts the entries from the least to the most queried.
	Ascending bool

	// BlockedOnly ranks by the number of blocked queries.
	BlockedOnly bool

	// IncludeZero keeps the clients with a zero count.
	IncludeZero bool

	// Audit omits the audited domains instead of the excluded ones.
	Audit bool
}

// TopDomains returns the top list of domains.  It is empty when domains are
// hidden or when the kind of queries asked for is not shown.
func (r *Reporter) TopDomains(ctx context.Context, req *TopRequest) (entries []Entry) {
	if privacy.Gate(r.privacy.PrivacyLevel(), privacy.LevelHideDomains) {
		return nil
	}

	s := r.settings.Settings()
	if req.BlockedOnly && !s.QueryLogShow.Blocked() ||
		!req.BlockedOnly && !s.QueryLogShow.Permitted() {
		return nil
	}

	p := &TopParams{
		Exclude:     s.ExcludeDomains,
		Limit:       req.Limit,
		Ascending:   req.Ascending,
		BlockedOnly: req.BlockedOnly,
	}

	if req.Audit {
		audited, err := r.audit.Audited(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "reading audit list", slogutil.KeyError, err)
		} else {
			p.Audited = audited
		}
	}

	return RankDomains(r.store.Domains(), p)
}

// TopClients returns the top list of clients.  It is empty when clients are
// hidden.
func (r *Reporter) TopClients(_ context.Context, req *TopRequest) (entries []Entry) {
	if privacy.Gate(r.privacy.PrivacyLevel(), privacy.LevelHideDomainsAndClients) {
		return nil
	}

	return RankClients(r.store.Clients(), &TopParams{
		Exclude:     r.settings.Settings().ExcludeClients,
		Limit:       req.Limit,
		Ascending:   req.Ascending,
		BlockedOnly: req.BlockedOnly,
		IncludeZero: req.IncludeZero,
	})
}

// Upstreams returns the upstreams list and the counters it was built from.
func (r *Reporter) Upstreams(_ context.Context) (ups []Upstream, c *eventstore.Counters) {
	counters := r.store.Counters()

	return RankUpstreams(&counters, r.store.Forwards()), &counters
}

// History returns the slots of the active window.
func (r *Reporter) History(_ context.Context) (window []eventstore.Slot) {
	return History(r.store.Slots(), r.store.Now())
}

// ClientsOverTime returns the per-client activity in the active window.  It is
// empty when clients are hidden.
func (r *Reporter) ClientsOverTime(_ context.Context) (cot *ClientsOverTime) {
	if privacy.Gate(r.privacy.PrivacyLevel(), privacy.LevelHideDomainsAndClients) {
		return &ClientsOverTime{}
	}

	slots, clients, counts := r.store.ClientSlots()

	return NewClientsOverTime(
		slots,
		clients,
		counts,
		r.settings.Settings().ExcludeClients,
		r.store.Now(),
	)
}

// Totals returns the global counters.
func (r *Reporter) Totals(_ context.Context) (c eventstore.Counters) {
	return r.store.Counters()
}
