// Package querylog contains the search over the recorded queries.
package querylog

import (
	"context"
	"log/slog"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
)

// privacyMaximum is the level at which queries are not shown at all.
const privacyMaximum = privacy.LevelMaximum

// MaxResponseMicros is the largest response time shown.  Larger values mean
// that the reply was never received, so they are shown as zero.
const MaxResponseMicros = 18_000_000

// DefaultRecentBlocked is the default number of recently blocked domains.
const DefaultRecentBlocked = 1

// Snapshotter returns a snapshot of the store.  [*eventstore.Store] implements
// it.
type Snapshotter interface {
	Snapshot() (snap *eventstore.Snapshot)
}

// type check
var _ Snapshotter = (*eventstore.Store)(nil)

// Config is the configuration structure for [Log].
type Config struct {
	// Logger is used for logging the operation of the query log.  It must not
	// be nil.
	Logger *slog.Logger

	// Store is the source of the queries.  It must not be nil.
	Store Snapshotter

	// Privacy is the source of the current privacy level.  It must not be nil.
	Privacy privacy.Source
}

// Log searches the recorded queries.
type Log struct {
	logger  *slog.Logger
	store   Snapshotter
	privacy privacy.Source
}

// New returns a new *Log.  conf must not be nil.
func New(conf *Config) (l *Log) {
	return &Log{
		logger:  conf.Logger,
		store:   conf.Store,
		privacy: conf.Privacy,
	}
}

// Entry is a query as shown in the query log.
type Entry struct {
	// Type is the name of the query type.
	Type string

	// Domain is the shown domain name.
	Domain string

	// Client is the shown client name, or the address if there is no name.
	Client string

	// Time is the UNIX time of the query, in seconds.
	Time int64

	// ResponseMicros is the response time, in microseconds.
	ResponseMicros int64

	// ID is the ID of the query.  It is only meaningful in debug mode.
	ID int

	// Status is the resolution status.
	Status eventstore.Status

	// DNSSEC is the DNSSEC validation status.
	DNSSEC uint8

	// Reply is the type of the reply.
	Reply eventstore.ReplyType
}

// newEntry returns the shown form of q.  The names are shown according to the
// privacy level of q itself.
func newEntry(snap *eventstore.Snapshot, q *eventstore.Query) (e *Entry) {
	c := snap.Client(q.ClientID)
	client := privacy.ClientName(q.Privacy, c.Name)
	if client == "" {
		client = privacy.ClientIP(q.Privacy, c.IP)
	}

	resp := q.ResponseMicros
	if resp > MaxResponseMicros {
		resp = 0
	}

	return &Entry{
		Type:           q.Type.String(),
		Domain:         privacy.DomainName(q.Privacy, snap.Domain(q.DomainID).Name),
		Client:         client,
		Time:           q.Time,
		ResponseMicros: resp,
		ID:             q.ID,
		Status:         q.Status,
		DNSSEC:         q.DNSSEC,
		Reply:          q.Reply,
	}
}

// Search returns the matching queries in the order they were recorded.  It is
// empty under the maximum privacy level.
func (l *Log) Search(ctx context.Context, p *SearchParams) (entries []*Entry) {
	if privacy.Gate(l.privacy.PrivacyLevel(), privacyMaximum) {
		return nil
	}

	snap := l.store.Snapshot()
	for i := p.start(len(snap.Queries)); i < len(snap.Queries); i++ {
		q := &snap.Queries[i]
		if p.match(q) {
			entries = append(entries, newEntry(snap, q))
		}
	}

	l.logger.DebugContext(ctx, "searched", "scanned", len(snap.Queries), "found", len(entries))

	return entries
}

// RecentBlocked returns the domains of the n most recent blocked queries, the
// most recent first.  Non-positive n means [DefaultRecentBlocked].
func (l *Log) RecentBlocked(_ context.Context, n int) (domains []string) {
	if privacy.Gate(l.privacy.PrivacyLevel(), privacyMaximum) {
		return nil
	}

	if n <= 0 {
		n = DefaultRecentBlocked
	}

	snap := l.store.Snapshot()
	for i := len(snap.Queries) - 1; i >= 0 && len(domains) < n; i-- {
		q := &snap.Queries[i]
		if q.Privacy >= privacyMaximum || !q.Status.IsBlocked() {
			continue
		}

		domains = append(domains, privacy.DomainName(q.Privacy, snap.Domain(q.DomainID).Name))
	}

	return domains
}
