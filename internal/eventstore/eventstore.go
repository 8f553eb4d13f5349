// Package eventstore contains the in-memory, append-only store of DNS query
// events and their aggregates.
package eventstore

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/AdguardTeam/golibs/validate"
)

// Default values of the slot ring.
const (
	DefaultSlotWidth = 10 * time.Minute
	DefaultSlotCount = 144
)

// Config is the configuration structure for the store.
type Config struct {
	// Logger is used for logging the operation of the store.  It must not be
	// nil.
	Logger *slog.Logger

	// Clock is used to get the current time.  It must not be nil.
	Clock timeutil.Clock

	// Privacy is the source of the privacy level stamped onto every added
	// query.  It must not be nil.
	Privacy privacy.Source

	// SlotWidth is the width of a single time slot.  It must be positive and
	// a whole number of seconds.
	SlotWidth time.Duration

	// SlotCount is the number of slots in the ring.  It must be positive.
	SlotCount int
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
		validate.NotNilInterface("Clock", c.Clock),
		validate.NotNilInterface("Privacy", c.Privacy),
	}

	if c.SlotWidth < time.Second || c.SlotWidth%time.Second != 0 {
		errs = append(errs, fmt.Errorf("SlotWidth: %w: %s", errors.ErrNotPositive, c.SlotWidth))
	}

	if c.SlotCount <= 0 {
		errs = append(errs, fmt.Errorf("SlotCount: %w: %d", errors.ErrNotPositive, c.SlotCount))
	}

	return errors.Join(errs...)
}

// Event is a DNS query as reported by the resolver.
type Event struct {
	// Time is the time the query was received.
	Time time.Time

	// Domain is the queried domain name.  It must not be empty.  It is
	// stored in the form returned by [NormalizeDomain].
	Domain string

	// ClientIP is the textual address of the client.  It must not be empty.
	ClientIP string

	// ClientName is the host name of the client, if known.
	ClientName string

	// ForwardIP is the textual address of the upstream.  It is only used when
	// Status is [StatusForwarded].
	ForwardIP string

	// ForwardName is the host name of the upstream, if known.
	ForwardName string

	// Response is the time it took to answer the query.
	Response time.Duration

	// Type is the type of the query.
	Type QueryType

	// Status is the resolution status.
	Status Status

	// DNSSEC is the DNSSEC validation status.
	DNSSEC uint8

	// Reply is the type of the reply.
	Reply ReplyType
}

// Store is the append-only store of queries and their aggregates.  One writer
// and many readers may use it concurrently.  Readers see a consistent snapshot
// taken when they acquire the lock; records added afterwards are not observed.
type Store struct {
	logger  *slog.Logger
	clock   timeutil.Clock
	privacy privacy.Source

	// mu protects all fields below.
	mu *sync.RWMutex

	domainIdx  map[string]int
	clientIdx  map[string]int
	forwardIdx map[string]int

	domains  []Domain
	clients  []Client
	forwards []Forward
	queries  []Query

	// overTime are the per-slot query counts of every client, indexed by
	// client ID and then by slot.
	overTime [][]int64

	slots []Slot

	counters Counters

	// width is the slot width in seconds.
	width int64
}

// New returns a new properly initialized store.  c must be valid.
func New(c *Config) (s *Store) {
	s = &Store{
		logger:     c.Logger,
		clock:      c.Clock,
		privacy:    c.Privacy,
		mu:         &sync.RWMutex{},
		domainIdx:  map[string]int{},
		clientIdx:  map[string]int{},
		forwardIdx: map[string]int{},
		slots:      make([]Slot, c.SlotCount),
		width:      int64(c.SlotWidth / time.Second),
	}

	s.resetSlots(s.windowStart(s.clock.Now().Unix()))

	return s
}

// Add records the query described by ev and returns its ID.  The domain and
// the client are stored as the privacy sentinels if the current privacy level
// hides them.  Queries newer than the slot ring rotate it.
func (s *Store) Add(ev *Event) (id int) {
	level := s.privacy.PrivacyLevel()

	domain := normalizeDomain(ev.Domain)
	if level >= privacy.LevelHideDomains {
		domain = privacy.HiddenDomain
	}

	clientIP, clientName := ev.ClientIP, ev.ClientName
	if level >= privacy.LevelHideDomainsAndClients {
		clientIP, clientName = privacy.HiddenClientIP, privacy.HiddenClientName
	}

	ts := ev.Time.Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotate(ts)

	q := Query{
		ID:             len(s.queries),
		Time:           ts,
		DomainID:       s.internDomain(domain),
		ClientID:       s.internClient(clientIP, clientName),
		ForwardID:      -1,
		ResponseMicros: ev.Response.Microseconds(),
		Type:           ev.Type,
		Status:         ev.Status,
		DNSSEC:         ev.DNSSEC,
		Reply:          ev.Reply,
		Privacy:        level,
	}

	if ev.Status == StatusForwarded && ev.ForwardIP != "" {
		q.ForwardID = s.internForward(ev.ForwardIP, ev.ForwardName)
	}

	s.queries = append(s.queries, q)
	s.count(&q)

	return q.ID
}

// count updates the aggregates with q.  s.mu is expected to be locked.
func (s *Store) count(q *Query) {
	blocked := q.Status.IsBlocked()

	s.counters.Queries++
	if q.Type < QueryTypeUnknown {
		s.counters.Types[q.Type]++
	}

	if int(q.Reply) < len(s.counters.Replies) {
		s.counters.Replies[q.Reply]++
	}

	d := &s.domains[q.DomainID]
	d.Total++

	c := &s.clients[q.ClientID]
	c.Total++

	switch {
	case blocked:
		s.counters.Blocked++
		d.Blocked++
		c.Blocked++
	case q.Status == StatusCache:
		s.counters.Cached++
	case q.Status == StatusForwarded:
		s.counters.Forwarded++
		if q.ForwardID >= 0 {
			s.forwards[q.ForwardID].Count++
		}
	}

	i := s.slotIndex(q.Time)
	if i < 0 {
		return
	}

	s.slots[i].Total++
	if blocked {
		s.slots[i].Blocked++
	}

	s.overTime[q.ClientID][i]++
}

// internDomain returns the ID of the domain with the name, adding it if
// necessary.  s.mu is expected to be locked.
func (s *Store) internDomain(name string) (id int) {
	id, ok := s.domainIdx[name]
	if ok {
		return id
	}

	id = len(s.domains)
	s.domains = append(s.domains, Domain{
		Name: name,
		ID:   id,
	})
	s.domainIdx[name] = id

	return id
}

// internClient returns the ID of the client with the address, adding it if
// necessary.  A known client without a name takes the new one.  s.mu is
// expected to be locked.
func (s *Store) internClient(ip, name string) (id int) {
	id, ok := s.clientIdx[ip]
	if ok {
		c := &s.clients[id]
		if c.Name == "" {
			c.Name = name
		}

		return id
	}

	id = len(s.clients)
	s.clients = append(s.clients, Client{
		IP:   ip,
		Name: name,
		ID:   id,
	})
	s.overTime = append(s.overTime, make([]int64, len(s.slots)))
	s.clientIdx[ip] = id

	return id
}

// internForward returns the ID of the upstream with the address, adding it if
// necessary.  s.mu is expected to be locked.
func (s *Store) internForward(ip, name string) (id int) {
	id, ok := s.forwardIdx[ip]
	if ok {
		return id
	}

	id = len(s.forwards)
	s.forwards = append(s.forwards, Forward{
		IP:   ip,
		Name: name,
		ID:   id,
	})
	s.forwardIdx[ip] = id

	return id
}

// SetGravitySize sets the number of domains on the block list.
func (s *Store) SetGravitySize(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.GravitySize = n
}
