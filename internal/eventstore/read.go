package eventstore

import (
	"fmt"
	"slices"
)

// Counters returns a copy of the global counters.
func (s *Store) Counters() (c Counters) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counters
}

// Domains returns a copy of all domain aggregates in ID order.
func (s *Store) Domains() (ds []Domain) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.domains)
}

// Clients returns a copy of all client aggregates in ID order.
func (s *Store) Clients() (cs []Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.clients)
}

// Forwards returns a copy of all upstream aggregates in ID order.
func (s *Store) Forwards() (fs []Forward) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.forwards)
}

// Slots returns a copy of the slot ring, oldest first.
func (s *Store) Slots() (slots []Slot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.slots)
}

// ClientSlots returns a copy of the slot ring together with the clients and
// their per-slot counts, taken at the same moment.  counts is indexed by
// client ID and then by slot.
func (s *Store) ClientSlots() (slots []Slot, clients []Client, counts [][]int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts = make([][]int64, len(s.overTime))
	for i, c := range s.overTime {
		counts[i] = slices.Clone(c)
	}

	return slices.Clone(s.slots), slices.Clone(s.clients), counts
}

// Snapshot is a consistent view of the store for scanning queries.  Queries
// is shared with the store and must not be modified.
type Snapshot struct {
	Queries  []Query
	Domains  []Domain
	Clients  []Client
	Forwards []Forward
}

// Domain returns the domain with the ID.  It panics if there is no such
// domain, since IDs in queries always refer to existing domains.
func (snap *Snapshot) Domain(id int) (d *Domain) {
	if id < 0 || id >= len(snap.Domains) {
		panic(fmt.Errorf("domain id %d out of range [0, %d)", id, len(snap.Domains)))
	}

	return &snap.Domains[id]
}

// Client returns the client with the ID.  It panics if there is no such
// client.
func (snap *Snapshot) Client(id int) (c *Client) {
	if id < 0 || id >= len(snap.Clients) {
		panic(fmt.Errorf("client id %d out of range [0, %d)", id, len(snap.Clients)))
	}

	return &snap.Clients[id]
}

// Snapshot returns a snapshot of the store.  The query slice is not copied,
// since added queries are never modified.
func (s *Store) Snapshot() (snap *Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.queries)

	return &Snapshot{
		Queries:  s.queries[:n:n],
		Domains:  slices.Clone(s.domains),
		Clients:  slices.Clone(s.clients),
		Forwards: slices.Clone(s.forwards),
	}
}

// DomainID returns the ID of the domain with the name, if there is one.  The
// name is normalized as in [Store.Add].
func (s *Store) DomainID(name string) (id int, ok bool) {
	name = normalizeDomain(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok = s.domainIdx[name]

	return id, ok
}

// ClientID returns the ID of the client with the address or, failing that,
// with the name, if there is one.
func (s *Store) ClientID(ipOrName string) (id int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok = s.clientIdx[ipOrName]
	if ok {
		return id, true
	}

	id = slices.IndexFunc(s.clients, func(c Client) (found bool) {
		return c.Name != "" && c.Name == ipOrName
	})

	return id, id >= 0
}

// ForwardID returns the ID of the upstream with the address or, failing that,
// with the name, if there is one.
func (s *Store) ForwardID(ipOrName string) (id int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok = s.forwardIdx[ipOrName]
	if ok {
		return id, true
	}

	id = slices.IndexFunc(s.forwards, func(f Forward) (found bool) {
		return f.Name != "" && f.Name == ipOrName
	})

	return id, id >= 0
}

// Now returns the current time of the store's clock as UNIX seconds.
func (s *Store) Now() (ts int64) {
	return s.clock.Now().Unix()
}
