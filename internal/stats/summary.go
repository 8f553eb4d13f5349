package stats

import (
	"context"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
)

// Summary is the overview of the recorded queries.
type Summary struct {
	// Counters are the global counters.
	Counters eventstore.Counters

	// PercentBlocked is the share of blocked queries, in percent.
	PercentBlocked float64

	// UniqueDomains is the number of distinct domains.
	UniqueDomains int

	// TotalClients is the number of distinct clients.
	TotalClients int

	// ActiveClients is the number of clients with queries in the active
	// window.
	ActiveClients int

	// PrivacyLevel is the current privacy level.
	PrivacyLevel privacy.Level

	// BlockingEnabled is the blocking state.
	BlockingEnabled bool
}

// Summary returns the overview of the recorded queries.
func (r *Reporter) Summary(_ context.Context) (s *Summary) {
	slots, clients, counts := r.store.ClientSlots()
	s = &Summary{
		Counters:        r.store.Counters(),
		UniqueDomains:   len(r.store.Domains()),
		TotalClients:    len(clients),
		PrivacyLevel:    r.privacy.PrivacyLevel(),
		BlockingEnabled: r.blocking.Enabled(),
	}

	if s.Counters.Queries > 0 {
		s.PercentBlocked = 100 * float64(s.Counters.Blocked) / float64(s.Counters.Queries)
	}

	start, end, ok := Window(slots, r.store.Now())
	if !ok {
		return s
	}

	for _, c := range counts {
		for _, n := range c[start:end] {
			if n > 0 {
				s.ActiveClients++

				break
			}
		}
	}

	return s
}

// TypeCount is the number of queries of a type.
type TypeCount struct {
	Name  string
	Count int64
}

// QueryTypes returns the number of queries of every known type in type order.
func (r *Reporter) QueryTypes(_ context.Context) (types []TypeCount) {
	c := r.store.Counters()
	types = make([]TypeCount, 0, len(c.Types))
	for t, n := range c.Types {
		types = append(types, TypeCount{
			Name:  eventstore.QueryType(t).String(),
			Count: n,
		})
	}

	return types
}
