package stats

import (
	"cmp"
	"slices"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/container"
)

// DefaultLimit is the default number of entries of a top list.
const DefaultLimit = 10

// TopParams are the parameters of a top list.
type TopParams struct {
	// Exclude contains the identifiers to omit.  For domains these are names,
	// for clients these are addresses and names.  It may be nil.
	Exclude *container.MapSet[string]

	// Audited reports whether a domain is on the audit list.  If it is not
	// nil, audited domains are omitted and Exclude is not used.  It is only
	// used for domains.
	Audited func(domain string) (ok bool)

	// Limit is the maximum number of entries.  Non-positive values mean
	// [DefaultLimit].
	Limit int

	// Ascending sorts the entries from the least to the most queried.
	Ascending bool

	// BlockedOnly ranks by the number of blocked queries instead of the number
	// of permitted ones.
	BlockedOnly bool

	// IncludeZero keeps the entries with a zero count.  It is only used for
	// clients.
	IncludeZero bool
}

// limit returns the effective limit.
func (p *TopParams) limit() (n int) {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return p.Limit
}

// metric returns the ranked count of an aggregate with the total and blocked
// counts.
func (p *TopParams) metric(total, blocked int64) (n int64) {
	if p.BlockedOnly {
		return blocked
	}

	return total - blocked
}

// Entry is a single entry of a top list.
type Entry struct {
	// Name is the domain name or the client name.
	Name string

	// IP is the client address.  It is empty for domains.
	IP string

	// ID is the ID of the domain or the client in the store.
	ID int

	// Count is the ranked count.
	Count int64
}

// countPair is the ID of an aggregate and its ranked count.
type countPair struct {
	id    int
	count int64
}

// sortPairs stably sorts the pairs by count.  Pairs with equal counts keep the
// ID order.
func sortPairs(pairs []countPair, ascending bool) {
	slices.SortStableFunc(pairs, func(a, b countPair) (res int) {
		if ascending {
			return cmp.Compare(a.count, b.count)
		}

		return cmp.Compare(b.count, a.count)
	})
}

// has returns true if set is not nil and contains v.
func has(set *container.MapSet[string], v string) (ok bool) {
	return set != nil && v != "" && set.Has(v)
}

// RankDomains returns the top list of domains.  Skipped domains do not count
// towards the limit.
func RankDomains(domains []eventstore.Domain, p *TopParams) (entries []Entry) {
	pairs := make([]countPair, 0, len(domains))
	for _, d := range domains {
		pairs = append(pairs, countPair{id: d.ID, count: p.metric(d.Total, d.Blocked)})
	}

	sortPairs(pairs, p.Ascending)

	limit := p.limit()
	for _, pair := range pairs {
		if len(entries) >= limit {
			break
		}

		d := &domains[pair.id]
		switch {
		case p.Audited == nil && has(p.Exclude, d.Name),
			p.Audited != nil && p.Audited(d.Name),
			privacy.IsHiddenDomain(d.Name),
			pair.count == 0:
			continue
		}

		entries = append(entries, Entry{
			Name:  d.Name,
			ID:    d.ID,
			Count: pair.count,
		})
	}

	return entries
}

// isExcludedClient returns true if the client is in the exclusion set by
// address or by name.
func isExcludedClient(exclude *container.MapSet[string], c *eventstore.Client) (ok bool) {
	return has(exclude, c.IP) || has(exclude, c.Name)
}

// RankClients returns the top list of clients.  Skipped clients do not count
// towards the limit.
func RankClients(clients []eventstore.Client, p *TopParams) (entries []Entry) {
	pairs := make([]countPair, 0, len(clients))
	for _, c := range clients {
		pairs = append(pairs, countPair{id: c.ID, count: p.metric(c.Total, c.Blocked)})
	}

	sortPairs(pairs, p.Ascending)

	limit := p.limit()
	for _, pair := range pairs {
		if len(entries) >= limit {
			break
		}

		c := &clients[pair.id]
		switch {
		case isExcludedClient(p.Exclude, c),
			privacy.IsHiddenClient(c.IP),
			pair.count == 0 && !p.IncludeZero:
			continue
		}

		entries = append(entries, Entry{
			Name:  c.Name,
			IP:    c.IP,
			ID:    c.ID,
			Count: pair.count,
		})
	}

	return entries
}
