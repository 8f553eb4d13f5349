package stats

import (
	"cmp"
	"slices"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
)

// MaxUpstreams is the maximum number of entries in the upstreams list,
// including the pseudo upstreams.
const MaxUpstreams = 8

// UpstreamKind is the kind of an entry of the upstreams list.
type UpstreamKind uint8

// UpstreamKind values.
const (
	// UpstreamKindBlocklist is the pseudo upstream of blocked queries.
	UpstreamKindBlocklist UpstreamKind = iota

	// UpstreamKindCache is the pseudo upstream of cached queries.
	UpstreamKindCache

	// UpstreamKindForward is a real upstream.
	UpstreamKindForward
)

// Upstream is an entry of the upstreams list.
type Upstream struct {
	// Forward is the real upstream.  It is nil for pseudo upstreams.
	Forward *eventstore.Forward

	// Count is the number of queries answered by the upstream.
	Count int64

	// Kind is the kind of the upstream.
	Kind UpstreamKind
}

// Name returns the display name of the upstream.
func (u *Upstream) Name() (name string) {
	switch u.Kind {
	case UpstreamKindBlocklist:
		return "blocklist"
	case UpstreamKindCache:
		return "cache"
	default:
		return u.Forward.Name
	}
}

// IP returns the display address of the upstream.  Pseudo upstreams use their
// names.
func (u *Upstream) IP() (ip string) {
	if u.Kind != UpstreamKindForward {
		return u.Name()
	}

	return u.Forward.IP
}

// RankUpstreams returns the upstreams list.  The blocklist and the cache
// pseudo upstreams always come first, followed by the real upstreams with
// non-zero counts from the most to the least used.
func RankUpstreams(c *eventstore.Counters, forwards []eventstore.Forward) (ups []Upstream) {
	ups = make([]Upstream, 0, MaxUpstreams)
	ups = append(ups, Upstream{
		Count: c.Blocked,
		Kind:  UpstreamKindBlocklist,
	}, Upstream{
		Count: c.Cached,
		Kind:  UpstreamKindCache,
	})

	sorted := slices.Clone(forwards)
	slices.SortStableFunc(sorted, func(a, b eventstore.Forward) (res int) {
		return cmp.Compare(b.Count, a.Count)
	})

	for i := range sorted {
		if len(ups) >= MaxUpstreams || sorted[i].Count == 0 {
			break
		}

		ups = append(ups, Upstream{
			Forward: &sorted[i],
			Count:   sorted[i].Count,
			Kind:    UpstreamKindForward,
		})
	}

	return ups
}
