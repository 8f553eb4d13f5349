package querylog

import (
	"fmt"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/golibs/errors"
)

// Visibility is the kind of queries to return.
type Visibility uint8

// Visibility values.
const (
	// VisibilityBoth returns both blocked and permitted queries.
	VisibilityBoth Visibility = iota

	// VisibilityBlockedOnly returns only blocked queries.
	VisibilityBlockedOnly

	// VisibilityPermittedOnly returns only permitted queries.
	VisibilityPermittedOnly

	// VisibilityNone returns no queries.
	VisibilityNone
)

// NewVisibility returns the visibility showing permitted and blocked queries
// as requested.
func NewVisibility(permitted, blocked bool) (v Visibility) {
	switch {
	case permitted && blocked:
		return VisibilityBoth
	case permitted:
		return VisibilityPermittedOnly
	case blocked:
		return VisibilityBlockedOnly
	default:
		return VisibilityNone
	}
}

// Permitted returns true if v shows permitted queries.
func (v Visibility) Permitted() (ok bool) {
	return v == VisibilityBoth || v == VisibilityPermittedOnly
}

// Blocked returns true if v shows blocked queries.
func (v Visibility) Blocked() (ok bool) {
	return v == VisibilityBoth || v == VisibilityBlockedOnly
}

// Intersect returns the visibility showing only the queries shown by both v
// and other.
func (v Visibility) Intersect(other Visibility) (res Visibility) {
	return NewVisibility(v.Permitted() && other.Permitted(), v.Blocked() && other.Blocked())
}

// ParseVisibility parses the textual form of the visibility.
func ParseVisibility(s string) (v Visibility, err error) {
	switch s {
	case "", "all", "both":
		return VisibilityBoth, nil
	case "blockedonly":
		return VisibilityBlockedOnly, nil
	case "permittedonly":
		return VisibilityPermittedOnly, nil
	case "nothing", "none":
		return VisibilityNone, nil
	default:
		return VisibilityBoth, fmt.Errorf("show: %w: %q", errors.ErrBadEnumValue, s)
	}
}

// UpstreamKind is the kind of upstream selection.
type UpstreamKind uint8

// UpstreamKind values.
const (
	// UpstreamAny matches all queries.
	UpstreamAny UpstreamKind = iota

	// UpstreamCache matches queries answered from the cache.
	UpstreamCache

	// UpstreamBlocklist matches blocked queries.
	UpstreamBlocklist

	// UpstreamForward matches queries forwarded to a particular upstream.
	UpstreamForward
)

// UpstreamSelector selects queries by the upstream which answered them.
type UpstreamSelector struct {
	// ForwardID is the ID of the upstream.  It is only used with
	// [UpstreamForward].
	ForwardID int

	// Kind is the kind of the selection.
	Kind UpstreamKind
}

// match returns true if q was answered by the selected upstream.
func (sel UpstreamSelector) match(q *eventstore.Query) (ok bool) {
	switch sel.Kind {
	case UpstreamCache:
		return q.Status == eventstore.StatusCache
	case UpstreamBlocklist:
		return q.Status.IsBlocked()
	case UpstreamForward:
		return q.Status == eventstore.StatusForwarded && q.ForwardID == sel.ForwardID
	default:
		return true
	}
}

// SearchParams are the parameters of a query log search.  The zero value
// matches all queries.
type SearchParams struct {
	// DomainID, if not nil, is the ID of the domain to match.
	DomainID *int

	// ClientID, if not nil, is the ID of the client to match.
	ClientID *int

	// Type, if not nil, is the type of the queries to match.
	Type *eventstore.QueryType

	// Since, if not zero, is the earliest UNIX time of a query, in seconds.
	Since int64

	// Until, if not zero, is the latest UNIX time of a query, in seconds.
	Until int64

	// Tail, if positive, limits the search to the most recent queries.
	Tail int

	// Upstream selects queries by the upstream.
	Upstream UpstreamSelector

	// Show selects queries by their status.
	Show Visibility

	// Debug adds the IDs of the queries to the results.
	Debug bool
}

// start returns the index of the first query to consider out of total.
func (p *SearchParams) start(total int) (i int) {
	if p.Tail <= 0 {
		return 0
	}

	return max(0, total-p.Tail)
}

// matchShow returns true if the status of q is shown.
func (p *SearchParams) matchShow(q *eventstore.Query) (ok bool) {
	switch p.Show {
	case VisibilityBlockedOnly:
		return q.Status.IsBlocked()
	case VisibilityPermittedOnly:
		return q.Status.IsPermitted()
	case VisibilityNone:
		return false
	default:
		return true
	}
}

// match returns true if q matches all the parameters.  Queries recorded under
// the maximum privacy level and queries of unknown types never match.
func (p *SearchParams) match(q *eventstore.Query) (ok bool) {
	switch {
	case q.Privacy >= privacyMaximum,
		q.Type >= eventstore.QueryTypeUnknown,
		!p.matchShow(q),
		p.Since != 0 && q.Time < p.Since,
		p.Until != 0 && q.Time > p.Until,
		p.DomainID != nil && q.DomainID != *p.DomainID,
		p.ClientID != nil && q.ClientID != *p.ClientID,
		p.Type != nil && q.Type != *p.Type,
		!p.Upstream.match(q):
		return false
	default:
		return true
	}
}
