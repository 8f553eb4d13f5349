package eventstore

import (
	"github.com/AdguardTeam/dnsreport/internal/privacy"
)

// Status is the resolution status of a query.
type Status uint8

// Status values.
const (
	StatusUnknown         Status = 0
	StatusGravity         Status = 1
	StatusForwarded       Status = 2
	StatusCache           Status = 3
	StatusWildcard        Status = 4
	StatusBlacklist       Status = 5
	StatusExternalBlocked Status = 6
)

// IsBlocked returns true if the query was blocked by gravity, by a wildcard,
// or by the exact deny list.
func (s Status) IsBlocked() (ok bool) {
	switch s {
	case StatusGravity, StatusWildcard, StatusBlacklist:
		return true
	default:
		return false
	}
}

// IsPermitted returns true if the query was answered from the cache or by an
// upstream.
func (s Status) IsPermitted() (ok bool) {
	return s == StatusForwarded || s == StatusCache
}

// ReplyType is the kind of reply sent to the client.
type ReplyType uint8

// ReplyType values.
const (
	ReplyUnknown  ReplyType = 0
	ReplyNODATA   ReplyType = 1
	ReplyNXDOMAIN ReplyType = 2
	ReplyCNAME    ReplyType = 3
	ReplyIP       ReplyType = 4
	ReplyDomain   ReplyType = 5
	ReplyRRName   ReplyType = 6

	// replyTypeCount is the number of known reply types.
	replyTypeCount = 7
)

// Domain is the aggregate of all queries for one domain name.
type Domain struct {
	// Name is the interned domain name.  It never changes.
	Name string

	// ID is the index of the domain in the store.
	ID int

	// Total is the number of queries for this domain.
	Total int64

	// Blocked is the number of blocked queries for this domain.  It is never
	// greater than Total.
	Blocked int64
}

// Client is the aggregate of all queries made by one client.
type Client struct {
	// IP is the textual address of the client.
	IP string

	// Name is the host name of the client.  It may be empty.
	Name string

	// ID is the index of the client in the store.
	ID int

	// Total is the number of queries made by this client.
	Total int64

	// Blocked is the number of blocked queries made by this client.
	Blocked int64
}

// Forward is an upstream resolver queries are forwarded to.
type Forward struct {
	// IP is the textual address of the upstream.
	IP string

	// Name is the host name of the upstream.  It may be empty.
	Name string

	// ID is the index of the upstream in the store.
	ID int

	// Count is the number of queries forwarded to this upstream.
	Count int64
}

// Query is a single recorded DNS query.  Queries are immutable once added.
type Query struct {
	// ID is the index of the query in the store.
	ID int

	// Time is the UNIX time of the query, in seconds.
	Time int64

	// DomainID is the ID of the queried domain.
	DomainID int

	// ClientID is the ID of the querying client.
	ClientID int

	// ForwardID is the ID of the upstream.  It is only meaningful when Status
	// is [StatusForwarded], and is -1 otherwise.
	ForwardID int

	// ResponseMicros is the response time, in microseconds.
	ResponseMicros int64

	// Type is the query type.
	Type QueryType

	// Status is the resolution status.
	Status Status

	// DNSSEC is the DNSSEC validation status.
	DNSSEC uint8

	// Reply is the type of reply.
	Reply ReplyType

	// Privacy is the privacy level at the time the query was recorded.
	Privacy privacy.Level
}

// Slot is the aggregate of all queries within one time window.
type Slot struct {
	// Time is the UNIX time of the start of the window, in seconds.
	Time int64

	// Total is the number of queries in the window.
	Total int64

	// Blocked is the number of blocked queries in the window.
	Blocked int64
}

// IsEmpty returns true if no query has been counted in the slot.
func (s Slot) IsEmpty() (ok bool) {
	return s.Total == 0 && s.Blocked == 0
}

// Counters are the global totals of the store.
type Counters struct {
	// Types are the numbers of queries per known query type.
	Types [QueryTypeUnknown]int64

	// Replies are the numbers of queries per reply type.
	Replies [replyTypeCount]int64

	// Queries is the total number of queries.
	Queries int64

	// Blocked is the number of blocked queries.
	Blocked int64

	// Cached is the number of queries answered from the cache.
	Cached int64

	// Forwarded is the number of queries forwarded upstream.
	Forwarded int64

	// GravitySize is the number of domains on the block list.
	GravitySize int64
}

// Reply returns the number of queries answered with reply type rt.
func (c *Counters) Reply(rt ReplyType) (n int64) {
	if int(rt) >= len(c.Replies) {
		return 0
	}

	return c.Replies[rt]
}
