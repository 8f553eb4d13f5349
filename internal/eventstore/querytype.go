package eventstore

import (
	"fmt"
	"strconv"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/miekg/dns"
)

// QueryType is the type of a recorded query.
type QueryType uint8

// QueryType values.  QueryTypeUnknown is also the number of known types.
const (
	QueryTypeA QueryType = iota
	QueryTypeAAAA
	QueryTypeANY
	QueryTypeSRV
	QueryTypeSOA
	QueryTypePTR
	QueryTypeTXT
	QueryTypeUnknown
)

// queryTypeNames are the display names of query types, indexed by type.
var queryTypeNames = [...]string{
	QueryTypeA:       "A",
	QueryTypeAAAA:    "AAAA",
	QueryTypeANY:     "ANY",
	QueryTypeSRV:     "SRV",
	QueryTypeSOA:     "SOA",
	QueryTypePTR:     "PTR",
	QueryTypeTXT:     "TXT",
	QueryTypeUnknown: "UNKN",
}

// String implements the [fmt.Stringer] interface for QueryType.
func (t QueryType) String() (s string) {
	if int(t) >= len(queryTypeNames) {
		return queryTypeNames[QueryTypeUnknown]
	}

	return queryTypeNames[t]
}

// QueryTypeFromRR converts a DNS resource record type into a QueryType.
// Types which are not tracked become [QueryTypeUnknown].
func QueryTypeFromRR(rrType uint16) (t QueryType) {
	switch rrType {
	case dns.TypeA:
		return QueryTypeA
	case dns.TypeAAAA:
		return QueryTypeAAAA
	case dns.TypeANY:
		return QueryTypeANY
	case dns.TypeSRV:
		return QueryTypeSRV
	case dns.TypeSOA:
		return QueryTypeSOA
	case dns.TypePTR:
		return QueryTypePTR
	case dns.TypeTXT:
		return QueryTypeTXT
	default:
		return QueryTypeUnknown
	}
}

// ParseQueryType parses the query type from its API number, which is one
// greater than its QueryType value, so that "1" is A and "7" is TXT.  It also
// accepts the textual DNS type name, such as "AAAA".
func ParseQueryType(s string) (t QueryType, err error) {
	n, err := strconv.Atoi(s)
	if err == nil {
		if n < 1 || n > int(QueryTypeUnknown) {
			return QueryTypeUnknown, fmt.Errorf("query type: %w: %d", errors.ErrBadEnumValue, n)
		}

		return QueryType(n - 1), nil
	}

	rrType, ok := dns.StringToType[s]
	if ok {
		t = QueryTypeFromRR(rrType)
		if t != QueryTypeUnknown {
			return t, nil
		}
	}

	return QueryTypeUnknown, fmt.Errorf("query type: %w: %q", errors.ErrBadEnumValue, s)
}
