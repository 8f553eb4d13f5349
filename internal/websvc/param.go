package websvc

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/AdguardTeam/dnsreport/internal/stats"
	"github.com/AdguardTeam/golibs/errors"
)

// Query parameter names.
const (
	paramAudit    = "audit"
	paramBlocked  = "blocked"
	paramClient   = "client"
	paramDebug    = "debug"
	paramDomain   = "domain"
	paramFrom     = "from"
	paramLimit    = "limit"
	paramOrder    = "order"
	paramShow     = "show"
	paramTail     = "tail"
	paramType     = "type"
	paramUntil    = "until"
	paramUpstream = "upstream"
	paramWithZero = "withzero"
)

// orderAsc is the value of the order parameter for the ascending sort.
const orderAsc = "asc"

// boolParam returns the boolean value of the query parameter.  A missing
// parameter is false.
func boolParam(q url.Values, name string) (ok bool, err error) {
	s := q.Get(name)
	if s == "" {
		return false, nil
	}

	ok, err = strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("parameter %q: %w", name, err)
	}

	return ok, nil
}

// nonNegativeParam returns the integer value of the query parameter.  A
// missing parameter is zero.
func nonNegativeParam(q url.Values, name string) (n int64, err error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}

	n, err = strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", name, err)
	} else if n < 0 {
		return 0, fmt.Errorf("parameter %q: %w: %d", name, errors.ErrOutOfRange, n)
	}

	return n, nil
}

// parseTopRequest parses the parameters of the top lists.
func parseTopRequest(q url.Values) (req *stats.TopRequest, err error) {
	limit, err := nonNegativeParam(q, paramLimit)
	if err != nil {
		return nil, err
	}

	req = &stats.TopRequest{
		Limit: int(limit),
	}

	switch order := q.Get(paramOrder); order {
	case "", "desc":
		// Go on.
	case orderAsc:
		req.Ascending = true
	default:
		return nil, fmt.Errorf("parameter %q: %w: %q", paramOrder, errors.ErrBadEnumValue, order)
	}

	var errs []error
	for _, p := range []struct {
		field *bool
		name  string
	}{{
		field: &req.BlockedOnly,
		name:  paramBlocked,
	}, {
		field: &req.IncludeZero,
		name:  paramWithZero,
	}, {
		field: &req.Audit,
		name:  paramAudit,
	}} {
		var parseErr error
		*p.field, parseErr = boolParam(q, p.name)
		errs = append(errs, parseErr)
	}

	err = errors.Join(errs...)
	if err != nil {
		return nil, err
	}

	return req, nil
}
