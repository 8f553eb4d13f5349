package websvc

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/AdguardTeam/dnsreport/internal/aghhttp"
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/querylog"
)

// Upstream filter values of the pseudo upstreams.
const (
	upstreamCache     = "cache"
	upstreamBlocklist = "blocklist"
)

// parseSearchParams parses the query log filters.  found is false if a name in
// the filters is not known, so that nothing can match.
func (svc *Service) parseSearchParams(q url.Values) (p *querylog.SearchParams, found bool, err error) {
	p = &querylog.SearchParams{}

	p.Since, err = nonNegativeParam(q, paramFrom)
	if err != nil {
		return nil, false, err
	}

	p.Until, err = nonNegativeParam(q, paramUntil)
	if err != nil {
		return nil, false, err
	}

	tail, err := nonNegativeParam(q, paramTail)
	if err != nil {
		return nil, false, err
	}

	p.Tail = int(tail)

	p.Debug, err = boolParam(q, paramDebug)
	if err != nil {
		return nil, false, err
	}

	p.Show, err = svc.parseShow(q)
	if err != nil {
		return nil, false, err
	}

	if s := q.Get(paramType); s != "" {
		var t eventstore.QueryType
		t, err = eventstore.ParseQueryType(s)
		if err != nil {
			return nil, false, fmt.Errorf("parameter %q: %w", paramType, err)
		}

		p.Type = &t
	}

	return svc.resolveNames(q, p)
}

// parseShow returns the visibility configured in the settings narrowed by the
// show parameter, if any.
func (svc *Service) parseShow(q url.Values) (v querylog.Visibility, err error) {
	show := svc.settings.Settings().QueryLogShow
	v = querylog.NewVisibility(show.Permitted(), show.Blocked())

	req, err := querylog.ParseVisibility(q.Get(paramShow))
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", paramShow, err)
	}

	return v.Intersect(req), nil
}

// resolveNames sets the IDs of the domain, client, and upstream filters of p.
func (svc *Service) resolveNames(
	q url.Values,
	p *querylog.SearchParams,
) (res *querylog.SearchParams, found bool, err error) {
	if s := q.Get(paramDomain); s != "" {
		var name string
		name, err = eventstore.NormalizeDomain(s)
		if err != nil {
			return nil, false, fmt.Errorf("parameter %q: %w", paramDomain, err)
		}

		id, ok := svc.resolver.DomainID(name)
		if !ok {
			return p, false, nil
		}

		p.DomainID = &id
	}

	if s := q.Get(paramClient); s != "" {
		id, ok := svc.resolver.ClientID(s)
		if !ok {
			return p, false, nil
		}

		p.ClientID = &id
	}

	switch s := q.Get(paramUpstream); s {
	case "":
		p.Upstream.Kind = querylog.UpstreamAny
	case upstreamCache:
		p.Upstream.Kind = querylog.UpstreamCache
	case upstreamBlocklist:
		p.Upstream.Kind = querylog.UpstreamBlocklist
	default:
		id, ok := svc.resolver.ForwardID(s)
		if !ok {
			return p, false, nil
		}

		p.Upstream = querylog.UpstreamSelector{
			ForwardID: id,
			Kind:      querylog.UpstreamForward,
		}
	}

	return p, true, nil
}

// search parses the filters of r and searches the query log.  If the filters
// are invalid, it writes the error and returns false.
func (svc *Service) search(
	w http.ResponseWriter,
	r *http.Request,
) (entries []*querylog.Entry, debug, ok bool) {
	ctx := r.Context()
	p, found, err := svc.parseSearchParams(r.URL.Query())
	if err != nil {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, err.Error())

		return nil, false, false
	}

	if !found {
		return nil, p.Debug, true
	}

	return svc.queryLog.Search(ctx, p), p.Debug, true
}

// queryJSON is a query in the query log.
type queryJSON struct {
	ID           *int   `json:"id,omitempty"`
	Type         string `json:"type"`
	Domain       string `json:"domain"`
	Client       string `json:"client"`
	Timestamp    int64  `json:"timestamp"`
	ResponseTime int64  `json:"response_time"`
	Status       uint8  `json:"status"`
	DNSSEC       uint8  `json:"dnssec"`
	Reply        uint8  `json:"reply"`
}

// queriesResp is the response to the GET /api/stats/queries HTTP API.
type queriesResp struct {
	Queries []*queryJSON `json:"queries"`
}

// handleGetQueries is the handler for the GET /api/stats/queries HTTP API.
func (svc *Service) handleGetQueries(w http.ResponseWriter, r *http.Request) {
	entries, debug, ok := svc.search(w, r)
	if !ok {
		return
	}

	resp := &queriesResp{
		Queries: make([]*queryJSON, 0, len(entries)),
	}

	for _, e := range entries {
		qj := &queryJSON{
			Type:         e.Type,
			Domain:       e.Domain,
			Client:       e.Client,
			Timestamp:    e.Time,
			ResponseTime: e.ResponseMicros,
			Status:       uint8(e.Status),
			DNSSEC:       e.DNSSEC,
			Reply:        uint8(e.Reply),
		}

		if debug {
			qj.ID = &e.ID
		}

		resp.Queries = append(resp.Queries, qj)
	}

	aghhttp.WriteJSONResponseOK(r.Context(), svc.logger, w, r, resp)
}

// handleGetLegacyAllQueries is the handler for the GET
// /api/legacy/getallqueries HTTP API.  Each query is a line of space-separated
// fields.
func (svc *Service) handleGetLegacyAllQueries(w http.ResponseWriter, r *http.Request) {
	entries, debug, ok := svc.search(w, r)
	if !ok {
		return
	}

	aghhttp.WriteLines(r.Context(), svc.logger, w, r, func(b []byte) (res []byte) {
		for _, e := range entries {
			b = fmt.Appendf(
				b,
				"%d %s %s %s %d %d %d %d",
				e.Time,
				e.Type,
				e.Domain,
				e.Client,
				e.Status,
				e.DNSSEC,
				e.Reply,
				e.ResponseMicros,
			)

			if debug {
				b = fmt.Appendf(b, " %d", e.ID)
			}

			b = append(b, '\n')
		}

		return b
	})
}

// handleGetLegacyTopClients is the handler for the GET /api/legacy/top-clients
// HTTP API.  Each client is a line with its rank, count, address, and name.
func (svc *Service) handleGetLegacyTopClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := parseTopRequest(r.URL.Query())
	if err != nil {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, err.Error())

		return
	}

	entries := svc.reporter.TopClients(ctx, req)
	aghhttp.WriteLines(ctx, svc.logger, w, r, func(b []byte) (res []byte) {
		for i, e := range entries {
			b = fmt.Appendf(b, "%d %d %s %s\n", i, e.Count, e.IP, e.Name)
		}

		return b
	})
}

// handleGetLegacyRecentBlocked is the handler for the GET
// /api/legacy/recentBlocked HTTP API.  Each domain is a line.
func (svc *Service) handleGetLegacyRecentBlocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := nonNegativeParam(r.URL.Query(), paramLimit)
	if err != nil {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, err.Error())

		return
	} else if n == 0 {
		n = querylog.DefaultRecentBlocked
	}

	domains := svc.queryLog.RecentBlocked(ctx, int(n))
	aghhttp.WriteLines(ctx, svc.logger, w, r, func(b []byte) (res []byte) {
		for _, d := range domains {
			b = append(b, d...)
			b = append(b, '\n')
		}

		return b
	})
}
