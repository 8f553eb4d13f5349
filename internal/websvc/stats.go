package websvc

import (
	"net/http"

	"github.com/AdguardTeam/dnsreport/internal/aghhttp"
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
)

// summaryResp is the response to the GET /api/stats/summary HTTP API.
type summaryResp struct {
	TotalQueries     map[string]int64 `json:"total_queries"`
	ReplyTypes       map[string]int64 `json:"reply_types"`
	Status           string           `json:"status"`
	GravitySize      int64            `json:"gravity_size"`
	BlockedQueries   int64            `json:"blocked_queries"`
	PercentBlocked   float64          `json:"percent_blocked"`
	UniqueDomains    int              `json:"unique_domains"`
	ForwardedQueries int64            `json:"forwarded_queries"`
	CachedQueries    int64            `json:"cached_queries"`
	PrivacyLevel     uint8            `json:"privacy_level"`
	TotalClients     int              `json:"total_clients"`
	ActiveClients    int              `json:"active_clients"`
}

// Blocking status names.
const (
	statusEnabled  = "enabled"
	statusDisabled = "disabled"
)

// statusName returns the name of the blocking status.
func statusName(enabled bool) (s string) {
	if enabled {
		return statusEnabled
	}

	return statusDisabled
}

// replyTypeNames are the names of the reported reply types.
var replyTypeNames = []struct {
	name string
	rt   eventstore.ReplyType
}{{
	name: "NODATA",
	rt:   eventstore.ReplyNODATA,
}, {
	name: "NXDOMAIN",
	rt:   eventstore.ReplyNXDOMAIN,
}, {
	name: "CNAME",
	rt:   eventstore.ReplyCNAME,
}, {
	name: "IP",
	rt:   eventstore.ReplyIP,
}}

// handleGetSummary is the handler for the GET /api/stats/summary HTTP API.
func (svc *Service) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := svc.reporter.Summary(ctx)
	c := &s.Counters

	resp := &summaryResp{
		TotalQueries:     make(map[string]int64, len(c.Types)),
		ReplyTypes:       make(map[string]int64, len(replyTypeNames)),
		Status:           statusName(s.BlockingEnabled),
		GravitySize:      c.GravitySize,
		BlockedQueries:   c.Blocked,
		PercentBlocked:   s.PercentBlocked,
		UniqueDomains:    s.UniqueDomains,
		ForwardedQueries: c.Forwarded,
		CachedQueries:    c.Cached,
		PrivacyLevel:     uint8(s.PrivacyLevel),
		TotalClients:     s.TotalClients,
		ActiveClients:    s.ActiveClients,
	}

	for t, n := range c.Types {
		resp.TotalQueries[eventstore.QueryType(t).String()] = n
	}

	for _, rn := range replyTypeNames {
		resp.ReplyTypes[rn.name] = c.Reply(rn.rt)
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
}

// slotJSON is a time slot in the history.
type slotJSON struct {
	Timestamp      int64 `json:"timestamp"`
	TotalQueries   int64 `json:"total_queries"`
	BlockedQueries int64 `json:"blocked_queries"`
}

// handleGetHistory is the handler for the GET /api/stats/overTime/history HTTP
// API.
func (svc *Service) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window := svc.reporter.History(ctx)

	resp := make([]*slotJSON, 0, len(window))
	for _, s := range window {
		resp = append(resp, &slotJSON{
			Timestamp:      s.Time,
			TotalQueries:   s.Total,
			BlockedQueries: s.Blocked,
		})
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
}

// clientJSON is a client in the per-client history and the top list.
type clientJSON struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	Count *int64 `json:"count,omitempty"`
}

// clientsSlotJSON is a time slot in the per-client history.
type clientsSlotJSON struct {
	Data      []int64 `json:"data"`
	Timestamp int64   `json:"timestamp"`
}

// clientsOverTimeResp is the response to the GET /api/stats/overTime/clients
// HTTP API.
type clientsOverTimeResp struct {
	OverTime []*clientsSlotJSON `json:"over_time"`
	Clients  []*clientJSON      `json:"clients"`
}

// handleGetClientsOverTime is the handler for the GET
// /api/stats/overTime/clients HTTP API.
func (svc *Service) handleGetClientsOverTime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cot := svc.reporter.ClientsOverTime(ctx)

	resp := &clientsOverTimeResp{
		OverTime: make([]*clientsSlotJSON, 0, len(cot.Slots)),
		Clients:  make([]*clientJSON, 0, len(cot.Clients)),
	}

	for _, s := range cot.Slots {
		resp.OverTime = append(resp.OverTime, &clientsSlotJSON{
			Data:      s.Counts,
			Timestamp: s.Time,
		})
	}

	for _, c := range cot.Clients {
		resp.Clients = append(resp.Clients, &clientJSON{
			Name: c.Name,
			IP:   c.IP,
		})
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
}

// domainJSON is a domain in the top list.
type domainJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// topDomainsResp is the response to the GET /api/stats/top_domains and
// /api/stats/top_blocked HTTP APIs.
type topDomainsResp struct {
	TopDomains     []*domainJSON `json:"top_domains"`
	TotalQueries   *int64        `json:"total_queries,omitempty"`
	BlockedQueries *int64        `json:"blocked_queries,omitempty"`
}

// topDomainsHandler returns the handler of the top domains.  The blocked query
// parameter also selects the blocked domains.
func (svc *Service) topDomainsHandler(blocked bool) (h http.HandlerFunc) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := parseTopRequest(r.URL.Query())
		if err != nil {
			aghhttp.WriteBadRequest(ctx, svc.logger, w, r, err.Error())

			return
		}

		req.BlockedOnly = req.BlockedOnly || blocked
		entries := svc.reporter.TopDomains(ctx, req)

		resp := &topDomainsResp{
			TopDomains: make([]*domainJSON, 0, len(entries)),
		}

		for _, e := range entries {
			resp.TopDomains = append(resp.TopDomains, &domainJSON{
				Domain: e.Name,
				Count:  e.Count,
			})
		}

		c := svc.reporter.Totals(ctx)
		if req.BlockedOnly {
			resp.BlockedQueries = &c.Blocked
		} else {
			total := answeredTotal(&c)
			resp.TotalQueries = &total
		}

		aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
	}
}

// answeredTotal returns the number of queries that were forwarded, answered
// from the cache, or blocked.
func answeredTotal(c *eventstore.Counters) (n int64) {
	return c.Forwarded + c.Cached + c.Blocked
}

// topClientsResp is the response to the GET /api/stats/top_clients HTTP API.
type topClientsResp struct {
	TopClients     []*clientJSON `json:"top_clients"`
	TotalQueries   *int64        `json:"total_queries,omitempty"`
	BlockedQueries *int64        `json:"blocked_queries,omitempty"`
}

// handleGetTopClients is the handler for the GET /api/stats/top_clients HTTP
// API.
func (svc *Service) handleGetTopClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := parseTopRequest(r.URL.Query())
	if err != nil {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, err.Error())

		return
	}

	entries := svc.reporter.TopClients(ctx, req)

	resp := &topClientsResp{
		TopClients: make([]*clientJSON, 0, len(entries)),
	}

	for _, e := range entries {
		resp.TopClients = append(resp.TopClients, &clientJSON{
			Name:  e.Name,
			IP:    e.IP,
			Count: &e.Count,
		})
	}

	c := svc.reporter.Totals(ctx)
	if req.BlockedOnly {
		resp.BlockedQueries = &c.Blocked
	} else {
		resp.TotalQueries = &c.Queries
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
}

// upstreamJSON is an entry of the upstreams list.
type upstreamJSON struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	Count int64  `json:"count"`
}

// upstreamsResp is the response to the GET /api/stats/upstreams HTTP API.
type upstreamsResp struct {
	Upstreams        []*upstreamJSON `json:"upstreams"`
	ForwardedQueries int64           `json:"forwarded_queries"`
	TotalQueries     int64           `json:"total_queries"`
}

// handleGetUpstreams is the handler for the GET /api/stats/upstreams HTTP API.
func (svc *Service) handleGetUpstreams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ups, c := svc.reporter.Upstreams(ctx)

	resp := &upstreamsResp{
		Upstreams:        make([]*upstreamJSON, 0, len(ups)),
		ForwardedQueries: c.Forwarded,
		TotalQueries:     answeredTotal(c),
	}

	for i := range ups {
		u := &ups[i]
		resp.Upstreams = append(resp.Upstreams, &upstreamJSON{
			Name:  u.Name(),
			IP:    u.IP(),
			Count: u.Count,
		})
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
}

// queryTypeJSON is an entry of the query types list.
type queryTypeJSON struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// handleGetQueryTypes is the handler for the GET /api/stats/query_types HTTP
// API.
func (svc *Service) handleGetQueryTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	types := svc.reporter.QueryTypes(ctx)

	resp := make([]*queryTypeJSON, 0, len(types))
	for _, t := range types {
		resp = append(resp, &queryTypeJSON{
			Name:  t.Name,
			Count: t.Count,
		})
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, resp)
}
