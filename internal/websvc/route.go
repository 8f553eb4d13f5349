package websvc

import (
	"log/slog"
	"net/http"

	"github.com/AdguardTeam/dnsreport/internal/domainlist"
	"github.com/AdguardTeam/golibs/netutil/httputil"
	"github.com/NYTimes/gziphandler"
)

// Path pattern constants.
const (
	PathPatternHealthCheck        = "/health-check"
	PathPatternStatsSummary       = "/api/stats/summary"
	PathPatternStatsHistory       = "/api/stats/overTime/history"
	PathPatternStatsClientsOvTime = "/api/stats/overTime/clients"
	PathPatternStatsTopDomains    = "/api/stats/top_domains"
	PathPatternStatsTopBlocked    = "/api/stats/top_blocked"
	PathPatternStatsTopClients    = "/api/stats/top_clients"
	PathPatternStatsUpstreams     = "/api/stats/upstreams"
	PathPatternStatsQueryTypes    = "/api/stats/query_types"
	PathPatternStatsQueries       = "/api/stats/queries"
	PathPatternLegacyAllQueries   = "/api/legacy/getallqueries"
	PathPatternLegacyTopClients   = "/api/legacy/top-clients"
	PathPatternLegacyRecentBlock  = "/api/legacy/recentBlocked"
	PathPatternDNSStatus          = "/api/dns/status"
	PathPatternDNSWhitelist       = "/api/dns/whitelist"
	PathPatternDNSBlacklist       = "/api/dns/blacklist"
	PathPatternDNSAudit           = "/api/dns/audit"
	PathPatternFTLClient          = "/api/ftl/client"
	PathPatternFTLVersion         = "/api/ftl/version"
)

// List path suffixes.
const (
	pathSuffixExact = "/exact"
	pathSuffixRegex = "/regex"
	pathSuffixEntry = "/{entry}"
)

// route is a single entry of the routing table.
type route struct {
	handler http.Handler
	method  string
	pattern string

	// needsAuth is true if the request must be authenticated.
	needsAuth bool

	// compress is true if the response is compressed depending on the request
	// headers.
	compress bool
}

// route registers all necessary handlers in mux.
func (svc *Service) route(mux *http.ServeMux) {
	routes := []*route{{
		handler:   httputil.HealthCheckHandler,
		method:    http.MethodGet,
		pattern:   PathPatternHealthCheck,
		needsAuth: false,
		compress:  false,
	}, {
		handler:   http.HandlerFunc(svc.handleGetSummary),
		method:    http.MethodGet,
		pattern:   PathPatternStatsSummary,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetHistory),
		method:    http.MethodGet,
		pattern:   PathPatternStatsHistory,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetClientsOverTime),
		method:    http.MethodGet,
		pattern:   PathPatternStatsClientsOvTime,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   svc.topDomainsHandler(false),
		method:    http.MethodGet,
		pattern:   PathPatternStatsTopDomains,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   svc.topDomainsHandler(true),
		method:    http.MethodGet,
		pattern:   PathPatternStatsTopBlocked,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetTopClients),
		method:    http.MethodGet,
		pattern:   PathPatternStatsTopClients,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetUpstreams),
		method:    http.MethodGet,
		pattern:   PathPatternStatsUpstreams,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetQueryTypes),
		method:    http.MethodGet,
		pattern:   PathPatternStatsQueryTypes,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetQueries),
		method:    http.MethodGet,
		pattern:   PathPatternStatsQueries,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetLegacyAllQueries),
		method:    http.MethodGet,
		pattern:   PathPatternLegacyAllQueries,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetLegacyTopClients),
		method:    http.MethodGet,
		pattern:   PathPatternLegacyTopClients,
		needsAuth: false,
		compress:  true,
	}, {
		handler:   http.HandlerFunc(svc.handleGetLegacyRecentBlocked),
		method:    http.MethodGet,
		pattern:   PathPatternLegacyRecentBlock,
		needsAuth: false,
		compress:  false,
	}, {
		handler:   http.HandlerFunc(svc.handleGetDNSStatus),
		method:    http.MethodGet,
		pattern:   PathPatternDNSStatus,
		needsAuth: false,
		compress:  false,
	}, {
		handler:   http.HandlerFunc(svc.handlePostDNSStatus),
		method:    http.MethodPost,
		pattern:   PathPatternDNSStatus,
		needsAuth: true,
		compress:  false,
	}, {
		handler:   http.HandlerFunc(svc.handleGetFTLClient),
		method:    http.MethodGet,
		pattern:   PathPatternFTLClient,
		needsAuth: false,
		compress:  false,
	}, {
		handler:   http.HandlerFunc(svc.handleGetFTLVersion),
		method:    http.MethodGet,
		pattern:   PathPatternFTLVersion,
		needsAuth: false,
		compress:  false,
	}}

	routes = append(routes, svc.listRoutes(PathPatternDNSWhitelist, domainlist.CategoryExactAllow)...)
	routes = append(routes, svc.listRoutes(
		PathPatternDNSWhitelist+pathSuffixExact,
		domainlist.CategoryExactAllow,
	)...)
	routes = append(routes, svc.listRoutes(
		PathPatternDNSWhitelist+pathSuffixRegex,
		domainlist.CategoryRegexAllow,
	)...)
	routes = append(routes, svc.listRoutes(PathPatternDNSBlacklist, domainlist.CategoryExactDeny)...)
	routes = append(routes, svc.listRoutes(
		PathPatternDNSBlacklist+pathSuffixExact,
		domainlist.CategoryExactDeny,
	)...)
	routes = append(routes, svc.listRoutes(
		PathPatternDNSBlacklist+pathSuffixRegex,
		domainlist.CategoryRegexDeny,
	)...)
	routes = append(routes, svc.listRoutes(PathPatternDNSAudit, domainlist.CategoryAudit)...)

	logMw := httputil.NewLogMiddleware(svc.logger, slog.LevelDebug)
	for _, r := range routes {
		hdlr := r.handler
		if r.needsAuth {
			hdlr = svc.auth.Wrap(hdlr)
		}

		if r.compress {
			hdlr = gziphandler.GzipHandler(hdlr)
		}

		pattern := r.method + " " + r.pattern
		mux.Handle(pattern, svc.metrics.Wrap(pattern, logMw.Wrap(hdlr)))
	}

	// Answer unknown paths and methods with 404 Not Found instead of 405
	// Method Not Allowed.
	mux.Handle("/", svc.metrics.Wrap("unknown", logMw.Wrap(http.NotFoundHandler())))
}

// listRoutes returns the routes of the list of the category at the path.  All
// list operations require authentication.
func (svc *Service) listRoutes(path string, cat domainlist.Category) (routes []*route) {
	return []*route{{
		handler:   svc.listGetHandler(cat),
		method:    http.MethodGet,
		pattern:   path,
		needsAuth: true,
		compress:  true,
	}, {
		handler:   svc.listPostHandler(cat),
		method:    http.MethodPost,
		pattern:   path,
		needsAuth: true,
		compress:  false,
	}, {
		handler:   svc.listDeleteHandler(cat),
		method:    http.MethodDelete,
		pattern:   path + pathSuffixEntry,
		needsAuth: true,
		compress:  false,
	}}
}
