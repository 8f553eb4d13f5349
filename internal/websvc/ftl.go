package websvc

import (
	"net/http"
	"net/netip"

	"github.com/AdguardTeam/dnsreport/internal/aghhttp"
	"github.com/AdguardTeam/dnsreport/internal/version"
)

// clientAddrResp is the response to the GET /api/ftl/client HTTP API.
type clientAddrResp struct {
	RemoteAddr string `json:"remote_addr"`
}

// handleGetFTLClient is the handler for the GET /api/ftl/client HTTP API.  It
// returns the address of the client without the port.
func (svc *Service) handleGetFTLClient(w http.ResponseWriter, r *http.Request) {
	addr := r.RemoteAddr
	if addrPort, err := netip.ParseAddrPort(addr); err == nil {
		addr = addrPort.Addr().String()
	}

	aghhttp.WriteJSONResponseOK(r.Context(), svc.logger, w, r, &clientAddrResp{
		RemoteAddr: addr,
	})
}

// handleGetFTLVersion is the handler for the GET /api/ftl/version HTTP API.
func (svc *Service) handleGetFTLVersion(w http.ResponseWriter, r *http.Request) {
	aghhttp.WriteJSONResponseOK(r.Context(), svc.logger, w, r, version.NewInfo())
}
