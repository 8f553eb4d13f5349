package websvc

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/aghhttp"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// statusResp is the response to the GET /api/dns/status HTTP API.
type statusResp struct {
	Status string `json:"status"`

	// RevertAt is the UNIX time of the pending revert of the status, if any.
	RevertAt int64 `json:"revert_at,omitempty"`
}

// handleGetDNSStatus is the handler for the GET /api/dns/status HTTP API.
func (svc *Service) handleGetDNSStatus(w http.ResponseWriter, r *http.Request) {
	enabled, revertAt := svc.blocking.Status()

	resp := &statusResp{
		Status: statusName(enabled),
	}

	if !revertAt.IsZero() {
		resp.RevertAt = revertAt.Unix()
	}

	aghhttp.WriteJSONResponseOK(r.Context(), svc.logger, w, r, resp)
}

// Blocking actions.
const (
	actionEnable  = "enable"
	actionDisable = "disable"
)

// keyResp is the response of the write APIs.
type keyResp struct {
	Key    string `json:"key"`
	Domain string `json:"domain,omitempty"`
}

// Messages of malformed request bodies.
const (
	msgNoBody      = "No request body data"
	msgInvalidBody = "Invalid request body data"
)

// readObject reads the body of r as a JSON object.  If the body is missing or
// malformed, it writes the error and returns false.
func (svc *Service) readObject(
	w http.ResponseWriter,
	r *http.Request,
) (obj map[string]json.RawMessage, ok bool) {
	ctx := r.Context()
	body, err := aghhttp.ReadBody(r, svc.maxBodySize)
	if err != nil {
		svc.logger.DebugContext(ctx, "reading body", slogutil.KeyError, err)
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, msgNoBody)

		return nil, false
	}

	err = json.Unmarshal(body, &obj)
	if err != nil || obj == nil {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, msgInvalidBody)

		return nil, false
	}

	return obj, true
}

// stringField returns the string value of the field of obj.
func stringField(obj map[string]json.RawMessage, name string) (s string, ok bool) {
	raw, ok := obj[name]
	if !ok {
		return "", false
	}

	err := json.Unmarshal(raw, &s)

	return s, err == nil
}

// maxDelaySecs is the largest delay, in seconds, representable as a
// [time.Duration].
const maxDelaySecs = math.MaxInt64 / int64(time.Second)

// delayField returns the delay from the field of obj holding a number of
// seconds.  A missing, null, or non-positive field means no delay.  ok is
// false if the field is not a number.  Too large values are clamped.
func delayField(obj map[string]json.RawMessage, name string) (delay time.Duration, ok bool) {
	raw, has := obj[name]
	if !has {
		return 0, true
	}

	var secs *float64
	err := json.Unmarshal(raw, &secs)
	if err != nil {
		return 0, false
	}

	if secs == nil || *secs <= 0 {
		return 0, true
	}

	return time.Duration(min(*secs, float64(maxDelaySecs))) * time.Second, true
}

// handlePostDNSStatus is the handler for the POST /api/dns/status HTTP API.
// The body is an object with the action and, optionally, the number of seconds
// after which the action is reverted.
func (svc *Service) handlePostDNSStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	obj, ok := svc.readObject(w, r)
	if !ok {
		return
	}

	action, ok := stringField(obj, "action")
	if !ok {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, `No "action" string in body data`)

		return
	}

	var enabled bool
	switch action {
	case actionEnable:
		enabled = true
	case actionDisable:
		enabled = false
	default:
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, `Invalid "action" requested`)

		return
	}

	delay, ok := delayField(obj, "time")
	if !ok {
		aghhttp.WriteBadRequest(ctx, svc.logger, w, r, `Invalid "time" in body data`)

		return
	}

	err := svc.blocking.Set(ctx, enabled, delay)
	if err != nil {
		// The state is applied even if it could not be persisted.
		svc.logger.ErrorContext(ctx, "setting blocking", slogutil.KeyError, err)
	}

	aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, &keyResp{
		Key: statusName(enabled),
	})
}
