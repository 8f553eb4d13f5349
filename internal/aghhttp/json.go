package aghhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/c2h5oh/datasize"
)

// WriteJSONResponse writes headers with the code, encodes resp into w, and logs
// any errors it encounters.  r is used to get additional information from the
// request.
func WriteJSONResponse(
	ctx context.Context,
	l *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	code int,
	resp any,
) {
	h := w.Header()
	h.Set(httphdr.ContentType, HdrValApplicationJSON)
	h.Set(httphdr.Server, UserAgent())

	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		l.DebugContext(
			ctx,
			"writing json resp",
			"method", r.Method,
			"path", r.URL.Path,
			slogutil.KeyError, err,
		)
	}
}

// WriteJSONResponseOK writes headers with the code 200 OK, encodes v into w,
// and logs any errors it encounters.
func WriteJSONResponseOK(
	ctx context.Context,
	l *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	v any,
) {
	WriteJSONResponse(ctx, l, w, r, http.StatusOK, v)
}

// ErrBodyTooLarge is returned by [ReadBody] when the body exceeds the limit.
const ErrBodyTooLarge errors.Error = "request body too large"

// ReadBody reads the request body of at most limit bytes.  An empty body is
// an error wrapping [errors.ErrEmptyValue].
func ReadBody(r *http.Request, limit datasize.ByteSize) (body []byte, err error) {
	if r.Body == nil {
		return nil, fmt.Errorf("body: %w", errors.ErrEmptyValue)
	}

	n := int64(limit.Bytes())
	body, err = io.ReadAll(io.LimitReader(r.Body, n+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	switch {
	case len(body) == 0:
		return nil, fmt.Errorf("body: %w", errors.ErrEmptyValue)
	case int64(len(body)) > n:
		return nil, fmt.Errorf("body: %w: more than %s", ErrBodyTooLarge, limit)
	default:
		return body, nil
	}
}
