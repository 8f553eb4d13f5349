// Package aghhttp provides some common methods to work with HTTP.
package aghhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AdguardTeam/dnsreport/internal/version"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Content types of the API responses.
const (
	HdrValApplicationJSON = "application/json"
	HdrValTextPlain       = "text/plain"
)

// UserAgent returns the ID of the service as a User-Agent string.  It can also
// be used as the value of the Server HTTP header.
func UserAgent() (ua string) {
	return fmt.Sprintf("dnsreport/%s", version.Version())
}

// ErrorKey is the machine-readable kind of an API error.
type ErrorKey string

// ErrorKey values.
const (
	ErrorKeyBadRequest    ErrorKey = "bad_request"
	ErrorKeyUnauthorized  ErrorKey = "unauthorized"
	ErrorKeyDatabaseError ErrorKey = "database_error"
)

// APIError is the body of an error response.
type APIError struct {
	// Data is the additional information about the error, if any.
	Data any `json:"data,omitempty"`

	// Key is the kind of the error.
	Key ErrorKey `json:"key"`

	// Message is the human-readable description of the error.
	Message string `json:"message"`
}

// WriteError writes the API error with the code and logs it.
func WriteError(
	ctx context.Context,
	l *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	code int,
	apiErr *APIError,
) {
	l.DebugContext(
		ctx,
		"request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"key", apiErr.Key,
		"message", apiErr.Message,
	)

	WriteJSONResponse(ctx, l, w, r, code, apiErr)
}

// WriteBadRequest writes the error of a malformed request.
func WriteBadRequest(
	ctx context.Context,
	l *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	msg string,
) {
	WriteError(ctx, l, w, r, http.StatusBadRequest, &APIError{
		Key:     ErrorKeyBadRequest,
		Message: msg,
	})
}

// WriteLines writes the lines produced by fn as plain text.  Every line must
// end with a newline.
func WriteLines(
	ctx context.Context,
	l *slog.Logger,
	w http.ResponseWriter,
	r *http.Request,
	fn func(b []byte) (res []byte),
) {
	h := w.Header()
	h.Set(httphdr.ContentType, HdrValTextPlain)
	h.Set(httphdr.Server, UserAgent())

	w.WriteHeader(http.StatusOK)

	_, err := w.Write(fn(nil))
	if err != nil {
		l.DebugContext(ctx, "writing lines", "path", r.URL.Path, slogutil.KeyError, err)
	}
}
