package websvc

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/AdguardTeam/dnsreport/internal/aghhttp"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/httputil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/bluele/gcache"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAuthCacheSize is the default number of verified passwords to keep.
const DefaultAuthCacheSize = 16

// AuthConfig is the configuration of the authentication of the API.
type AuthConfig struct {
	// PasswordHash is the bcrypt hash of the API password.  If it is empty,
	// only the requests allowed by AllowLoopback are authenticated.
	PasswordHash string

	// CacheSize is the number of verified passwords to keep.  If it is zero,
	// [DefaultAuthCacheSize] is used.
	CacheSize int

	// AllowLoopback authenticates all requests from loopback addresses.
	AllowLoopback bool
}

// type check
var _ validate.Interface = (*AuthConfig)(nil)

// Validate implements the [validate.Interface] interface for *AuthConfig.
func (c *AuthConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		validate.NotNegative("CacheSize", c.CacheSize),
	}

	if c.PasswordHash != "" {
		_, costErr := bcrypt.Cost([]byte(c.PasswordHash))
		if costErr != nil {
			errs = append(errs, fmt.Errorf("PasswordHash: %w", costErr))
		}
	}

	return errors.Join(errs...)
}

// authenticator checks the credentials of the requests.
type authenticator struct {
	logger        *slog.Logger
	verified      gcache.Cache
	hash          []byte
	allowLoopback bool
}

// newAuthenticator returns a new properly initialized *authenticator.  c must
// be valid.
func newAuthenticator(logger *slog.Logger, c *AuthConfig) (a *authenticator, err error) {
	err = c.Validate()
	if err != nil {
		return nil, err
	}

	size := c.CacheSize
	if size == 0 {
		size = DefaultAuthCacheSize
	}

	a = &authenticator{
		logger:        logger,
		verified:      gcache.New(size).LRU().Build(),
		allowLoopback: c.AllowLoopback,
	}

	if c.PasswordHash != "" {
		a.hash = []byte(c.PasswordHash)
	}

	return a, nil
}

// isAuthenticated returns true if r comes from an allowed address or carries
// the API password in its basic authentication credentials.
func (a *authenticator) isAuthenticated(r *http.Request) (ok bool) {
	if a.allowLoopback && isLoopback(r.RemoteAddr) {
		return true
	}

	if a.hash == nil {
		return false
	}

	_, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}

	return a.checkPassword(r, pass)
}

// checkPassword returns true if pass matches the hash.  Matching passwords are
// cached by their SHA-256 digests.
func (a *authenticator) checkPassword(r *http.Request, pass string) (ok bool) {
	key := sha256.Sum256([]byte(pass))

	_, err := a.verified.Get(key)
	if err == nil {
		return true
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		// Shouldn't happen, since we don't use a loader function.
		a.logger.ErrorContext(r.Context(), "getting verified password", slogutil.KeyError, err)
	}

	if bcrypt.CompareHashAndPassword(a.hash, []byte(pass)) != nil {
		return false
	}

	err = a.verified.Set(key, struct{}{})
	if err != nil {
		a.logger.ErrorContext(r.Context(), "caching verified password", slogutil.KeyError, err)
	}

	return true
}

// isLoopback returns true if remoteAddr is a loopback address.
func isLoopback(remoteAddr string) (ok bool) {
	addrPort, err := netip.ParseAddrPort(remoteAddr)
	if err != nil {
		return false
	}

	return addrPort.Addr().IsLoopback()
}

// type check
var _ httputil.Middleware = (*authenticator)(nil)

// Wrap implements the [httputil.Middleware] interface for *authenticator.
// Unauthenticated requests are answered with 401 Unauthorized.
func (a *authenticator) Wrap(h http.Handler) (wrapped http.Handler) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isAuthenticated(r) {
			h.ServeHTTP(w, r)

			return
		}

		aghhttp.WriteError(r.Context(), a.logger, w, r, http.StatusUnauthorized, &aghhttp.APIError{
			Key:     aghhttp.ErrorKeyUnauthorized,
			Message: "Unauthorized",
		})
	})
}
