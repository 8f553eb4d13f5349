package websvc

import (
	"net/http"
	"net/url"
	"path"

	"github.com/AdguardTeam/dnsreport/internal/aghhttp"
	"github.com/AdguardTeam/dnsreport/internal/domainlist"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// listGetHandler returns the handler listing the entries of the category.
func (svc *Service) listGetHandler(cat domainlist.Category) (h http.HandlerFunc) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		entries := []string{}
		for e, err := range svc.lists.List(ctx, cat) {
			if err != nil {
				svc.logger.ErrorContext(ctx, "listing entries", "list", cat, slogutil.KeyError, err)
				aghhttp.WriteError(ctx, svc.logger, w, r, http.StatusInternalServerError, &aghhttp.APIError{
					Key:     aghhttp.ErrorKeyDatabaseError,
					Message: "Could not read domains from database table",
				})

				return
			}

			entries = append(entries, e)
		}

		aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, entries)
	}
}

// domainData is the additional data of the list errors.
type domainData struct {
	Domain string `json:"domain"`
}

// writeListError writes the error of a list change.  Validation errors are
// answered with 400 Bad Request, all others with 500 Internal Server Error.
func (svc *Service) writeListError(
	w http.ResponseWriter,
	r *http.Request,
	entry string,
	msg string,
	err error,
) {
	ctx := r.Context()
	if errors.Is(err, errors.ErrEmptyValue) || errors.Is(err, errors.ErrBadEnumValue) {
		aghhttp.WriteError(ctx, svc.logger, w, r, http.StatusBadRequest, &aghhttp.APIError{
			Data:    &domainData{Domain: entry},
			Key:     aghhttp.ErrorKeyBadRequest,
			Message: err.Error(),
		})

		return
	}

	svc.logger.ErrorContext(ctx, "changing list", slogutil.KeyError, err)
	aghhttp.WriteError(ctx, svc.logger, w, r, http.StatusInternalServerError, &aghhttp.APIError{
		Data:    &domainData{Domain: entry},
		Key:     aghhttp.ErrorKeyDatabaseError,
		Message: msg,
	})
}

// listPostHandler returns the handler adding an entry to the category.  The
// body is an object with the entry in the domain field.
func (svc *Service) listPostHandler(cat domainlist.Category) (h http.HandlerFunc) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		obj, ok := svc.readObject(w, r)
		if !ok {
			return
		}

		domain, ok := stringField(obj, "domain")
		if !ok {
			aghhttp.WriteBadRequest(ctx, svc.logger, w, r, `No "domain" string in body data`)

			return
		}

		err := svc.lists.Add(ctx, cat, domain)
		if err != nil {
			svc.writeListError(w, r, domain, "Could not add domain to database table", err)

			return
		}

		aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, &keyResp{
			Key:    "added",
			Domain: domain,
		})
	}
}

// listDeleteHandler returns the handler removing an entry from the category.
// The entry is the percent-decoded last segment of the path, so that regular
// expressions may contain any characters.
func (svc *Service) listDeleteHandler(cat domainlist.Category) (h http.HandlerFunc) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		domain, err := url.PathUnescape(path.Base(r.URL.EscapedPath()))
		if err != nil {
			aghhttp.WriteBadRequest(ctx, svc.logger, w, r, "Invalid domain in path")

			return
		}

		err = svc.lists.Remove(ctx, cat, domain)
		if err != nil {
			svc.writeListError(w, r, domain, "Could not remove domain from database table", err)

			return
		}

		aghhttp.WriteJSONResponseOK(ctx, svc.logger, w, r, &keyResp{
			Key:    "removed",
			Domain: domain,
		})
	}
}
