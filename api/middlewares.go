package api

import (
	"net/http"

	"github.com/vocdoni/stripe-checkout/errors"
)

// defaultCORSHeaders makes every response carry the CORS headers. Those the
// cors middleware already negotiated for an allowed Origin are kept, the rest
// get the configured origin, as requests without an Origin or from another
// origin leave them unset.
func (a *API) defaultCORSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		setDefault := func(key, value string) {
			if h.Get(key) == "" {
				h.Set(key, value)
			}
		}
		setDefault("Access-Control-Allow-Origin", a.allowedOrigins[0])
		setDefault("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		setDefault("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// preflight answers every OPTIONS request with 204 and no body, whatever
// the path.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	errors.ErrNotFound.Write(w)
}
