package apicommon

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

// HTTPWriteJSON helper function allows to write a JSON response.
func HTTPWriteJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errors.ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// DecodeJSONBody decodes the request body, limited to MaxBodyBytes, into v.
// The returned error is ready to be written to the client.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.ErrMalformedBody.WithErr(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return validator.DecodeError(err)
	}
	return nil
}
