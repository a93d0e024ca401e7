package api

import (
	"io"
	"net/http"

	"github.com/vocdoni/stripe-checkout/api/apicommon"
	"github.com/vocdoni/stripe-checkout/errors"
	"go.vocdoni.io/dvote/log"
)

// webhookHandler godoc
//
//	@Summary		Handle Stripe webhook events
//	@Description	Process incoming webhook events from Stripe. A completed setup-mode Checkout Session is followed
//	@Description	by the off-session charge of its amount. Deliveries are deduplicated by event id.
//	@Tags			webhook
//	@Accept			json
//	@Produce		json
//	@Param			body	body		string	true	"Stripe webhook payload"
//	@Success		200		{string}	string	"OK"
//	@Failure		400		{object}	errors.Error	"Bad Request"
//	@Failure		500		{object}	errors.Error	"Internal Server Error"
//	@Router			/webhook [post]
func (a *API) webhookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, apicommon.MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warnw("stripe webhook: error reading request body", "error", err)
		errors.ErrInvalidWebhookEvent.WithErr(err).Write(w)
		return
	}

	signatureHeader := r.Header.Get("Stripe-Signature")
	if signatureHeader == "" {
		errors.ErrInvalidWebhookEvent.With("missing Stripe-Signature header").Write(w)
		return
	}

	// processing errors answer 5xx so Stripe redelivers the event
	if err := a.checkout.HandleWebhookEvent(r.Context(), payload, signatureHeader); err != nil {
		errors.From(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
}
