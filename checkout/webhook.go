package checkout

import (
	"context"
	"strconv"

	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

// HandleWebhookEvent verifies and processes a Stripe webhook delivery with
// idempotency. A completed setup-mode Checkout Session is followed by the
// off-session charge of the amount it carried. Every other event is
// acknowledged without action.
//
// An event is only marked as processed once it has been handled, so Stripe
// redelivers it after a failure. Every attempt sends the charge with the same
// idempotency key, derived from the session id: a charge that never reached
// Stripe is sent again, while a charge Stripe already answered gets that
// same answer replayed for 24 hours and is never applied twice.
func (o *Orchestrator) HandleWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := o.gateway.ValidateWebhookEvent(payload, signatureHeader)
	if err != nil {
		webhookEvents.WithLabelValues("rejected").Inc()
		return errors.ErrInvalidWebhookEvent.WithErr(err)
	}

	if o.events.EventExists(event.ID) {
		log.Debugf("stripe webhook: event %s already processed, skipping", event.ID)
		webhookEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	completion, err := stripe.ParseSetupCompletion(event)
	if err != nil {
		webhookEvents.WithLabelValues("rejected").Inc()
		return errors.ErrInvalidWebhookEvent.WithErr(err)
	}
	if completion == nil {
		log.Debugf("stripe webhook: received unhandled event type %s (id %s)", event.Type, event.ID)
		o.events.MarkProcessed(event.ID)
		webhookEvents.WithLabelValues("ignored").Inc()
		return nil
	}

	err = o.handleSetupCompletion(ctx, completion)
	o.locks.CleanupLocks()
	if err != nil {
		webhookEvents.WithLabelValues("failed").Inc()
		return err
	}
	webhookEvents.WithLabelValues("processed").Inc()
	log.Debugw("stripe webhook: event processed", "eventID", event.ID, "storedEvents", o.events.Size())
	return nil
}

func (o *Orchestrator) handleSetupCompletion(ctx context.Context, completion *stripe.SetupCompletion) error {
	unlock := o.locks.LockCustomer(completion.CustomerID)
	defer unlock()

	// a concurrent delivery of the same event may have finished meanwhile
	if o.events.EventExists(completion.EventID) {
		return nil
	}

	intent, err := o.gateway.SetupIntent(ctx, completion.SetupIntentID)
	if err != nil {
		return upstreamError(err, genericStripeMessage)
	}

	amountValue := completion.Metadata[AmountMetadataKey]
	if amountValue == "" {
		amountValue = intent.Metadata[AmountMetadataKey]
	}
	amount, err := strconv.ParseInt(amountValue, 10, 64)
	if err != nil || amount <= 0 {
		log.Warnw("setup session without chargeable amount, nothing to charge",
			"sessionID", completion.SessionID, "amount", amountValue)
		o.events.MarkProcessed(completion.EventID)
		return nil
	}
	if intent.PaymentMethodID == "" {
		return errors.ErrWebhookProcessingFailed.Withf("setup intent %s has no payment method", intent.ID)
	}

	invoiceID := completion.Metadata[o.cfg.InvoiceMetadataKey]
	if invoiceID == "" {
		invoiceID = intent.Metadata[o.cfg.InvoiceMetadataKey]
	}
	res, err := o.chargeSavedMethod(ctx, SavedCharge{
		CustomerID:      completion.CustomerID,
		PaymentMethodID: intent.PaymentMethodID,
		AmountCents:     amount,
		InvoiceID:       invoiceID,
	}, "setup-charge-"+completion.SessionID, "webhook")
	if err != nil {
		return err
	}

	o.events.MarkProcessed(completion.EventID)
	log.Infow("setup session charged",
		"sessionID", completion.SessionID,
		"customerID", completion.CustomerID,
		"paymentIntentID", res.PaymentIntentID,
		"status", res.Status)
	return nil
}
