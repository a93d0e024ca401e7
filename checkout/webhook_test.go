package checkout

import (
	"context"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/stripe"
)

func setupCompletedEvent(c *qt.C, gw *fakeGateway, eventID string, metadata map[string]string) []byte {
	raw, err := json.Marshal(map[string]any{
		"id":           "cs_setup_1",
		"object":       "checkout.session",
		"mode":         "setup",
		"customer":     "cus_1",
		"setup_intent": "seti_1",
		"metadata":     metadata,
	})
	c.Assert(err, qt.IsNil)
	payload := []byte(eventID)
	gw.events[eventID] = &stripeapi.Event{
		ID:   eventID,
		Type: stripeapi.EventTypeCheckoutSessionCompleted,
		Data: &stripeapi.EventData{Raw: raw},
	}
	return payload
}

func TestHandleWebhookEventChargesSetupSession(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	gw.setupIntents["seti_1"] = &stripe.SetupIntentInfo{
		ID: "seti_1", CustomerID: "cus_1", PaymentMethodID: "pm_linked",
		Metadata: map[string]string{"amount": "5000", "invoice_number": "INV-5"},
	}
	o := newTestOrchestrator(c, gw, &Config{SavedMethodReuse: true, InvoiceMetadata: true})
	ctx := context.Background()

	payload := setupCompletedEvent(c, gw, "evt_1", nil)
	c.Assert(o.HandleWebhookEvent(ctx, payload, "valid"), qt.IsNil)
	c.Assert(gw.charges, qt.HasLen, 1)
	c.Assert(gw.charges[0].AmountCents, qt.Equals, int64(5000))
	c.Assert(gw.charges[0].PaymentMethodID, qt.Equals, "pm_linked")
	c.Assert(gw.charges[0].IdempotencyKey, qt.Equals, "setup-charge-cs_setup_1")
	c.Assert(gw.charges[0].Metadata, qt.DeepEquals, map[string]string{"invoice_number": "INV-5"})

	// redelivery of the same event is acknowledged without charging again
	c.Assert(o.HandleWebhookEvent(ctx, payload, "valid"), qt.IsNil)
	c.Assert(gw.callCount("charge"), qt.Equals, 1)
}

func TestHandleWebhookEventSessionMetadataWins(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	gw.setupIntents["seti_1"] = &stripe.SetupIntentInfo{
		ID: "seti_1", CustomerID: "cus_1", PaymentMethodID: "pm_linked",
		Metadata: map[string]string{"amount": "1"},
	}
	o := newTestOrchestrator(c, gw, &Config{})

	payload := setupCompletedEvent(c, gw, "evt_2", map[string]string{"amount": "4200"})
	c.Assert(o.HandleWebhookEvent(context.Background(), payload, "valid"), qt.IsNil)
	c.Assert(gw.charges, qt.HasLen, 1)
	c.Assert(gw.charges[0].AmountCents, qt.Equals, int64(4200))
}

func TestHandleWebhookEventFailedChargeIsRetried(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	gw.setupIntents["seti_1"] = &stripe.SetupIntentInfo{
		ID: "seti_1", CustomerID: "cus_1", PaymentMethodID: "pm_linked",
		Metadata: map[string]string{"amount": "5000"},
	}
	gw.chargeErr = providerError("temporarily unavailable")
	o := newTestOrchestrator(c, gw, &Config{})
	ctx := context.Background()

	payload := setupCompletedEvent(c, gw, "evt_3", nil)
	err := o.HandleWebhookEvent(ctx, payload, "valid")
	c.Assert(err, qt.ErrorIs, errors.ErrStripeRequestFailed)

	gw.chargeErr = nil
	c.Assert(o.HandleWebhookEvent(ctx, payload, "valid"), qt.IsNil)
	c.Assert(gw.callCount("charge"), qt.Equals, 2)
	// both attempts share the idempotency key, Stripe applies the charge once
	c.Assert(gw.charges, qt.HasLen, 2)
	c.Assert(gw.charges[0].IdempotencyKey, qt.Equals, "setup-charge-cs_setup_1")
	c.Assert(gw.charges[1].IdempotencyKey, qt.Equals, gw.charges[0].IdempotencyKey)
}

func TestHandleWebhookEventIgnoresOtherEvents(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	o := newTestOrchestrator(c, gw, &Config{})

	gw.events["evt_other"] = &stripeapi.Event{
		ID:   "evt_other",
		Type: stripeapi.EventTypePaymentIntentSucceeded,
		Data: &stripeapi.EventData{Raw: json.RawMessage(`{"id":"pi_1"}`)},
	}
	c.Assert(o.HandleWebhookEvent(context.Background(), []byte("evt_other"), "valid"), qt.IsNil)
	c.Assert(gw.totalCalls(), qt.Equals, 0)

	// setup session without amount: nothing to charge
	gw.setupIntents["seti_1"] = &stripe.SetupIntentInfo{ID: "seti_1", PaymentMethodID: "pm_1"}
	payload := setupCompletedEvent(c, gw, "evt_noamount", nil)
	c.Assert(o.HandleWebhookEvent(context.Background(), payload, "valid"), qt.IsNil)
	c.Assert(gw.callCount("charge"), qt.Equals, 0)
}

func TestHandleWebhookEventRejectsBadSignature(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	o := newTestOrchestrator(c, gw, &Config{})

	err := o.HandleWebhookEvent(context.Background(), []byte("evt_1"), "forged")
	c.Assert(err, qt.ErrorIs, errors.ErrInvalidWebhookEvent)
	c.Assert(errors.From(err).HTTPstatus, qt.Equals, 400)
}
