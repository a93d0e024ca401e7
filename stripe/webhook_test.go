package stripe

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
)

func checkoutEvent(c *qt.C, id string, session map[string]any) *stripeapi.Event {
	raw, err := json.Marshal(session)
	c.Assert(err, qt.IsNil)
	return &stripeapi.Event{
		ID:   id,
		Type: stripeapi.EventTypeCheckoutSessionCompleted,
		Data: &stripeapi.EventData{Raw: raw},
	}
}

func TestParseSetupCompletion(t *testing.T) {
	c := qt.New(t)

	event := checkoutEvent(c, "evt_1", map[string]any{
		"id":             "cs_1",
		"object":         "checkout.session",
		"mode":           "setup",
		"customer":       "cus_1",
		"setup_intent":   "seti_1",
		"metadata":       map[string]string{"amount": "5000"},
		"payment_status": "no_payment_required",
	})
	completion, err := ParseSetupCompletion(event)
	c.Assert(err, qt.IsNil)
	c.Assert(completion, qt.DeepEquals, &SetupCompletion{
		EventID:       "evt_1",
		SessionID:     "cs_1",
		CustomerID:    "cus_1",
		SetupIntentID: "seti_1",
		Metadata:      map[string]string{"amount": "5000"},
	})

	c.Run("payment mode is ignored", func(c *qt.C) {
		event := checkoutEvent(c, "evt_2", map[string]any{"id": "cs_2", "mode": "payment", "customer": "cus_1"})
		completion, err := ParseSetupCompletion(event)
		c.Assert(err, qt.IsNil)
		c.Assert(completion, qt.IsNil)
	})

	c.Run("other event types are ignored", func(c *qt.C) {
		event := checkoutEvent(c, "evt_3", map[string]any{"id": "cs_3", "mode": "setup"})
		event.Type = stripeapi.EventTypeCustomerCreated
		completion, err := ParseSetupCompletion(event)
		c.Assert(err, qt.IsNil)
		c.Assert(completion, qt.IsNil)
	})

	c.Run("setup session without intent", func(c *qt.C) {
		event := checkoutEvent(c, "evt_4", map[string]any{"id": "cs_4", "mode": "setup", "customer": "cus_1"})
		_, err := ParseSetupCompletion(event)
		c.Assert(err, qt.ErrorIs, ErrInvalidEvent)
	})
}

func TestValidateWebhookEvent(t *testing.T) {
	c := qt.New(t)
	client, err := NewClient(&Config{APIKey: "sk_test_fake", WebhookSecret: "whsec_test"})
	c.Assert(err, qt.IsNil)

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := client.ValidateWebhookEvent(signed.Payload, signed.Header)
	c.Assert(err, qt.IsNil)
	c.Assert(event.ID, qt.Equals, "evt_1")

	_, err = client.ValidateWebhookEvent(payload, "t=1,v1=deadbeef")
	c.Assert(err, qt.ErrorIs, ErrWebhookValidation)
}

func TestMemoryEventStore(t *testing.T) {
	c := qt.New(t)
	store := NewMemoryEventStore(time.Minute)
	defer store.Close()

	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	store.MarkProcessed("evt_1")
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	c.Assert(store.Size(), qt.Equals, 1)

	store.expire(time.Now().Add(30 * time.Second))
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	store.expire(time.Now().Add(2 * time.Minute))
	c.Assert(store.EventExists("evt_1"), qt.IsFalse)

	store.Close()
	store.Close()
}

func TestLockCustomerSerializes(t *testing.T) {
	c := qt.New(t)
	lm := NewLockManager()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lm.LockCustomer("cus_1")
			defer unlock()
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	c.Assert(maxSeen, qt.Equals, 1)

	// different customers don't block each other
	unlock := lm.LockCustomer("cus_1")
	unlockOther := lm.LockCustomer("cus_2")
	unlockOther()
	unlock()

	lm.CleanupLocks()
	count := 0
	lm.locks.Range(func(_, _ any) bool { count++; return true })
	c.Assert(count, qt.Equals, 0)
}
