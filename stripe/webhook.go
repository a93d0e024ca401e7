package stripe

import (
	"encoding/json"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v81"
)

// SetupCompletion is a completed setup-mode Checkout Session: the customer
// linked a bank account and the charge is still pending.
type SetupCompletion struct {
	EventID       string
	SessionID     string
	CustomerID    string
	SetupIntentID string
	Metadata      map[string]string
}

// ParseSetupCompletion extracts the setup completion carried by the event.
// It returns nil, nil for any event that is not a completed setup-mode
// Checkout Session.
func ParseSetupCompletion(event *stripeapi.Event) (*SetupCompletion, error) {
	if event == nil || event.Data == nil {
		return nil, ErrInvalidEvent
	}
	if event.Type != stripeapi.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, NewStripeError("invalid_event", fmt.Sprintf("cannot decode checkout session of event %s", event.ID), err)
	}
	if session.Mode != stripeapi.CheckoutSessionModeSetup {
		return nil, nil
	}
	if session.Customer == nil || session.Customer.ID == "" ||
		session.SetupIntent == nil || session.SetupIntent.ID == "" {
		return nil, NewStripeError("invalid_event",
			fmt.Sprintf("checkout session %s has no customer or setup intent", session.ID), nil)
	}
	return &SetupCompletion{
		EventID:       event.ID,
		SessionID:     session.ID,
		CustomerID:    session.Customer.ID,
		SetupIntentID: session.SetupIntent.ID,
		Metadata:      session.Metadata,
	}, nil
}
