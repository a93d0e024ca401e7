package stripe

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/stripe-checkout/test"
)

// TestClientAgainstStripeMock runs the client against the official
// stripe-mock server, which validates every request against Stripe's OpenAPI
// definition. It is skipped when no container runtime is available.
func TestClientAgainstStripeMock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := qt.New(t)
	ctx := context.Background()

	mock, err := test.StartStripeMockContainer(ctx)
	if err != nil {
		t.Skipf("stripe-mock unavailable: %v", err)
	}
	defer func() { c.Assert(mock.Terminate(ctx), qt.IsNil) }()

	client, err := NewClient(&Config{APIKey: "sk_test_123", APIURL: mock.URL})
	c.Assert(err, qt.IsNil)

	customerID, err := client.CreateCustomer(ctx, "mock@x.com")
	c.Assert(err, qt.IsNil)
	c.Assert(customerID, qt.Not(qt.Equals), "")

	_, _, err = client.FindCustomerByEmail(ctx, "mock@x.com")
	c.Assert(err, qt.IsNil)

	_, err = client.ListBankAccounts(ctx, customerID)
	c.Assert(err, qt.IsNil)

	sessionID, err := client.CreateCheckoutSession(ctx, &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		Customer:           stripeapi.String(customerID),
		PaymentMethodTypes: stripeapi.StringSlice([]string{PaymentMethodUSBankAccount}),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{{
			Quantity: stripeapi.Int64(1),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripeapi.String("usd"),
				UnitAmount:  stripeapi.Int64(5000),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripeapi.String("Client Payment")},
			},
		}},
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripeapi.String("off_session"),
		},
		SuccessURL: stripeapi.String("https://pay.example.com/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripeapi.String("https://pay.example.com/cancel.html"),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(sessionID, qt.Not(qt.Equals), "")

	secret, err := client.CreateSetupIntent(ctx, customerID, []string{PaymentMethodUSBankAccount})
	c.Assert(err, qt.IsNil)
	c.Assert(secret, qt.Not(qt.Equals), "")

	_, err = client.PaymentIntentStatuses(ctx, "invoice_number", "INV-1")
	c.Assert(err, qt.IsNil)
}
