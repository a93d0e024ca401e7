package checkout

import (
	"context"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/stripe-checkout/stripe"
)

// Gateway is the set of Stripe capabilities used by the orchestrator.
// It is implemented by *stripe.Client.
type Gateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (string, bool, error)
	CreateCustomer(ctx context.Context, email string) (string, error)
	ListBankAccounts(ctx context.Context, customerID string) ([]stripe.BankAccount, error)
	CreateCheckoutSession(ctx context.Context, params *stripeapi.CheckoutSessionParams) (string, error)
	CreateSetupIntent(ctx context.Context, customerID string, methodTypes []string) (string, error)
	ChargeSavedMethod(ctx context.Context, charge *stripe.Charge) (*stripe.ChargeResult, error)
	PaymentIntentStatuses(ctx context.Context, key, value string) ([]string, error)
	SetupIntent(ctx context.Context, id string) (*stripe.SetupIntentInfo, error)
	ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error)
}

var _ Gateway = (*stripe.Client)(nil)

// Mode is the Checkout Session mode.
type Mode string

const (
	// ModePayment charges now and keeps the payment method for off-session use.
	ModePayment Mode = "payment"
	// ModeSetup links a bank account without charging.
	ModeSetup Mode = "setup"
)

// PaymentRequest is a request to pay AmountCents.
type PaymentRequest struct {
	AmountCents int64
	Email       string
	InvoiceID   string
}

// CustomerRef identifies the Stripe customer of a request.
type CustomerRef struct {
	ID         string
	IsExisting bool
}

// SavedPaymentMethod is a bank account attached to a customer.
type SavedPaymentMethod struct {
	ID       string `json:"id"`
	BankName string `json:"bank_name"`
	Last4    string `json:"last4"`
	Verified bool   `json:"-"`
}

// Display returns the label shown to the customer, e.g. "CHASE (****1234)".
func (m SavedPaymentMethod) Display() string {
	return fmt.Sprintf("%s (****%s)", m.BankName, m.Last4)
}

// SessionResult is a created Checkout Session.
type SessionResult struct {
	SessionID string
	Mode      Mode
	Customer  CustomerRef
}

// SavedMethodsStatus is the outcome of a saved-method lookup.
type SavedMethodsStatus string

const (
	SavedFound  SavedMethodsStatus = "SAVED_FOUND"
	NoSaved     SavedMethodsStatus = "NO_SAVED"
	NewCustomer SavedMethodsStatus = "NEW_CUSTOMER"
)

// SavedMethods is the result of CheckSavedMethods. CustomerID is empty for
// NewCustomer.
type SavedMethods struct {
	Status     SavedMethodsStatus
	CustomerID string
	Methods    []SavedPaymentMethod
}

// SavedCharge is an off-session charge of a saved payment method.
type SavedCharge struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	InvoiceID       string
}

// ChargeResult is the payment intent created for a SavedCharge.
type ChargeResult struct {
	PaymentIntentID string
	Status          string
}
