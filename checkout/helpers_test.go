package checkout

import (
	"context"
	"fmt"
	"sync"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/stripe-checkout/stripe"
)

// fakeGateway is an in-memory Gateway that counts every call.
type fakeGateway struct {
	mu sync.Mutex

	customers    map[string]string
	accounts     map[string][]stripe.BankAccount
	statuses     []string
	setupIntents map[string]*stripe.SetupIntentInfo
	events       map[string]*stripeapi.Event

	createID string

	searchErr   error
	createErr   error
	listErr     error
	sessionErr  error
	setupErr    error
	chargeErr   error
	statusesErr error

	calls    map[string]int
	sessions []*stripeapi.CheckoutSessionParams
	charges  []*stripe.Charge
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers:    map[string]string{},
		accounts:     map[string][]stripe.BankAccount{},
		setupIntents: map[string]*stripe.SetupIntentInfo{},
		events:       map[string]*stripeapi.Event{},
		createID:     "cus_new",
		calls:        map[string]int{},
	}
}

func (f *fakeGateway) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeGateway) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeGateway) FindCustomerByEmail(_ context.Context, email string) (string, bool, error) {
	f.count("search")
	if f.searchErr != nil {
		return "", false, f.searchErr
	}
	id, ok := f.customers[email]
	return id, ok, nil
}

func (f *fakeGateway) CreateCustomer(_ context.Context, email string) (string, error) {
	f.count("create")
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.createID != "" {
		f.customers[email] = f.createID
	}
	return f.createID, nil
}

func (f *fakeGateway) ListBankAccounts(_ context.Context, customerID string) ([]stripe.BankAccount, error) {
	f.count("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.accounts[customerID], nil
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, params *stripeapi.CheckoutSessionParams) (string, error) {
	f.count("session")
	f.mu.Lock()
	f.sessions = append(f.sessions, params)
	f.mu.Unlock()
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	return "cs_test_1", nil
}

func (f *fakeGateway) CreateSetupIntent(_ context.Context, customerID string, _ []string) (string, error) {
	f.count("setup")
	if f.setupErr != nil {
		return "", f.setupErr
	}
	return "seti_secret_" + customerID, nil
}

func (f *fakeGateway) ChargeSavedMethod(_ context.Context, charge *stripe.Charge) (*stripe.ChargeResult, error) {
	f.count("charge")
	f.mu.Lock()
	f.charges = append(f.charges, charge)
	f.mu.Unlock()
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return &stripe.ChargeResult{ID: "pi_test_1", Status: "processing"}, nil
}

func (f *fakeGateway) PaymentIntentStatuses(_ context.Context, _, _ string) ([]string, error) {
	f.count("statuses")
	if f.statusesErr != nil {
		return nil, f.statusesErr
	}
	return f.statuses, nil
}

func (f *fakeGateway) SetupIntent(_ context.Context, id string) (*stripe.SetupIntentInfo, error) {
	f.count("setup_get")
	info, ok := f.setupIntents[id]
	if !ok {
		return nil, providerError(fmt.Sprintf("No such setupintent: '%s'", id))
	}
	return info, nil
}

func (f *fakeGateway) ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	if signatureHeader != "valid" {
		return nil, stripe.ErrWebhookValidation
	}
	event, ok := f.events[string(payload)]
	if !ok {
		return nil, stripe.ErrInvalidEvent
	}
	return event, nil
}

// providerError builds the error the stripe client returns when Stripe
// answers a request with an error message.
func providerError(msg string) error {
	return stripe.NewStripeError("api_call_failed", "stripe call failed", &stripeapi.Error{Msg: msg})
}

func newTestOrchestrator(c *qt.C, gw Gateway, cfg *Config) *Orchestrator {
	o := New(gw, cfg)
	c.Cleanup(o.Close)
	return o
}

func defaultConfig() *Config {
	return &Config{ClientOrigin: "https://pay.example.com"}
}

// stringValues dereferences a Stripe string slice parameter.
func stringValues(values []*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, stripeapi.StringValue(v))
	}
	return out
}
