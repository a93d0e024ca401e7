package stripe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
	"go.vocdoni.io/dvote/log"
)

const (
	// PaymentMethodUSBankAccount is the ACH bank transfer payment method type.
	PaymentMethodUSBankAccount = "us_bank_account"
	// BankAccountVerified is the only bank account status eligible for reuse.
	BankAccountVerified = "verified"

	pageSize = 100
)

// Client wraps the Stripe API client with additional functionality
type Client struct {
	config *Config
	api    *client.API
}

// BankAccount is a us_bank_account payment method attached to a customer.
type BankAccount struct {
	ID       string
	BankName string
	Last4    string
	Status   string
}

// Charge describes an off-session charge of a saved payment method.
type Charge struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	Description     string
	Metadata        map[string]string
	// IdempotencyKey is optional, a random key is used when empty.
	IdempotencyKey  string
}

// ChargeResult is the payment intent created by a Charge.
type ChargeResult struct {
	ID     string
	Status string
}

// SetupIntentInfo holds the fields of a SetupIntent needed to charge the
// payment method it collected.
type SetupIntentInfo struct {
	ID              string
	CustomerID      string
	PaymentMethodID string
	Metadata        map[string]string
}

// bankPaymentMethod decodes the subset of a payment method that the SDK
// type does not expose, the us_bank_account status in particular.
type bankPaymentMethod struct {
	ID            string `json:"id"`
	USBankAccount *struct {
		BankName string `json:"bank_name"`
		Last4    string `json:"last4"`
		Status   string `json:"status"`
	} `json:"us_bank_account"`
}

// bankAccountListParams are the query parameters of the bank account
// listing. Call requires an embedded Params, which the SDK list params lack.
type bankAccountListParams struct {
	stripeapi.Params `form:"*"`

	Customer *string `form:"customer"`
	Type     *string `form:"type"`
	Limit    *int64  `form:"limit"`
}

type bankPaymentMethodList struct {
	stripeapi.APIResource
	stripeapi.ListMeta
	Data []*bankPaymentMethod `json:"data"`
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	backendConfig := &stripeapi.BackendConfig{
		HTTPClient:        config.httpClient(),
		LeveledLogger:     leveledLogger{},
		MaxNetworkRetries: stripeapi.Int64(0),
	}
	if config.APIURL != "" {
		backendConfig.URL = stripeapi.String(strings.TrimSuffix(config.APIURL, "/"))
	}
	return &Client{
		config: config,
		api:    client.New(config.APIKey, stripeapi.NewBackendsWithConfig(backendConfig)),
	}, nil
}

// ValidateWebhookEvent validates and parses a webhook event
func (c *Client) ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	event, err := stripewebhook.ConstructEventWithOptions(payload, signatureHeader, c.config.WebhookSecret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, NewStripeError("webhook_validation", "webhook signature validation failed", err)
	}
	return &event, nil
}

// FindCustomerByEmail returns the id of the first customer whose email is
// exactly email. The boolean is false when no customer matches.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (id string, found bool, err error) {
	defer func(start time.Time) { observe("customer_search", start, err) }(time.Now())

	params := &stripeapi.CustomerSearchParams{
		SearchParams: stripeapi.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("email:'%s'", escapeQueryValue(email)),
			Limit:   stripeapi.Int64(1),
			Single:  true,
		},
	}
	iter := c.api.Customers.Search(params)
	if iter.Next() {
		return iter.Customer().ID, true, nil
	}
	if err := iter.Err(); err != nil {
		return "", false, NewStripeError("api_call_failed", "failed to search customers", err)
	}
	return "", false, nil
}

// CreateCustomer creates a customer with the given email and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, email string) (id string, err error) {
	defer func(start time.Time) { observe("customer_create", start, err) }(time.Now())

	params := &stripeapi.CustomerParams{Email: stripeapi.String(email)}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", NewStripeError("api_call_failed", "failed to create customer", err)
	}
	if customer == nil || customer.ID == "" {
		return "", NewStripeError("invalid_response", "customer created without id", nil)
	}
	log.Debugw("stripe customer created", "customerID", customer.ID)
	return customer.ID, nil
}

// ListBankAccounts returns one page of the us_bank_account payment methods
// attached to the customer, regardless of their status.
func (c *Client) ListBankAccounts(ctx context.Context, customerID string) (accounts []BankAccount, err error) {
	defer func(start time.Time) { observe("payment_method_list", start, err) }(time.Now())

	params := &bankAccountListParams{
		Customer: stripeapi.String(customerID),
		Type:     stripeapi.String(PaymentMethodUSBankAccount),
		Limit:    stripeapi.Int64(pageSize),
	}
	params.Context = ctx

	list := &bankPaymentMethodList{}
	if err := c.api.PaymentMethods.B.Call(http.MethodGet, "/v1/payment_methods",
		c.api.PaymentMethods.Key, params, list); err != nil {
		return nil, NewStripeError("api_call_failed", "failed to list payment methods", err)
	}
	for _, pm := range list.Data {
		if pm == nil || pm.USBankAccount == nil {
			continue
		}
		accounts = append(accounts, BankAccount{
			ID:       pm.ID,
			BankName: pm.USBankAccount.BankName,
			Last4:    pm.USBankAccount.Last4,
			Status:   pm.USBankAccount.Status,
		})
	}
	return accounts, nil
}

// CreateCheckoutSession submits the session parameters and returns the new
// session id.
func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripeapi.CheckoutSessionParams) (id string, err error) {
	defer func(start time.Time) { observe("checkout_session_create", start, err) }(time.Now())

	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", NewStripeError("api_call_failed", "failed to create checkout session", err)
	}
	if session == nil || session.ID == "" {
		return "", NewStripeError("invalid_response", "checkout session created without id", nil)
	}
	return session.ID, nil
}

// CreateSetupIntent creates an off-session SetupIntent for the customer and
// returns its client secret.
func (c *Client) CreateSetupIntent(ctx context.Context, customerID string, methodTypes []string) (secret string, err error) {
	defer func(start time.Time) { observe("setup_intent_create", start, err) }(time.Now())

	params := &stripeapi.SetupIntentParams{
		Customer:           stripeapi.String(customerID),
		PaymentMethodTypes: stripeapi.StringSlice(methodTypes),
		Usage:              stripeapi.String(string(stripeapi.SetupIntentUsageOffSession)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	intent, err := c.api.SetupIntents.New(params)
	if err != nil {
		return "", NewStripeError("api_call_failed", "failed to create setup intent", err)
	}
	if intent == nil || intent.ClientSecret == "" {
		return "", NewStripeError("invalid_response", "setup intent created without client secret", nil)
	}
	return intent.ClientSecret, nil
}

// ChargeSavedMethod creates and confirms an off-session payment intent
// against a saved bank account.
func (c *Client) ChargeSavedMethod(ctx context.Context, charge *Charge) (result *ChargeResult, err error) {
	defer func(start time.Time) { observe("payment_intent_create", start, err) }(time.Now())

	params := &stripeapi.PaymentIntentParams{
		Amount:             stripeapi.Int64(charge.AmountCents),
		Currency:           stripeapi.String(charge.Currency),
		Customer:           stripeapi.String(charge.CustomerID),
		PaymentMethod:      stripeapi.String(charge.PaymentMethodID),
		Confirm:            stripeapi.Bool(true),
		OffSession:         stripeapi.Bool(true),
		PaymentMethodTypes: stripeapi.StringSlice([]string{PaymentMethodUSBankAccount}),
	}
	if charge.Description != "" {
		params.Description = stripeapi.String(charge.Description)
	}
	for k, v := range charge.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if charge.IdempotencyKey != "" {
		params.SetIdempotencyKey(charge.IdempotencyKey)
	} else {
		params.SetIdempotencyKey(uuid.NewString())
	}

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to create payment intent", err)
	}
	if intent == nil || intent.ID == "" {
		return nil, NewStripeError("invalid_response", "payment intent created without id", nil)
	}
	log.Infow("saved payment method charged",
		"customerID", charge.CustomerID,
		"paymentIntentID", intent.ID,
		"status", intent.Status,
		"amount", charge.AmountCents)
	return &ChargeResult{ID: intent.ID, Status: string(intent.Status)}, nil
}

// PaymentIntentStatuses returns the status of every payment intent whose
// metadata key equals value.
func (c *Client) PaymentIntentStatuses(ctx context.Context, key, value string) (statuses []string, err error) {
	defer func(start time.Time) { observe("payment_intent_search", start, err) }(time.Now())

	params := &stripeapi.PaymentIntentSearchParams{
		SearchParams: stripeapi.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("metadata['%s']:'%s'", escapeQueryValue(key), escapeQueryValue(value)),
			Limit:   stripeapi.Int64(pageSize),
			Single:  true,
		},
	}
	iter := c.api.PaymentIntents.Search(params)
	for iter.Next() {
		statuses = append(statuses, string(iter.PaymentIntent().Status))
	}
	if err := iter.Err(); err != nil {
		return nil, NewStripeError("api_call_failed", "failed to search payment intents", err)
	}
	return statuses, nil
}

// SetupIntent retrieves the SetupIntent with the given id.
func (c *Client) SetupIntent(ctx context.Context, id string) (info *SetupIntentInfo, err error) {
	defer func(start time.Time) { observe("setup_intent_get", start, err) }(time.Now())

	params := &stripeapi.SetupIntentParams{}
	params.Context = ctx
	intent, err := c.api.SetupIntents.Get(id, params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to get setup intent", err)
	}
	info = &SetupIntentInfo{ID: intent.ID, Metadata: intent.Metadata}
	if intent.Customer != nil {
		info.CustomerID = intent.Customer.ID
	}
	if intent.PaymentMethod != nil {
		info.PaymentMethodID = intent.PaymentMethod.ID
	}
	return info, nil
}

// escapeQueryValue escapes a value embedded in a single-quoted Stripe search
// query clause.
func escapeQueryValue(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}

// FormatAmount renders an amount in cents the way Stripe metadata carries it.
func FormatAmount(cents int64) string {
	return strconv.FormatInt(cents, 10)
}
