// Package checkout implements the checkout orchestration: customer
// resolution, checkout mode selection and Checkout Session assembly, plus the
// saved bank account flows built on the same Stripe gateway.
package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/badoux/checkmail"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/stripe"
	"github.com/vocdoni/stripe-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

const (
	genericStripeMessage   = "Stripe error"
	genericInternalMessage = "Internal server error"
	customerCreateMessage  = "Failed to create Stripe customer."
	savedPaymentMessage    = "Failed to process saved payment."

	checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// Orchestrator runs the checkout flows against a Stripe Gateway. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	gateway Gateway
	cfg     Config
	events  *stripe.MemoryEventStore
	locks   *stripe.LockManager
}

// New creates an Orchestrator. Empty configuration fields take their
// default values.
func New(gateway Gateway, cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Orchestrator{
		gateway: gateway,
		cfg:     cfg.withDefaults(),
		events:  stripe.NewMemoryEventStore(24 * time.Hour),
		locks:   stripe.NewLockManager(),
	}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Close releases the background resources of the orchestrator.
func (o *Orchestrator) Close() {
	o.events.Close()
}

// ResolveCustomer returns the first customer whose email matches, or
// creates one when there is none.
func (o *Orchestrator) ResolveCustomer(ctx context.Context, email string) (*CustomerRef, error) {
	id, found, err := o.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, upstreamError(err, genericStripeMessage)
	}
	if found {
		log.Debugw("existing stripe customer", "customerID", id)
		return &CustomerRef{ID: id, IsExisting: true}, nil
	}

	id, err = o.gateway.CreateCustomer(ctx, email)
	if err != nil {
		return nil, upstreamError(err, customerCreateMessage)
	}
	if id == "" {
		return nil, errors.ErrStripeRequestFailed.WithMessage(customerCreateMessage)
	}
	return &CustomerRef{ID: id, IsExisting: false}, nil
}

// ListVerifiedBankMethods returns the verified bank accounts of the customer.
// The listing is requested when the iteration starts, one page only, and the
// sequence can be iterated once: later iterations yield nothing. A listing
// failure is yielded as the only element.
func (o *Orchestrator) ListVerifiedBankMethods(ctx context.Context, customerID string) iter.Seq2[SavedPaymentMethod, error] {
	var consumed atomic.Bool
	return func(yield func(SavedPaymentMethod, error) bool) {
		if consumed.Swap(true) {
			return
		}
		accounts, err := o.gateway.ListBankAccounts(ctx, customerID)
		if err != nil {
			yield(SavedPaymentMethod{}, err)
			return
		}
		for _, acc := range accounts {
			if acc.Status != stripe.BankAccountVerified {
				continue
			}
			method := SavedPaymentMethod{
				ID:       acc.ID,
				BankName: acc.BankName,
				Last4:    acc.Last4,
				Verified: true,
			}
			if !yield(method, nil) {
				return
			}
		}
	}
}

// SelectMode picks setup mode for returning customers that already have a
// verified bank account, when saved-method reuse is enabled. Every other
// case is payment mode.
func (o *Orchestrator) SelectMode(isExisting bool, verified []SavedPaymentMethod) Mode {
	if o.cfg.SavedMethodReuse && isExisting && len(verified) > 0 {
		return ModeSetup
	}
	return ModePayment
}

// BuildSessionParams assembles the Checkout Session parameters.
func (o *Orchestrator) BuildSessionParams(mode Mode, customerID string, amountCents int64,
	invoiceID string,
) *stripeapi.CheckoutSessionParams {
	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(mode)),
		Customer:           stripeapi.String(customerID),
		ClientReferenceID:  stripeapi.String(customerID),
		PaymentMethodTypes: stripeapi.StringSlice(o.cfg.PaymentMethodTypes()),
		SuccessURL:         stripeapi.String(o.successURL(mode, amountCents, invoiceID)),
		CancelURL:          stripeapi.String(o.cancelURL(invoiceID)),
	}
	withInvoice := o.cfg.InvoiceMetadata && invoiceID != ""

	switch mode {
	case ModeSetup:
		// The session metadata mirrors the intent metadata so the completion
		// event carries the amount without another lookup.
		metadata := map[string]string{AmountMetadataKey: stripe.FormatAmount(amountCents)}
		if withInvoice {
			metadata[o.cfg.InvoiceMetadataKey] = invoiceID
		}
		params.SetupIntentData = &stripeapi.CheckoutSessionSetupIntentDataParams{
			Metadata: metadata,
		}
		for k, v := range metadata {
			params.AddMetadata(k, v)
		}
	default:
		name := o.cfg.ProductName
		if invoiceID != "" {
			name = "Invoice #" + invoiceID
		}
		params.LineItems = []*stripeapi.CheckoutSessionLineItemParams{{
			Quantity: stripeapi.Int64(1),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripeapi.String(o.cfg.Currency),
				UnitAmount: stripeapi.Int64(amountCents),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(name),
				},
			},
		}}
		params.PaymentIntentData = &stripeapi.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripeapi.String(string(stripeapi.PaymentIntentSetupFutureUsageOffSession)),
		}
		if withInvoice {
			params.PaymentIntentData.Metadata = map[string]string{o.cfg.InvoiceMetadataKey: invoiceID}
		}
	}
	return params
}

// CreateCheckoutSession validates the request, resolves the customer,
// selects the mode and creates the Checkout Session. No step is retried and
// the first failure aborts the operation.
func (o *Orchestrator) CreateCheckoutSession(ctx context.Context, req PaymentRequest) (*SessionResult, error) {
	if err := validatePaymentRequest(&req); err != nil {
		return nil, err
	}

	customer, err := o.ResolveCustomer(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	mode := ModePayment
	if o.cfg.SavedMethodReuse && customer.IsExisting {
		verified, err := collectMethods(o.ListVerifiedBankMethods(ctx, customer.ID))
		if err != nil {
			return nil, upstreamError(err, genericStripeMessage)
		}
		mode = o.SelectMode(customer.IsExisting, verified)
	}

	params := o.BuildSessionParams(mode, customer.ID, req.AmountCents, req.InvoiceID)
	sessionID, err := o.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		if stderrors.Is(err, stripe.ErrInvalidResponse) {
			return nil, errors.ErrStripeRequestFailed.WithMessage(genericInternalMessage)
		}
		return nil, upstreamError(err, genericStripeMessage)
	}

	sessionsCreated.WithLabelValues(string(mode)).Inc()
	log.Infow("checkout session created",
		"sessionID", sessionID,
		"customerID", customer.ID,
		"existingCustomer", customer.IsExisting,
		"mode", mode,
		"amount", req.AmountCents)
	return &SessionResult{SessionID: sessionID, Mode: mode, Customer: *customer}, nil
}

func (o *Orchestrator) successURL(mode Mode, amountCents int64, invoiceID string) string {
	u := fmt.Sprintf("%s/success.html?session_id=%s&mode=%s&amount=%d",
		o.cfg.ClientOrigin, checkoutSessionPlaceholder, mode, amountCents)
	if o.cfg.InvoiceMetadata && invoiceID != "" {
		u += "&invoice=" + url.QueryEscape(invoiceID)
	}
	return u
}

func (o *Orchestrator) cancelURL(invoiceID string) string {
	u := o.cfg.ClientOrigin + "/cancel.html"
	if o.cfg.InvoiceMetadata && invoiceID != "" {
		u += "?invoice=" + url.QueryEscape(invoiceID)
	}
	return u
}

// collectMethods drains the sequence, stopping at the first error.
func collectMethods(seq iter.Seq2[SavedPaymentMethod, error]) ([]SavedPaymentMethod, error) {
	var methods []SavedPaymentMethod
	for m, err := range seq {
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func validatePaymentRequest(req *PaymentRequest) error {
	if req.AmountCents <= 0 {
		return errors.ErrInvalidAmount
	}
	email, err := validateEmail(req.Email)
	if err != nil {
		return err
	}
	req.Email = email
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)
	if req.InvoiceID != "" && !validator.ValidInvoiceID(req.InvoiceID) {
		return errors.ErrInvalidInvoiceID
	}
	return nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.ErrMissingEmail
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return "", errors.ErrEmailMalformed
	}
	return email, nil
}

// upstreamError maps a gateway failure to the error returned to the caller.
// Provider failures carry the provider message, or generic when it has none.
// Unusable provider responses carry generic. Anything else, a network
// failure for instance, is an internal error with its own message.
func upstreamError(err error, generic string) error {
	if msg, ok := stripe.ProviderMessage(err); ok {
		if msg == "" {
			msg = generic
		}
		return errors.ErrStripeRequestFailed.WithMessage(msg)
	}
	if stderrors.Is(err, stripe.ErrInvalidResponse) {
		return errors.ErrStripeRequestFailed.WithMessage(generic)
	}
	return errors.ErrGenericInternalServerError.WithMessage(err.Error())
}
