package checkout

import (
	"context"
	"strings"

	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/stripe"
	"github.com/vocdoni/stripe-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

// CheckSavedMethods looks up the customer of email and its verified bank
// accounts. Customers are never created here: an unknown email reports
// NewCustomer.
func (o *Orchestrator) CheckSavedMethods(ctx context.Context, email string, amountCents int64) (*SavedMethods, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if amountCents <= 0 {
		return nil, errors.ErrInvalidAmount
	}

	customerID, found, err := o.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, upstreamError(err, genericStripeMessage)
	}
	if !found {
		return &SavedMethods{Status: NewCustomer}, nil
	}

	methods, err := collectMethods(o.ListVerifiedBankMethods(ctx, customerID))
	if err != nil {
		return nil, upstreamError(err, genericStripeMessage)
	}
	if len(methods) == 0 {
		return &SavedMethods{Status: NoSaved, CustomerID: customerID}, nil
	}
	return &SavedMethods{Status: SavedFound, CustomerID: customerID, Methods: methods}, nil
}

// CreateCustomer resolves the customer of email, creating it when needed.
// With saved-method reuse enabled the verified bank accounts of an existing
// customer are returned too.
func (o *Orchestrator) CreateCustomer(ctx context.Context, email string) (*CustomerRef, []SavedPaymentMethod, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, nil, err
	}
	customer, err := o.ResolveCustomer(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if !o.cfg.SavedMethodReuse || !customer.IsExisting {
		return customer, nil, nil
	}
	methods, err := collectMethods(o.ListVerifiedBankMethods(ctx, customer.ID))
	if err != nil {
		return nil, nil, upstreamError(err, genericStripeMessage)
	}
	return customer, methods, nil
}

// CreateSetupIntent creates an off-session SetupIntent for the customer and
// returns its client secret.
func (o *Orchestrator) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return "", errors.ErrMissingCustomerID
	}
	secret, err := o.gateway.CreateSetupIntent(ctx, customerID, o.cfg.PaymentMethodTypes())
	if err != nil {
		return "", upstreamError(err, genericStripeMessage)
	}
	return secret, nil
}

// ChargeSavedMethod charges a saved bank account off-session.
func (o *Orchestrator) ChargeSavedMethod(ctx context.Context, charge SavedCharge) (*ChargeResult, error) {
	return o.chargeSavedMethod(ctx, charge, "", "endpoint")
}

func (o *Orchestrator) chargeSavedMethod(ctx context.Context, charge SavedCharge,
	idempotencyKey, source string,
) (*ChargeResult, error) {
	if strings.TrimSpace(charge.CustomerID) == "" {
		return nil, errors.ErrMissingCustomerID
	}
	if strings.TrimSpace(charge.PaymentMethodID) == "" {
		return nil, errors.ErrMissingPaymentMethod
	}
	if charge.AmountCents <= 0 {
		return nil, errors.ErrInvalidAmount
	}
	if charge.InvoiceID != "" && !validator.ValidInvoiceID(charge.InvoiceID) {
		return nil, errors.ErrInvalidInvoiceID
	}

	req := &stripe.Charge{
		CustomerID:      charge.CustomerID,
		PaymentMethodID: charge.PaymentMethodID,
		AmountCents:     charge.AmountCents,
		Currency:        o.cfg.Currency,
		Description:     SavedChargeDescription,
		IdempotencyKey:  idempotencyKey,
	}
	if o.cfg.InvoiceMetadata && charge.InvoiceID != "" {
		req.Metadata = map[string]string{o.cfg.InvoiceMetadataKey: charge.InvoiceID}
	}
	res, err := o.gateway.ChargeSavedMethod(ctx, req)
	if err != nil {
		savedCharges.WithLabelValues(source, "error").Inc()
		return nil, upstreamError(err, savedPaymentMessage)
	}
	savedCharges.WithLabelValues(source, "ok").Inc()
	log.Debugw("saved method charged", "paymentIntentID", res.ID, "status", res.Status, "source", source)
	return &ChargeResult{PaymentIntentID: res.ID, Status: res.Status}, nil
}
