package apicommon

//revive:disable:max-public-structs

import "github.com/vocdoni/stripe-checkout/checkout"

// CheckoutSessionRequest is the body of a checkout session creation.
type CheckoutSessionRequest struct {
	// Amount to charge, in cents
	Amount int64 `json:"amount" validate:"required,gt=0"`
	// Email of the paying customer
	Email string `json:"email" validate:"required,email"`
	// Optional invoice the payment settles
	InvoiceID string `json:"invoiceId,omitempty" validate:"omitempty,invoiceid"`
}

// CheckoutSessionResponse carries the id of the created Checkout Session,
// used by the browser to redirect to Stripe Checkout.
type CheckoutSessionResponse struct {
	ID string `json:"id"`
}

// CustomerRequest identifies a customer by email.
type CustomerRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CustomerResponse is the customer resolved for an email. PaymentMethods
// lists its verified bank accounts when saved-method reuse is enabled.
type CustomerResponse struct {
	CustomerID     string            `json:"customerId"`
	PaymentMethods []SavedMethodInfo `json:"paymentMethods,omitempty"`
}

// SetupIntentRequest is the body of a setup intent creation.
type SetupIntentRequest struct {
	CustomerID string `json:"customerId" validate:"required,stripeid"`
}

// SetupIntentResponse carries the client secret used by Stripe.js to
// collect the bank account.
type SetupIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// SavedChargeRequest is an off-session charge of a saved payment method.
type SavedChargeRequest struct {
	CustomerID      string `json:"customerId" validate:"required,stripeid"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required,stripeid"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	InvoiceID       string `json:"invoiceId,omitempty" validate:"omitempty,invoiceid"`
}

// ChargeResponse is returned by the charge endpoint.
type ChargeResponse struct {
	Success         bool   `json:"success"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// SavedPaymentResponse is returned by the process saved payment endpoint.
type SavedPaymentResponse struct {
	Status          string `json:"status"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// DuplicateInvoiceRequest asks whether an invoice was already paid.
type DuplicateInvoiceRequest struct {
	InvoiceID string `json:"invoiceId" validate:"required,invoiceid"`
}

// DuplicateInvoiceResponse reports whether the invoice has a payment that
// succeeded or is processing.
type DuplicateInvoiceResponse struct {
	IsDuplicate bool `json:"isDuplicate"`
}

// SavedMethodsRequest asks for the saved bank accounts of a customer.
type SavedMethodsRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

// SavedMethodInfo is a verified bank account as shown to the customer.
type SavedMethodInfo struct {
	ID       string `json:"id"`
	BankName string `json:"bank_name"`
	Last4    string `json:"last4"`
	Display  string `json:"display"`
}

// SavedMethodsResponse is one of SAVED_FOUND (with customerId and
// savedMethods), NO_SAVED (with customerId) or NEW_CUSTOMER.
type SavedMethodsResponse struct {
	Status       string            `json:"status"`
	CustomerID   string            `json:"customerId,omitempty"`
	SavedMethods []SavedMethodInfo `json:"savedMethods,omitempty"`
}

// SavedMethodsInfo converts saved payment methods to their API representation.
func SavedMethodsInfo(methods []checkout.SavedPaymentMethod) []SavedMethodInfo {
	if len(methods) == 0 {
		return nil
	}
	out := make([]SavedMethodInfo, 0, len(methods))
	for _, m := range methods {
		out = append(out, SavedMethodInfo{
			ID:       m.ID,
			BankName: m.BankName,
			Last4:    m.Last4,
			Display:  m.Display(),
		})
	}
	return out
}
