// Package errors provides the coded error type returned by the checkout flow
// and written by the HTTP handlers.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the caller's fault,
// and they return HTTP Status 400 or 404, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's or the payment provider's fault
// and they return HTTP Status 500.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap don't fill it, that code was used in the past and shouldn't be reused.
var (
	// Validation errors (400)
	ErrInvalidPaymentRequest = Error{Code: 40001, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid payment request"), LogLevel: "info"}
	ErrInvalidAmount         = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("amount must be a positive integer in cents"), LogLevel: "info"}
	ErrEmailMalformed        = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid email format"), LogLevel: "info"}
	ErrMissingEmail          = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("email is required"), LogLevel: "info"}
	ErrInvalidInvoiceID      = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid invoice id"), LogLevel: "info"}
	ErrMissingCustomerID     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("customerId is required"), LogLevel: "info"}
	ErrMissingPaymentMethod  = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("paymentMethodId is required"), LogLevel: "info"}
	ErrInvalidRequestData    = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid request data")}
	ErrInvalidWebhookEvent   = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid webhook event"), LogLevel: "warn"}

	// Not found errors (404)
	ErrNotFound = Error{Code: 40401, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("Not Found")}

	// Server and upstream errors (500)
	ErrMalformedBody              = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("malformed JSON body"), LogLevel: "error"}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("Internal server error"), LogLevel: "error"}
	ErrStripeRequestFailed        = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("Stripe error"), LogLevel: "error"}
	ErrDuplicateCheckFailed       = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("Failed to check invoice status"), LogLevel: "error"}
	ErrWebhookProcessingFailed    = Error{Code: 50005, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("stripe webhook failed"), LogLevel: "error"}
	ErrMarshalingServerJSONFailed = Error{Code: 50006, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("failed to process response"), LogLevel: "error"}
)
