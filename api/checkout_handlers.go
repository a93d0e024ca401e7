package api

import (
	"net/http"

	"github.com/vocdoni/stripe-checkout/api/apicommon"
	"github.com/vocdoni/stripe-checkout/checkout"
	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/validator"
)

// createCheckoutSessionHandler godoc
//
//	@Summary		Create a Checkout Session
//	@Description	Resolve the Stripe customer of the email and create a Checkout Session for the amount. Returning
//	@Description	customers with a verified bank account get a setup-mode session when saved-method reuse is enabled.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.CheckoutSessionRequest	true	"Payment to collect"
//	@Success		200		{object}	apicommon.CheckoutSessionResponse
//	@Failure		400		{object}	errors.Error	"Invalid amount, email or invoice id"
//	@Failure		500		{object}	errors.Error	"Stripe or internal error"
//	@Router			/create-checkout-session [post]
func (a *API) createCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[apicommon.CheckoutSessionRequest](a.validator, w, r)
	if !ok {
		return
	}
	session, err := a.checkout.CreateCheckoutSession(r.Context(), checkout.PaymentRequest{
		AmountCents: req.Amount,
		Email:       req.Email,
		InvoiceID:   req.InvoiceID,
	})
	if err != nil {
		errors.From(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.CheckoutSessionResponse{ID: session.SessionID})
}

// createCustomerHandler godoc
//
//	@Summary		Find or create a customer
//	@Description	Return the Stripe customer of the email, creating it when none exists. With saved-method reuse
//	@Description	enabled, the verified bank accounts of an existing customer are listed too.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.CustomerRequest	true	"Customer email"
//	@Success		200		{object}	apicommon.CustomerResponse
//	@Failure		400		{object}	errors.Error	"Invalid email"
//	@Failure		500		{object}	errors.Error	"Stripe or internal error"
//	@Router			/create-customer [post]
func (a *API) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[apicommon.CustomerRequest](a.validator, w, r)
	if !ok {
		return
	}
	customer, methods, err := a.checkout.CreateCustomer(r.Context(), req.Email)
	if err != nil {
		errors.From(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.CustomerResponse{
		CustomerID:     customer.ID,
		PaymentMethods: apicommon.SavedMethodsInfo(methods),
	})
}

// createSetupIntentHandler godoc
//
//	@Summary		Create a SetupIntent
//	@Description	Create an off-session SetupIntent so Stripe.js can collect and verify a bank account.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.SetupIntentRequest	true	"Customer"
//	@Success		200		{object}	apicommon.SetupIntentResponse
//	@Failure		400		{object}	errors.Error	"Missing or invalid customer id"
//	@Failure		500		{object}	errors.Error	"Stripe or internal error"
//	@Router			/create-setup-intent [post]
func (a *API) createSetupIntentHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[apicommon.SetupIntentRequest](a.validator, w, r)
	if !ok {
		return
	}
	secret, err := a.checkout.CreateSetupIntent(r.Context(), req.CustomerID)
	if err != nil {
		errors.From(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.SetupIntentResponse{ClientSecret: secret})
}

// chargeHandler godoc
//
//	@Summary		Charge a saved bank account
//	@Description	Confirm an off-session payment intent against a saved bank account of the customer.
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.SavedChargeRequest	true	"Charge"
//	@Success		200		{object}	apicommon.ChargeResponse
//	@Failure		400		{object}	errors.Error	"Invalid charge"
//	@Failure		500		{object}	errors.Error	"Stripe or internal error"
//	@Router			/charge [post]
func (a *API) chargeHandler(w http.ResponseWriter, r *http.Request) {
	res, ok := a.chargeSaved(w, r)
	if !ok {
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.ChargeResponse{Success: true, PaymentIntentID: res.PaymentIntentID})
}

// processSavedPaymentHandler godoc
//
//	@Summary		Process a payment with a saved bank account
//	@Description	Same charge as /charge, reporting the status of the created payment intent. ACH payments
//	@Description	usually start as processing.
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.SavedChargeRequest	true	"Charge"
//	@Success		200		{object}	apicommon.SavedPaymentResponse
//	@Failure		400		{object}	errors.Error	"Invalid charge"
//	@Failure		500		{object}	errors.Error	"Stripe or internal error"
//	@Router			/process-saved-payment [post]
func (a *API) processSavedPaymentHandler(w http.ResponseWriter, r *http.Request) {
	res, ok := a.chargeSaved(w, r)
	if !ok {
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.SavedPaymentResponse{Status: res.Status, PaymentIntentID: res.PaymentIntentID})
}

func (a *API) chargeSaved(w http.ResponseWriter, r *http.Request) (*checkout.ChargeResult, bool) {
	req, ok := decodeRequest[apicommon.SavedChargeRequest](a.validator, w, r)
	if !ok {
		return nil, false
	}
	res, err := a.checkout.ChargeSavedMethod(r.Context(), checkout.SavedCharge{
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		AmountCents:     req.Amount,
		InvoiceID:       req.InvoiceID,
	})
	if err != nil {
		errors.From(err).Write(w)
		return nil, false
	}
	return res, true
}

// checkSavedMethodsHandler godoc
//
//	@Summary		Look up saved bank accounts
//	@Description	Report whether the email belongs to a customer with verified bank accounts. Returns one of
//	@Description	SAVED_FOUND, NO_SAVED or NEW_CUSTOMER. Customers are never created by this endpoint.
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.SavedMethodsRequest	true	"Customer email and amount"
//	@Success		200		{object}	apicommon.SavedMethodsResponse
//	@Failure		400		{object}	errors.Error	"Invalid email or amount"
//	@Failure		500		{object}	errors.Error	"Stripe or internal error"
//	@Router			/check-saved-methods [post]
func (a *API) checkSavedMethodsHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[apicommon.SavedMethodsRequest](a.validator, w, r)
	if !ok {
		return
	}
	saved, err := a.checkout.CheckSavedMethods(r.Context(), req.Email, req.Amount)
	if err != nil {
		errors.From(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.SavedMethodsResponse{
		Status:       string(saved.Status),
		CustomerID:   saved.CustomerID,
		SavedMethods: apicommon.SavedMethodsInfo(saved.Methods),
	})
}

// checkDuplicateInvoiceHandler godoc
//
//	@Summary		Check for a duplicate invoice payment
//	@Description	Report whether a payment intent for the invoice already succeeded or is processing.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.DuplicateInvoiceRequest	true	"Invoice"
//	@Success		200		{object}	apicommon.DuplicateInvoiceResponse
//	@Failure		400		{object}	errors.Error	"Missing or invalid invoice id"
//	@Failure		500		{object}	errors.Error	"Failed to check invoice status"
//	@Router			/check-duplicate-invoice [post]
func (a *API) checkDuplicateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[apicommon.DuplicateInvoiceRequest](a.validator, w, r)
	if !ok {
		return
	}
	duplicate, err := a.checkout.CheckDuplicateInvoice(r.Context(), req.InvoiceID)
	if err != nil {
		errors.From(err).Write(w)
		return
	}
	apicommon.HTTPWriteJSON(w, &apicommon.DuplicateInvoiceResponse{IsDuplicate: duplicate})
}

// decodeRequest returns the request model validated by the InputValidator
// middleware. Requests the middleware skipped, such as those sent without a
// JSON content type, are decoded and validated here. On failure the error is
// written to w.
func decodeRequest[T any](v *validator.Validator, w http.ResponseWriter, r *http.Request) (*T, bool) {
	if model, ok := validator.GetValidatedModel(r.Context()); ok {
		if req, ok := model.(*T); ok {
			return req, true
		}
	}
	req := new(T)
	if err := apicommon.DecodeJSONBody(w, r, req); err != nil {
		errors.From(err).Write(w)
		return nil, false
	}
	if err := v.Validate(req); err != nil {
		errors.ErrInvalidRequestData.WithErr(err).Write(w)
		return nil, false
	}
	return req, true
}
