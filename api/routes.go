package api

import "github.com/vocdoni/stripe-checkout/api/apicommon"

const (
	// health and metrics routes

	// GET /ping to check the service is alive
	pingEndpoint = "/ping"
	// GET /metrics to scrape the Prometheus metrics
	metricsEndpoint = "/metrics"

	// checkout routes

	// POST /create-checkout-session to create a Stripe Checkout Session
	createCheckoutSessionEndpoint = "/create-checkout-session"
	// POST /create-customer to find or create the customer of an email
	createCustomerEndpoint = "/create-customer"
	// POST /create-setup-intent to create a SetupIntent for a customer
	createSetupIntentEndpoint = "/create-setup-intent"
	// POST /check-duplicate-invoice to check whether an invoice was paid
	checkDuplicateInvoiceEndpoint = "/check-duplicate-invoice"

	// saved bank account routes, only with saved-method reuse enabled

	// POST /charge to charge a saved bank account
	chargeEndpoint = "/charge"
	// POST /process-saved-payment to charge a saved bank account
	processSavedPaymentEndpoint = "/process-saved-payment"
	// POST /check-saved-methods to list the saved bank accounts of an email
	checkSavedMethodsEndpoint = "/check-saved-methods"

	// webhook routes

	// POST /webhook to receive Stripe events
	webhookEndpoint = "/webhook"
)

// request models validated by the InputValidator middleware
var (
	checkoutSessionModel  = apicommon.CheckoutSessionRequest{}
	customerModel         = apicommon.CustomerRequest{}
	setupIntentModel      = apicommon.SetupIntentRequest{}
	duplicateInvoiceModel = apicommon.DuplicateInvoiceRequest{}
	savedChargeModel      = apicommon.SavedChargeRequest{}
	savedMethodsModel     = apicommon.SavedMethodsRequest{}
)
