// Package api provides the HTTP API of the Stripe checkout service
//
//	@title			Stripe Checkout API
//	@version		1.0
//	@description	Checkout orchestration for ACH bank transfer payments through Stripe
//
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
//
//	@tag.name		checkout
//	@tag.description	Checkout session and customer operations
//
//	@tag.name		saved
//	@tag.description	Saved bank account operations
//
//	@tag.name		webhook
//	@tag.description	Stripe webhook deliveries
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vocdoni/stripe-checkout/checkout"
	"github.com/vocdoni/stripe-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

// Config holds the API server configuration.
type Config struct {
	Host string
	Port int
	// Checkout runs every operation exposed by the API
	Checkout *checkout.Orchestrator
	// AllowedOrigins are the origins allowed by CORS. Empty means any origin.
	AllowedOrigins []string
	// Webhooks enables the Stripe webhook endpoint. It requires the Stripe
	// client to be configured with a webhook secret.
	Webhooks bool
}

// API type represents the API HTTP server.
type API struct {
	host           string
	port           int
	router         *chi.Mux
	checkout       *checkout.Orchestrator
	validator      *validator.Validator
	allowedOrigins []string
	webhooks       bool
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil || conf.Checkout == nil {
		return nil
	}
	origins := conf.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	a := &API{
		host:           conf.Host,
		port:           conf.Port,
		checkout:       conf.Checkout,
		validator:      validator.New(),
		allowedOrigins: origins,
		webhooks:       conf.Webhooks,
	}
	a.router = a.initRouter()
	return a
}

// Router returns the HTTP handler of the API.
func (a *API) Router() http.Handler {
	return a.router
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() *chi.Mux {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:     a.allowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Stripe-Signature"},
		MaxAge:             300, // Maximum value not ignored by any of major browsers
		OptionsPassthrough: true,
	}).Handler)
	r.Use(a.defaultCORSHeaders)
	r.Use(preflight)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	cfg := a.checkout.Config()

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
			if _, err := w.Write([]byte(".")); err != nil {
				log.Warnw("failed to write ping response", "error", err)
			}
		})
		log.Infow("new route", "method", "GET", "path", metricsEndpoint)
		r.Handle(metricsEndpoint, promhttp.Handler())
	})

	// Checkout routes, JSON bodies validated against their models
	r.Group(func(r chi.Router) {
		r.Use(a.InputValidator)
		// create a checkout session
		a.post(r, createCheckoutSessionEndpoint, a.createCheckoutSessionHandler, checkoutSessionModel)
		// resolve or create a customer
		a.post(r, createCustomerEndpoint, a.createCustomerHandler, customerModel)
		// create a setup intent
		a.post(r, createSetupIntentEndpoint, a.createSetupIntentHandler, setupIntentModel)
		// check whether an invoice was already paid
		a.post(r, checkDuplicateInvoiceEndpoint, a.checkDuplicateInvoiceHandler, duplicateInvoiceModel)

		if cfg.SavedMethodReuse {
			// charge a saved bank account
			a.post(r, chargeEndpoint, a.chargeHandler, savedChargeModel)
			// charge a saved bank account, reporting the payment intent status
			a.post(r, processSavedPaymentEndpoint, a.processSavedPaymentHandler, savedChargeModel)
			// look up the saved bank accounts of a customer
			a.post(r, checkSavedMethodsEndpoint, a.checkSavedMethodsHandler, savedMethodsModel)
		}
	})

	if a.webhooks {
		// handle stripe webhook
		log.Infow("new route", "method", "POST", "path", webhookEndpoint)
		r.Post(webhookEndpoint, a.webhookHandler)
	}
	return r
}

// post registers a POST route whose JSON body is validated against model.
func (a *API) post(r chi.Router, path string, h http.HandlerFunc, model any) {
	log.Infow("new route", "method", "POST", "path", path)
	r.With(a.validateInputModel(model)).Post(path, h)
}
