package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	emailQuery    = regexp.MustCompile(`^email:'((?:[^'\\]|\\.)*)'$`)
	metadataQuery = regexp.MustCompile(`^metadata\['((?:[^'\\]|\\.)*)'\]:'((?:[^'\\]|\\.)*)'$`)
)

// FakeRequest is a request received by FakeStripe.
type FakeRequest struct {
	Method string
	Path   string
	Form   url.Values
}

// FakeBankAccount is a us_bank_account payment method stored in FakeStripe.
type FakeBankAccount struct {
	ID       string
	BankName string
	Last4    string
	Status   string
}

// FakePaymentIntent is a payment intent stored in FakeStripe.
type FakePaymentIntent struct {
	ID       string
	Status   string
	Metadata map[string]string
}

// FakeSetupIntent is a setup intent stored in FakeStripe.
type FakeSetupIntent struct {
	ID            string
	CustomerID    string
	PaymentMethod string
	Metadata      map[string]string
}

// FakeError is a Stripe API error returned for every request to a path.
type FakeError struct {
	Status  int
	Message string
}

// FakeStripe is an in-process stand-in for the subset of the Stripe REST API
// used by the checkout service. Every request is recorded.
type FakeStripe struct {
	Server *httptest.Server

	mu             sync.Mutex
	requests       []FakeRequest
	customers      map[string]string
	bankAccounts   map[string][]FakeBankAccount
	paymentIntents []FakePaymentIntent
	setupIntents   map[string]FakeSetupIntent
	failures       map[string]FakeError
	omitCustomerID bool
	seq            int
}

// NewFakeStripe starts a FakeStripe server. Close it with Server.Close.
func NewFakeStripe() *FakeStripe {
	f := &FakeStripe{
		customers:    map[string]string{},
		bankAccounts: map[string][]FakeBankAccount{},
		setupIntents: map[string]FakeSetupIntent{},
		failures:     map[string]FakeError{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeStripe) URL() string { return f.Server.URL }

// Close stops the server.
func (f *FakeStripe) Close() { f.Server.Close() }

// AddCustomer registers a customer with the given email.
func (f *FakeStripe) AddCustomer(id, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[email] = id
}

// AddBankAccount attaches a bank account to a customer.
func (f *FakeStripe) AddBankAccount(customerID string, account FakeBankAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bankAccounts[customerID] = append(f.bankAccounts[customerID], account)
}

// AddPaymentIntent stores a payment intent returned by searches.
func (f *FakeStripe) AddPaymentIntent(pi FakePaymentIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paymentIntents = append(f.paymentIntents, pi)
}

// AddSetupIntent stores a setup intent returned by retrievals.
func (f *FakeStripe) AddSetupIntent(si FakeSetupIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupIntents[si.ID] = si
}

// Fail makes every request to path answer with the given error.
func (f *FakeStripe) Fail(path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = FakeError{Status: status, Message: message}
}

// OmitCustomerID makes customer creation answer without an id.
func (f *FakeStripe) OmitCustomerID() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitCustomerID = true
}

// Requests returns the recorded requests matching method and path.
func (f *FakeStripe) Requests(method, path string) []FakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []FakeRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// RequestCount returns the number of requests received.
func (f *FakeStripe) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *FakeStripe) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_test_%d", prefix, f.seq)
}

func (f *FakeStripe) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeFakeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, FakeRequest{Method: r.Method, Path: r.URL.Path, Form: r.Form})

	if fail, ok := f.failures[r.URL.Path]; ok {
		writeFakeError(w, fail.Status, fail.Message)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/customers/search":
		f.searchCustomers(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
		f.createCustomer(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_methods":
		f.listPaymentMethods(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
		writeFakeJSON(w, map[string]any{"id": f.nextID("cs"), "object": "checkout.session"})
	case r.Method == http.MethodPost && r.URL.Path == "/v1/setup_intents":
		id := f.nextID("seti")
		writeFakeJSON(w, map[string]any{"id": id, "object": "setup_intent", "client_secret": id + "_secret_fake"})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/setup_intents/"):
		f.getSetupIntent(w, strings.TrimPrefix(r.URL.Path, "/v1/setup_intents/"))
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
		writeFakeJSON(w, map[string]any{"id": f.nextID("pi"), "object": "payment_intent", "status": "processing"})
	case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_intents/search":
		f.searchPaymentIntents(w, r)
	default:
		writeFakeError(w, http.StatusNotFound, "Unrecognized request URL")
	}
}

func (f *FakeStripe) searchCustomers(w http.ResponseWriter, r *http.Request) {
	data := []any{}
	if m := emailQuery.FindStringSubmatch(r.Form.Get("query")); m != nil {
		if id, ok := f.customers[unescapeQuery(m[1])]; ok {
			data = append(data, map[string]any{"id": id, "object": "customer"})
		}
	}
	writeFakeJSON(w, searchResult("/v1/customers/search", data))
}

func (f *FakeStripe) createCustomer(w http.ResponseWriter, r *http.Request) {
	if f.omitCustomerID {
		writeFakeJSON(w, map[string]any{"object": "customer"})
		return
	}
	id := f.nextID("cus")
	f.customers[r.Form.Get("email")] = id
	writeFakeJSON(w, map[string]any{"id": id, "object": "customer", "email": r.Form.Get("email")})
}

func (f *FakeStripe) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	data := []any{}
	for _, acc := range f.bankAccounts[r.Form.Get("customer")] {
		data = append(data, map[string]any{
			"id":     acc.ID,
			"object": "payment_method",
			"type":   "us_bank_account",
			"us_bank_account": map[string]any{
				"bank_name": acc.BankName,
				"last4":     acc.Last4,
				"status":    acc.Status,
			},
		})
	}
	writeFakeJSON(w, map[string]any{"object": "list", "url": "/v1/payment_methods", "has_more": false, "data": data})
}

func (f *FakeStripe) getSetupIntent(w http.ResponseWriter, id string) {
	si, ok := f.setupIntents[id]
	if !ok {
		writeFakeError(w, http.StatusNotFound, fmt.Sprintf("No such setupintent: '%s'", id))
		return
	}
	writeFakeJSON(w, map[string]any{
		"id":             si.ID,
		"object":         "setup_intent",
		"customer":       si.CustomerID,
		"payment_method": si.PaymentMethod,
		"metadata":       si.Metadata,
		"status":         "succeeded",
	})
}

func (f *FakeStripe) searchPaymentIntents(w http.ResponseWriter, r *http.Request) {
	data := []any{}
	if m := metadataQuery.FindStringSubmatch(r.Form.Get("query")); m != nil {
		key, value := unescapeQuery(m[1]), unescapeQuery(m[2])
		for _, pi := range f.paymentIntents {
			if pi.Metadata[key] == value {
				data = append(data, map[string]any{
					"id": pi.ID, "object": "payment_intent", "status": pi.Status, "metadata": pi.Metadata,
				})
			}
		}
	}
	writeFakeJSON(w, searchResult("/v1/payment_intents/search", data))
}

func searchResult(path string, data []any) map[string]any {
	return map[string]any{"object": "search_result", "url": path, "has_more": false, "data": data}
}

func unescapeQuery(v string) string {
	return strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(v)
}

func writeFakeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeFakeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message, "type": "invalid_request_error"},
	})
}
