package checkout

import (
	"strings"

	"github.com/vocdoni/stripe-checkout/stripe"
)

const (
	// DefaultInvoiceMetadataKey is the metadata key that carries invoice ids.
	DefaultInvoiceMetadataKey = "invoice_number"
	// DefaultCurrency is the currency of every line item and charge.
	DefaultCurrency = "usd"
	// DefaultProductName is the line item name when no invoice id is given.
	DefaultProductName = "Client Payment"
	// SavedChargeDescription is the description of off-session charges.
	SavedChargeDescription = "Client Payment via saved ACH method"
	// AmountMetadataKey carries the amount of a setup-mode session until the
	// saved method is charged.
	AmountMetadataKey = "amount"
)

// Config selects the behaviour of a deployment. Each flag corresponds to a
// capability that used to be a separate deployment variant.
type Config struct {
	// ClientOrigin is the origin of the checkout page. Success and cancel
	// URLs are built from it.
	ClientOrigin string
	// SavedMethodReuse enables the saved bank account flow: setup mode for
	// returning customers with a verified bank account and the saved-method
	// endpoints.
	SavedMethodReuse bool
	// InvoiceMetadata attaches invoice ids to the intents and the redirect URLs.
	InvoiceMetadata bool
	// InvoiceMetadataKey is the metadata key for invoice ids.
	InvoiceMetadataKey string
	// AllowCardFallback accepts cards and Link besides bank accounts.
	AllowCardFallback bool
	Currency          string
	ProductName       string
}

// withDefaults returns a copy of the config with empty fields set to their
// default values.
func (c Config) withDefaults() Config {
	c.ClientOrigin = strings.TrimSuffix(c.ClientOrigin, "/")
	if c.InvoiceMetadataKey == "" {
		c.InvoiceMetadataKey = DefaultInvoiceMetadataKey
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	c.Currency = strings.ToLower(c.Currency)
	if c.ProductName == "" {
		c.ProductName = DefaultProductName
	}
	return c
}

// PaymentMethodTypes returns the payment method types accepted at checkout.
func (c Config) PaymentMethodTypes() []string {
	if c.AllowCardFallback {
		return []string{stripe.PaymentMethodUSBankAccount, "card", "link"}
	}
	return []string{stripe.PaymentMethodUSBankAccount}
}
