package validator

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxInvoiceIDLength bounds invoice ids, which travel as Stripe metadata
// values and inside redirect URLs.
const MaxInvoiceIDLength = 100

// stripeIDRegex matches Stripe object identifiers such as cus_123 or pm_1Abc.
var stripeIDRegex = regexp.MustCompile(`^[a-z]+_[A-Za-z0-9_]+$`)

// Validator is a wrapper around the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("stripeid", validateStripeID)
	_ = v.RegisterValidation("invoiceid", validateInvoiceID)

	return &Validator{
		validator: v,
	}
}

// Validate validates a struct using the validator package.
func (v *Validator) Validate(s any) error {
	return v.validator.Struct(s)
}

// validateStripeID validates a Stripe object identifier.
func validateStripeID(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return stripeIDRegex.MatchString(fl.Field().String())
}

// validateInvoiceID validates an invoice id field.
func validateInvoiceID(fl validator.FieldLevel) bool {
	return ValidInvoiceID(fl.Field().String())
}

// ValidInvoiceID reports whether id is at most MaxInvoiceIDLength bytes of
// printable characters.
func ValidInvoiceID(id string) bool {
	if len(id) > MaxInvoiceIDLength {
		return false
	}
	for _, r := range id {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
