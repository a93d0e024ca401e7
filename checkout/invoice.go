package checkout

import (
	"context"
	"strings"

	"github.com/vocdoni/stripe-checkout/errors"
	"github.com/vocdoni/stripe-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

// CheckDuplicateInvoice reports whether the invoice already has a payment
// intent that succeeded or is still processing. A failed search never
// exposes the provider message.
func (o *Orchestrator) CheckDuplicateInvoice(ctx context.Context, invoiceID string) (bool, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" || !validator.ValidInvoiceID(invoiceID) {
		return false, errors.ErrInvalidInvoiceID
	}

	statuses, err := o.gateway.PaymentIntentStatuses(ctx, o.cfg.InvoiceMetadataKey, invoiceID)
	if err != nil {
		log.Warnw("invoice duplicate check failed", "invoiceID", invoiceID, "error", err)
		return false, errors.ErrDuplicateCheckFailed
	}
	for _, status := range statuses {
		if status == "succeeded" || status == "processing" {
			duplicateChecks.WithLabelValues("duplicate").Inc()
			return true, nil
		}
	}
	duplicateChecks.WithLabelValues("unique").Inc()
	return false, nil
}
