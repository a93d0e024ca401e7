package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "sessions_created_total",
		Help:      "Checkout Sessions created by mode",
	}, []string{"mode"})

	savedCharges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "saved_method_charges_total",
		Help:      "Off-session charges of saved bank accounts by source and outcome",
	}, []string{"source", "outcome"})

	duplicateChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "invoice_duplicate_checks_total",
		Help:      "Duplicate invoice checks by result",
	}, []string{"result"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "webhook_events_total",
		Help:      "Stripe webhook events by outcome",
	}, []string{"outcome"})
)
