package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// View outcome labels.
const (
	OutcomeHit       = "hit"
	OutcomeNotFound  = "not_found"
	OutcomeExpired   = "expired"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

var (
	// PastesCreated counts successful paste creations.
	PastesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapbin_pastes_created_total",
		Help: "Number of pastes created.",
	})

	// PasteViews counts consume attempts by outcome.
	PasteViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapbin_paste_views_total",
		Help: "Number of paste view attempts by outcome.",
	}, []string{"outcome"})
)
