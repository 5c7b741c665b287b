// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tipengine",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tipengine",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// TipsAttributed counts tip transactions posted, replays excluded.
	TipsAttributed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipengine",
		Name:      "tips_attributed_total",
		Help:      "Tip transactions attributed and posted to the ledger.",
	})

	// CentsPosted accumulates the gross tip amount attributed.
	CentsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipengine",
		Name:      "tip_cents_posted_total",
		Help:      "Gross tip cents posted through attribution.",
	})

	// ChargebacksProcessed counts chargebacks applied, replays excluded.
	ChargebacksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipengine",
		Name:      "chargebacks_processed_total",
		Help:      "Chargebacks that reversed a tip transaction.",
	})

	// BankedSharesCreated counts shares held back for off-duty employees.
	BankedSharesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipengine",
		Name:      "banked_shares_created_total",
		Help:      "Tip-out shares banked because the recipient was off duty.",
	})

	// BankedSharesCollected counts banked shares released into the ledger.
	BankedSharesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipengine",
		Name:      "banked_shares_collected_total",
		Help:      "Banked shares collected into the ledger.",
	})
)
