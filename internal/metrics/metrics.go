// Package metrics exposes the prometheus collectors used across the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SMSRecipients = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "church",
		Name:      "sms_recipients_total",
		Help:      "SMS recipients attempted, by provider and outcome.",
	}, []string{"provider", "status"})

	SMSBroadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "church",
		Name:      "sms_broadcasts_total",
		Help:      "Broadcast requests that reached the provider, by provider and result.",
	}, []string{"provider", "result"})

	SMSDispatchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "church",
		Name:      "sms_dispatch_seconds",
		Help:      "Time spent in the provider adapter per broadcast.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "church",
		Name:      "audit_failures_total",
		Help:      "Audit entries that could not be written or were dropped.",
	})
)

// NewServer returns the private scrape listener. It is kept off the public
// router so it sits outside auth and rate limiting.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
