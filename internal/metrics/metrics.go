// Package metrics collects and exposes Prometheus counters for the
// portal's auth and request flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the portal's counters. Handlers record through it
// so tests can swap a fresh registry per case.
type Collector struct {
	signIns        *prometheus.CounterVec
	refreshes      prometheus.Counter
	submissions    *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	signedURLs     prometheus.Counter
	sessionExpires prometheus.Counter
}

// NewCollector registers the portal counters on reg and returns the
// collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_sign_ins_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_token_refreshes_total",
			Help: "Access-token refreshes issued.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_request_submissions_total",
			Help: "Design request submissions by category.",
		}, []string{"type"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_request_status_changes_total",
			Help: "Request lifecycle transitions by target status.",
		}, []string{"status"}),
		signedURLs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_signed_urls_total",
			Help: "Signed storage URLs issued.",
		}),
		sessionExpires: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_session_expirations_total",
			Help: "Refresh attempts rejected for an expired or revoked session.",
		}),
	}
	reg.MustRegister(c.signIns, c.refreshes, c.submissions, c.statusChanges, c.signedURLs, c.sessionExpires)
	return c
}

func (c *Collector) RecordSignIn(outcome string) { c.signIns.WithLabelValues(outcome).Inc() }
func (c *Collector) RecordRefresh()              { c.refreshes.Inc() }
func (c *Collector) RecordSubmission(reqType string) {
	c.submissions.WithLabelValues(reqType).Inc()
}
func (c *Collector) RecordStatusChange(status string) {
	c.statusChanges.WithLabelValues(status).Inc()
}
func (c *Collector) RecordSignedURL()      { c.signedURLs.Inc() }
func (c *Collector) RecordSessionExpired() { c.sessionExpires.Inc() }

// Handler returns the /metrics handler for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
