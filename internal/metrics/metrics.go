// Package metrics exposes operational counters on the default Prometheus
// registry, served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SummariesGenerated counts successful summary generations.
	SummariesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_summaries_generated_total",
		Help: "Number of summaries generated successfully.",
	})

	// SummaryFailures counts failed completion-API calls.
	SummaryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_summary_failures_total",
		Help: "Number of summary generations that failed upstream.",
	})

	// MailsSent counts successful mail deliveries.
	MailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_mails_sent_total",
		Help: "Number of summary emails delivered.",
	})

	// MailFailures counts failed mail deliveries.
	MailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_mail_failures_total",
		Help: "Number of summary email deliveries that failed.",
	})
)
