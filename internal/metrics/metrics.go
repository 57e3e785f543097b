// Package metrics defines the Prometheus collectors exported by the
// gateway, grouped by pipeline stage the way the reference payments
// backend groups its counters by concern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the gateway registers. A single instance
// is constructed at startup and threaded through the components that
// report on it.
type Metrics struct {
	AdmissionRejected *prometheus.CounterVec
	RateLimitAllowed  prometheus.Counter
	RateLimitDenied   prometheus.Counter
	RateLimitFailOpen prometheus.Counter
	ClassifierHits    *prometheus.CounterVec
	ChallengeIssued   prometheus.Counter
	VerifyOutcome     *prometheus.CounterVec
	VerifyLatency     prometheus.Histogram
	ReplayRejected    prometheus.Counter
	CrawlLogSubmitted prometheus.Counter
	CrawlLogRetried   prometheus.Counter
	CrawlLogFailed    prometheus.Counter
	CrawlLogLatency   prometheus.Histogram
	ProxyStatus       *prometheus.CounterVec
}

// New registers every collector against reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AdmissionRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_admission_rejected_total",
			Help: "Requests rejected at the admission filter, by reason.",
		}, []string{"reason"}),
		RateLimitAllowed: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rate_limit_allowed_total",
			Help: "Requests allowed by the rate limiter.",
		}),
		RateLimitDenied: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter with 429.",
		}),
		RateLimitFailOpen: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rate_limit_fail_open_total",
			Help: "Requests allowed because the rate-limit KVS was unreachable.",
		}),
		ClassifierHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_classifier_total",
			Help: "Requests classified, by outcome (crawler|passthrough).",
		}, []string{"outcome"}),
		ChallengeIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_challenge_issued_total",
			Help: "402 payment challenges issued.",
		}),
		VerifyOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_verify_outcome_total",
			Help: "Payment verification outcomes, by ErrorKind (or \"ok\").",
		}, []string{"kind"}),
		VerifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_verify_latency_seconds",
			Help:    "Payment verification latency, including chain RPC round trips.",
			Buckets: prometheus.DefBuckets,
		}),
		ReplayRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_replay_rejected_total",
			Help: "Requests rejected because their transaction hash was already consumed.",
		}),
		CrawlLogSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_crawl_log_submitted_total",
			Help: "logCrawl transactions successfully submitted.",
		}),
		CrawlLogRetried: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_crawl_log_retried_total",
			Help: "logCrawl submission attempts that were retried after failure.",
		}),
		CrawlLogFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "gateway_crawl_log_failed_total",
			Help: "logCrawl jobs that exhausted all retries.",
		}),
		CrawlLogLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_crawl_log_latency_seconds",
			Help:    "Time from the start of a job's first submission attempt to successful chain submission, including retries.",
			Buckets: prometheus.DefBuckets,
		}),
		ProxyStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_proxy_status_total",
			Help: "Origin proxy responses, by status class.",
		}, []string{"class"}),
	}
}
