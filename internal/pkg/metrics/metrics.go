package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loanengine"

var (
	// Registry holds every collector of this service
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	LoanTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loan_transitions_total",
		Help:      "Applied loan lifecycle events.",
	}, []string{"event"})

	EligibilityRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eligibility_rejections_total",
		Help:      "Loan requests blocked by an eligibility rule.",
	}, []string{"reason"})

	RepaymentsPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "repayments_posted_total",
		Help:      "Accepted repayment postings.",
	})

	RepaymentAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "repayment_amount_total",
		Help:      "Sum of accepted repayment amounts.",
	})

	OverdueInstallments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overdue_installments",
		Help:      "Overdue installments found by the last reminder run.",
	})

	PublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Loan events that could not be published.",
	}, []string{"event"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		LoanTransitions,
		EligibilityRejections,
		RepaymentsPosted,
		RepaymentAmount,
		OverdueInstallments,
		PublishFailures,
	)
}

// Handler exposes the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
