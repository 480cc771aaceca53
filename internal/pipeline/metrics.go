package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRequests tracks the number of relay requests dispatched.
	TotalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_relay_requests_total",
		Help: "The total number of relay fetch requests sent.",
	})
	// TotalRequestErrors tracks relay requests that resulted in an error.
	TotalRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_relay_request_errors_total",
		Help: "The total number of failed relay fetch requests.",
	})
	// TotalLeadsCreated tracks leads persisted for the first time.
	TotalLeadsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_created_total",
		Help: "The total number of new leads written to the store.",
	})
	// TotalDuplicates tracks insert attempts skipped by the dedup key.
	TotalDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_duplicates_total",
		Help: "The total number of re-observed listings skipped as duplicates.",
	})
	// TotalExtractionFailures tracks pages whose embedded data was missing
	// or malformed.
	TotalExtractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_extraction_failures_total",
		Help: "The total number of pages that failed embedded-data extraction.",
	})
	// TotalPhoneFailures tracks listings whose phone reveal exhausted its
	// retry budget.
	TotalPhoneFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leads_phone_reveal_failures_total",
		Help: "The total number of listings left without a phone number.",
	})
)
