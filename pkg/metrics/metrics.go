package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "zedemy", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "zedemy", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PostsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "zedemy", Name: "posts_completed_total", Help: "Number of posts marked as completed."},
	)
	CertificatesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "zedemy", Name: "certificates_issued_total", Help: "Certificates issued, by outcome (created|existing)."},
		[]string{"outcome"},
	)
	MailJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "zedemy", Name: "mail_jobs_total", Help: "Mail jobs by kind and result (enqueued|sent|failed)."},
		[]string{"kind", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PostsCompleted)
	reg.MustRegister(CertificatesIssued)
	reg.MustRegister(MailJobs)
}
