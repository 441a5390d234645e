package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal. A nil *Metrics is
// valid and records nothing, so services can run without a registry in tests.
type Metrics struct {
	LoginAttempts       *prometheus.CounterVec
	AuthzDenials        *prometheus.CounterVec
	RegistrationEvents  *prometheus.CounterVec
	AuditWrites         *prometheus.CounterVec
	AuditWriteFailures  prometheus.Counter
	AuditForwardFailure prometheus.Counter
	ApproveDuration     prometheus.Histogram
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		AuthzDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_authz_denials_total",
			Help: "Authorization denials by reason",
		}, []string{"reason"}),
		RegistrationEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_registration_events_total",
			Help: "Registration workflow transitions by event",
		}, []string{"event"}),
		AuditWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_audit_writes_total",
			Help: "Audit records stored, by action",
		}, []string{"action"}),
		AuditWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "govportal_audit_write_failures_total",
			Help: "Audit records that fell back to the process log",
		}),
		AuditForwardFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "govportal_audit_forward_failures_total",
			Help: "Audit records that could not be forwarded to the stream",
		}),
		ApproveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "govportal_registration_approve_duration_seconds",
			Help:    "Duration of the approval transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncLogin(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncDenial(reason string) {
	if m != nil {
		m.AuthzDenials.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncRegistration(event string) {
	if m != nil {
		m.RegistrationEvents.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) IncAuditWrite(action string) {
	if m != nil {
		m.AuditWrites.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncAuditFallback() {
	if m != nil {
		m.AuditWriteFailures.Inc()
	}
}

func (m *Metrics) IncAuditForwardFailure() {
	if m != nil {
		m.AuditForwardFailure.Inc()
	}
}

// ObserveApprove records the duration of an approval.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApprove(start time.Time) {
	if m != nil {
		m.ApproveDuration.Observe(time.Since(start).Seconds())
	}
}
