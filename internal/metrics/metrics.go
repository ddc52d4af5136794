package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons recorded on RegistrationRejections.
const (
	ReasonMissingField = "missing_field"
	ReasonInvalidField = "invalid_field"
	ReasonDuplicate    = "duplicate"
	ReasonUnverified   = "unverified"
)

// Metrics holds the Prometheus collectors for registrations and OTPs.
type Metrics struct {
	RegistrationsCreated   prometheus.Counter
	RegistrationRejections *prometheus.CounterVec
	NumberCollisions       prometheus.Counter
	OTPIssued              prometheus.Counter
	OTPVerifications       *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "udyam_registrations_created_total",
			Help: "Total number of registrations persisted",
		}),
		RegistrationRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_registration_rejections_total",
			Help: "Registration submissions rejected, by reason",
		}, []string{"reason"}),
		NumberCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "udyam_registration_number_collisions_total",
			Help: "Generated registration numbers that were already taken",
		}),
		OTPIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "udyam_otp_issued_total",
			Help: "One-time codes issued for Aadhaar verification",
		}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_otp_verifications_total",
			Help: "OTP verification attempts, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.RegistrationsCreated.Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.RegistrationRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementCollisions() {
	m.NumberCollisions.Inc()
}
