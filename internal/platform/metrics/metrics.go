package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the domain services bump. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	PropertiesCreated     prometheus.Counter
	PropertiesDeleted     prometheus.Counter
	TenantsAdded          prometheus.Counter
	TenantsRemoved        prometheus.Counter
	InvitationTransitions *prometheus.CounterVec
	Registrations         *prometheus.CounterVec
	RegistrationRejected  *prometheus.CounterVec
	LockWaitSeconds       prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PropertiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "water_properties_created_total",
			Help: "Properties created.",
		}),
		PropertiesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "water_properties_deleted_total",
			Help: "Properties deleted.",
		}),
		TenantsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "water_tenants_added_total",
			Help: "Tenant codes allocated.",
		}),
		TenantsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "water_tenants_removed_total",
			Help: "Tenant codes reclaimed.",
		}),
		InvitationTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "water_invitation_transitions_total",
			Help: "Invitation guest status changes by target status.",
		}, []string{"status"}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "water_registrations_total",
			Help: "Water registrations accepted by slot.",
		}, []string{"slot"}),
		RegistrationRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "water_registrations_rejected_total",
			Help: "Water registrations rejected by reason.",
		}, []string{"reason"}),
		LockWaitSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "water_root_lock_wait_seconds",
			Help:    "Time spent waiting for a per-root allocation lock.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (m *Metrics) PropertyCreated() {
	if m == nil {
		return
	}
	m.PropertiesCreated.Inc()
}

func (m *Metrics) PropertyDeleted() {
	if m == nil {
		return
	}
	m.PropertiesDeleted.Inc()
}

func (m *Metrics) TenantAdded() {
	if m == nil {
		return
	}
	m.TenantsAdded.Inc()
}

func (m *Metrics) TenantRemoved() {
	if m == nil {
		return
	}
	m.TenantsRemoved.Inc()
}

func (m *Metrics) InvitationTransition(status string) {
	if m == nil {
		return
	}
	m.InvitationTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Registration(slot int) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(strconv.Itoa(slot)).Inc()
}

func (m *Metrics) RegistrationRejection(reason string) {
	if m == nil {
		return
	}
	m.RegistrationRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.LockWaitSeconds.Observe(seconds)
}
