package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// Registry holds every metric the service exposes on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; the build information lives in its labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// BookingsTotal counts booking attempts by outcome (created, duplicate, event_not_found).
var BookingsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Total number of booking attempts by outcome",
	},
	[]string{"outcome"},
)

var UsersRegisteredTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user registrations",
	},
)

// ConfirmationEmailsTotal counts booking confirmation deliveries by result (sent, error).
var ConfirmationEmailsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_emails_total",
		Help:      "Total number of booking confirmation emails by result",
	},
	[]string{"result"},
)

var initOnce sync.Once

// Init registers the runtime collectors and publishes build information.
// Calling it more than once only updates AppInfo.
func Init(version, commit, buildDate string) {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

// RecordBooking is wired into the bookings service as its outcome observer.
func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordSignup is wired into the users service as its signup hook.
func RecordSignup() {
	UsersRegisteredTotal.Inc()
}
