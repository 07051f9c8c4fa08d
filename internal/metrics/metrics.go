package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "depremkit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	itemMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_mutations_total",
			Help:      "Successful kit writes by action.",
		},
		[]string{"action"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by result.",
		},
		[]string{"result"},
	)

	pendingNotifications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_pending",
			Help:      "Notifications accepted by the scheduler and not yet fired.",
		},
	)

	kitItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kit_items",
			Help:      "Kit items by freshness status at the last refresh.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, itemMutations, notifications, pendingNotifications, kitItems)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncItemMutation counts a successful write to the kit.
func IncItemMutation(action string) {
	itemMutations.WithLabelValues(action).Inc()
}

// IncNotification counts a delivery attempt outcome ("delivered" or "failed").
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

// SetPendingNotifications sets the number of armed notifications.
func SetPendingNotifications(n int) {
	pendingNotifications.Set(float64(n))
}

// SetKitStatus records the item counts computed by the last refresh.
func SetKitStatus(total, expired, expiring int) {
	kitItems.WithLabelValues("total").Set(float64(total))
	kitItems.WithLabelValues("expired").Set(float64(expired))
	kitItems.WithLabelValues("expiring").Set(float64(expiring))
}
