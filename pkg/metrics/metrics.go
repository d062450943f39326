package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreErrCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "store",
		Name:      "err_count",
	}, []string{"method"})
	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetbot",
		Subsystem: "store",
		Name:      "duration_seconds",
	}, []string{"method"})
	MeetingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "scheduling",
		Name:      "meetings_created_total",
	})
	MeetingsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "scheduling",
		Name:      "meetings_deleted_total",
	}, []string{"reason"})
	AvailabilityConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "scheduling",
		Name:      "availability_conflicts_total",
	})
	SweepErrCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "retention",
		Name:      "sweep_err_count",
	})
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetbot",
		Subsystem: "notifications",
		Name:      "delivered_total",
	}, []string{"status"})
)
