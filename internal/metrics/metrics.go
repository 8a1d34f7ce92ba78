// Package metrics declares the Prometheus collectors shared by the API and
// the worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voyago_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_bookings_created_total",
		Help: "Bookings created, by channel",
	}, []string{"channel"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_events_published_total",
		Help: "Booking events handed to the broker",
	}, []string{"outcome"})

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_events_consumed_total",
		Help: "Booking events handled by the worker",
	}, []string{"outcome"})

	PushNotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyago_push_notifications_total",
		Help: "Push notifications delivered to admin devices",
	})

	CompletedBookingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyago_bookings_auto_completed_total",
		Help: "Confirmed bookings closed by the background job",
	})
)

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
