package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adoptly"

var (
	// AdoptionTransitions counts adoption requests entering a status.
	// Labels: status (pending, approved, rejected)
	AdoptionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "adoptions",
		Name:      "transitions_total",
		Help:      "Adoption requests that entered a status",
	}, []string{"status"})

	// AdoptionConflicts counts rejected approval and rejection attempts.
	// Labels: reason (pet_unavailable, invalid_transition)
	AdoptionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "adoptions",
		Name:      "conflicts_total",
		Help:      "Adoption transitions refused because of a conflicting state",
	}, []string{"reason"})

	// EventsPublished counts domain events handed to the broker.
	// Labels: type, result (ok, error)
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events published to the message broker",
	}, []string{"type", "result"})

	// MessagesRateLimited counts contact-form submissions refused with 429.
	MessagesRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "messages",
		Name:      "rate_limited_total",
		Help:      "Contact messages refused by the per-client rate limiter",
	})

	// EventsConsumed counts deliveries handled by the worker.
	// Labels: result (ack, retry, redelivery_failed)
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Broker deliveries processed by the notification worker",
	}, []string{"result"})

	// ImageOperations counts object storage calls for pet and profile images.
	// Labels: op (put, get, delete), result (ok, missing, error)
	ImageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "operations_total",
		Help:      "Object storage operations on stored images",
	}, []string{"op", "result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
