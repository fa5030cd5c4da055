package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsdash_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opsdash_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "opsdash_http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Outcome of task generation runs, partitioned by result
	taskGenerationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsdash_task_generation_runs_total",
			Help: "Total number of daily task generation runs",
		},
		[]string{"result"},
	)

	// Tasks written by the most recent generation run
	tasksGenerated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "opsdash_tasks_generated_last_run",
			Help: "Number of tasks created by the last generation run",
		},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordTaskGeneration tracks the outcome of a task generation run.
func RecordTaskGeneration(created int, err error) {
	if err != nil {
		taskGenerationRuns.WithLabelValues("error").Inc()
		return
	}
	taskGenerationRuns.WithLabelValues("success").Inc()
	tasksGenerated.Set(float64(created))
}
