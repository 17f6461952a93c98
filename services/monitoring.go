package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "sayan_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		},
		[]string{"endpoint", "method"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Stream Metrics
var (
	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_bytes_total",
			Help: "Total video bytes handed to clients",
		},
	)

	streamRequestsBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_requests_blocked_total",
			Help: "Stream requests refused by the guard",
		},
		[]string{"reason"},
	)

	streamRequestsLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_requests_limited_total",
			Help: "Stream requests rejected by the rate limiter",
		},
	)

	streamRequestsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_requests_active",
			Help: "Streams currently being served",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	server *fiber.App
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Start() error {
	portStr := os.Getenv("PROMETHEUS_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,
		streamBytesTotal,
		streamRequestsBlockedTotal,
		streamRequestsLimitedTotal,
		streamRequestsActive,
	)

	svc.register = reg

	svc.server = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	go func() {
		log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRequest records HTTP request metrics
func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

func (svc *MonitoringService) RecordStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

func (svc *MonitoringService) RecordStreamBlocked(reason string) {
	streamRequestsBlockedTotal.WithLabelValues(reason).Inc()
}

func (svc *MonitoringService) RecordStreamLimited() {
	streamRequestsLimitedTotal.Inc()
}

func (svc *MonitoringService) StreamStarted() {
	streamRequestsActive.Inc()
}

func (svc *MonitoringService) StreamFinished() {
	streamRequestsActive.Dec()
}

// MonitoringMiddleware records request metrics for every route except the
// metrics endpoint itself.
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		endpoint := c.Route().Path
		method := c.Method()

		httpRequestsActive.WithLabelValues(endpoint, method).Inc()
		defer httpRequestsActive.WithLabelValues(endpoint, method).Dec()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		monitoringSvc.RecordRequest(method, endpoint, status, time.Since(start))

		return err
	}
}
