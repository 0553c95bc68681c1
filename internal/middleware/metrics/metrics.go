package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	CheckoutStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_started_total",
			Help: "Checkout start attempts by result",
		},
		[]string{"result"},
	)

	CheckoutConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_confirmed_total",
			Help: "Checkout confirmation attempts by result",
		},
		[]string{"result"},
	)
)

func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method

			httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
