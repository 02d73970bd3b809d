package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-service/prometheus"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "taskboard-service",
	})
}

// Index handles the root endpoint
func Index(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"name":        "Multi-Tenant Taskboard API",
		"version":     "1.0.0",
		"description": "Project management tool with schema-per-tenant architecture",
	})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
