package api

import (
	"net/http"

	"github.com/okian/wordsort/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandleHealth serves GET /healthz as a Prometheus exposition of the
// service registry.
func HandleHealth() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
