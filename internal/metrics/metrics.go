// Package metrics holds the prometheus collectors shared by both binaries.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_upstream_requests_total",
		Help: "Users API calls issued by the console, by operation and HTTP status (0 = no response).",
	}, []string{"op", "code"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userconsole_http_requests_total",
		Help: "Requests served by the console or the users API, by route and status.",
	}, []string{"route", "code"})
)

// ObserveUpstream counts one users API call.
func ObserveUpstream(op string, status int) {
	upstreamRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// ObserveRequest counts one served request. Unmatched routes share a label so
// arbitrary paths do not explode cardinality.
func ObserveRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
