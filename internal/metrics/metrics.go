package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal      *prometheus.CounterVec
	authorizationDecisions *prometheus.CounterVec
	likeOperations         *prometheus.CounterVec
	postsDeactivated       prometheus.Counter
	registerOnce           sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forumhub",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the forum API.",
		}, []string{"method", "path", "status"})

		authorizationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forumhub",
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by action and outcome.",
		}, []string{"action", "outcome"})

		likeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forumhub",
			Name:      "like_operations_total",
			Help:      "Like and unlike attempts by operation and result.",
		}, []string{"operation", "result"})

		postsDeactivated = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "forumhub",
			Name:      "posts_deactivated_total",
			Help:      "Posts moved to the inactive state.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// ObserveAuthorization counts one authorization decision.
func ObserveAuthorization(action string, allowed bool) {
	if authorizationDecisions == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	authorizationDecisions.WithLabelValues(action, outcome).Inc()
}

// ObserveLike counts a like or unlike attempt. result is "ok" or an error code.
func ObserveLike(operation, result string) {
	if likeOperations == nil {
		return
	}
	likeOperations.WithLabelValues(operation, result).Inc()
}

// IncPostDeactivated counts one ACTIVE to INACTIVE transition.
func IncPostDeactivated() {
	if postsDeactivated == nil {
		return
	}
	postsDeactivated.Inc()
}
