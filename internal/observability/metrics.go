package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialql_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// StoreQueryLatency records store latency by operation and collection.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialql_store_query_latency_seconds",
		Help:    "Store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// SlowQueries counts SQL queries over the slow threshold by collection.
	SlowQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialql_store_slow_queries_total",
		Help: "Total SQL queries slower than the slow-query threshold by collection",
	}, []string{"collection"})

	// GraphQLOperations counts resolved GraphQL fields by name and outcome code.
	GraphQLOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialql_graphql_operations_total",
		Help: "Total GraphQL operations by operation name and outcome",
	}, []string{"operation", "outcome"})

	// AuthFailures counts rejected auth attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialql_auth_failures_total",
		Help: "Total authentication failures by reason",
	}, []string{"reason"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialql_cache_lookups_total",
		Help: "Total cache lookups by result",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
