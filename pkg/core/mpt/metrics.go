package mpt

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring trie storage access.
var (
	// nodesLoaded prometheus metric.
	nodesLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes loaded from the store",
			Name:      "nodes_loaded_total",
			Namespace: "mpt",
		},
	)
	// cacheHits prometheus metric.
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes resolved from the node cache",
			Name:      "node_cache_hits_total",
			Namespace: "mpt",
		},
	)
	// nodesPersisted prometheus metric.
	nodesPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes stored by commits",
			Name:      "nodes_persisted_total",
			Namespace: "mpt",
		},
	)
)

func init() {
	prometheus.MustRegister(
		nodesLoaded,
		cacheHits,
		nodesPersisted,
	)
}
