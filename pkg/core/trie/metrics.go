package trie

import "github.com/prometheus/client_golang/prometheus"

var (
	// savedNodes prometheus metric.
	savedNodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes written to the store",
			Name:      "trie_saved_nodes_total",
			Namespace: "statetrie",
		},
	)
	// savedValues prometheus metric.
	savedValues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of long trie values written to the store",
			Name:      "trie_saved_values_total",
			Namespace: "statetrie",
		},
	)
	// nodeCacheHits prometheus metric.
	nodeCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie node lookups served from the cache",
			Name:      "trie_node_cache_hits_total",
			Namespace: "statetrie",
		},
	)
	// nodeLoads prometheus metric.
	nodeLoads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes loaded from the store",
			Name:      "trie_node_loads_total",
			Namespace: "statetrie",
		},
	)
)

func init() {
	prometheus.MustRegister(
		savedNodes,
		savedValues,
		nodeCacheHits,
		nodeLoads,
	)
}

func updateSaveMetrics(nodes, values int) {
	savedNodes.Add(float64(nodes))
	savedValues.Add(float64(values))
}
