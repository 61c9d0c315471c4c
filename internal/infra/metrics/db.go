package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(profileStoreConns) }

// profileStoreConns mirrors pgxpool.Stat for the pool that holds user profiles.
var profileStoreConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "profile_store_pool_connections",
		Help: "Connections in the profile database pool, by state.",
	},
	[]string{"state"}, // 'open', 'idle', 'acquired'
)

func SetProfileStorePool(open, idle, acquired int32) {
	profileStoreConns.WithLabelValues("open").Set(float64(open))
	profileStoreConns.WithLabelValues("idle").Set(float64(idle))
	profileStoreConns.WithLabelValues("acquired").Set(float64(acquired))
}
