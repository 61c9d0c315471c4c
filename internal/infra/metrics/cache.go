package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(profileCacheLookups) }

var profileCacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "profile_cache_lookups_total",
		Help: "Registered-profile lookups served from redis, by outcome.",
	},
	[]string{"result"}, // 'hit', 'miss', 'error'
)

// IncProfileCacheLookup counts one redis lookup done before reading a
// registered profile from postgres.
func IncProfileCacheLookup(result string) {
	profileCacheLookups.WithLabelValues(norm(result)).Inc()
}
