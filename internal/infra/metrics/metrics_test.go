//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOnboardingCollectors(t *testing.T) {
	t.Run("should expose pool, cache and build metrics under onboarding names", func(t *testing.T) {
		// --- Arrange ---
		reg := prometheus.NewRegistry()
		reg.MustRegister(profileStoreConns, profileCacheLookups, onboardingBuild)

		// --- Act ---
		SetProfileStorePool(10, 7, 3)
		IncProfileCacheLookup(" HIT ")
		SetBuildInfo("v1.2.0", "abc123")
		families, err := reg.Gather()

		// --- Assert ---
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		got := map[string]int{}
		for _, mf := range families {
			got[mf.GetName()] = len(mf.GetMetric())
		}
		want := map[string]int{
			"profile_store_pool_connections": 3,
			"profile_cache_lookups_total":    1,
			"onboarding_bot_build_info":      1,
		}
		for name, n := range want {
			if got[name] < n {
				t.Errorf("%s: expected at least %d series, got %d", name, n, got[name])
			}
		}
	})

	t.Run("should label cache lookups by normalized result", func(t *testing.T) {
		// --- Arrange ---
		reg := prometheus.NewRegistry()
		reg.MustRegister(profileCacheLookups)
		before := lookupCount(t, reg, "miss")

		// --- Act ---
		IncProfileCacheLookup("Miss")

		// --- Assert ---
		if after := lookupCount(t, reg, "miss"); after != before+1 {
			t.Errorf("expected %v, got %v", before+1, after)
		}
	})
}

func lookupCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "profile_cache_lookups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
