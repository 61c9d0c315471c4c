package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(onboardingBuild) }

var onboardingBuild = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "onboarding_bot_build_info",
		Help: "Always 1; labels identify the onboarding bot binary that is running.",
	},
	[]string{"version", "commit", "go_version"},
)

func SetBuildInfo(version, commit string) {
	onboardingBuild.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
