package build

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	kombinemetrics "github.com/kombineproject/kombine/pkg/metrics"
)

var (
	buildDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "kombine",
		Subsystem: "build",
		Name:      "duration_seconds",
		Help:      "Duration of target renders, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{kombinemetrics.LabelTarget, kombinemetrics.LabelSuccess})
)
