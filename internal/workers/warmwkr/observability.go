package warmwkr

import (
	"time"

	"github.com/hera-erp/tilestats/internal/pkg/observability"
)

const workerName = "warm"

func observeWarm(start time.Time, warmed *int) {
	observability.WorkerWarmDuration.WithLabelValues(workerName).Set(time.Since(start).Seconds())
	observability.WorkerWarmedTiles.WithLabelValues(workerName).Set(float64(*warmed))
}
