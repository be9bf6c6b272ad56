package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	AgentCount int `csv:"agents"`
	GroupCount int `csv:"groups"`

	// Events during the window
	ObjectsCreated   int `csv:"objects_created"`
	ObjectsDestroyed int `csv:"objects_destroyed"`
	MoveOrders       int `csv:"move_orders"`
	Collisions       int `csv:"collisions"`

	// Density distribution, sampled over every touched cell at window end
	DensityMean float64 `csv:"density_mean"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`
	DensityMax  float64 `csv:"density_max"`

	// OverCapacityFraction is the fraction of sampled cells whose density
	// exceeded rho_max, the point past which the cost field's density term
	// saturates and agents enter a crowd-crush regime.
	OverCapacityFraction float64 `csv:"over_capacity_fraction"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDensityStats computes mean, percentiles, max, and the over-capacity
// fraction from a set of per-cell density samples. overCap is normally
// Config.Density.RhoMax.
func ComputeDensityStats(values []float64, overCap float64) (mean, p10, p50, p90, max, overFrac float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	var sum float64
	var over int
	max = values[0]
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
		if v > overCap {
			over++
		}
	}
	mean = sum / float64(n)
	overFrac = float64(over) / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90, max, overFrac
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.AgentCount),
		slog.Int("groups", s.GroupCount),
		slog.Int("objects_created", s.ObjectsCreated),
		slog.Int("objects_destroyed", s.ObjectsDestroyed),
		slog.Int("move_orders", s.MoveOrders),
		slog.Int("collisions", s.Collisions),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_p10", s.DensityP10),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("over_capacity_fraction", s.OverCapacityFraction),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.AgentCount,
		"groups", s.GroupCount,
		"objects_created", s.ObjectsCreated,
		"objects_destroyed", s.ObjectsDestroyed,
		"move_orders", s.MoveOrders,
		"collisions", s.Collisions,
		"density_mean", s.DensityMean,
		"density_p50", s.DensityP50,
		"density_max", s.DensityMax,
		"over_capacity_fraction", s.OverCapacityFraction,
	)
}
