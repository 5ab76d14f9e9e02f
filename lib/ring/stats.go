package ring

import "math"

// --------------------------------------------------------------------------
// Load distribution statistics
// --------------------------------------------------------------------------

// LoadStats summarizes how evenly the hash space is split across members.
// All values are computed over the per-node fractions from LoadDistribution.
type LoadStats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`

	// BalanceQuality combines the coefficient of variation and the min/max
	// ratio into a single [0,1] score. 1.0 means perfectly even ownership.
	BalanceQuality float64 `json:"balance_quality"`
}

// NewLoadStats computes distribution statistics for a set of per-node load
// fractions (as returned by Ring.LoadDistribution).
func NewLoadStats(dist map[string]float64) LoadStats {
	if len(dist) == 0 {
		return LoadStats{}
	}

	values := make([]float64, 0, len(dist))
	for _, v := range dist {
		values = append(values, v)
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		d := v - mean
		sumSquaredDiffs += d * d
	}
	stdDev := math.Sqrt(sumSquaredDiffs / float64(len(values)))

	minMaxRatio := 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	// lower variation and a higher min/max ratio both indicate a flatter ring
	var cv float64
	if mean > 0 {
		cv = stdDev / mean
	}
	quality := (1.0-math.Min(1.0, cv))*0.5 + minMaxRatio*0.5

	return LoadStats{
		StdDeviation:   stdDev,
		Min:            min,
		Max:            max,
		Mean:           mean,
		MinMaxRatio:    minMaxRatio,
		BalanceQuality: quality,
	}
}
