package formulas

// MaxDrawdown returns the largest peak-to-trough decline of a value series,
// expressed as a positive fraction of the peak (0.25 means a 25% drawdown).
// Series whose running peak is never positive yield 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
