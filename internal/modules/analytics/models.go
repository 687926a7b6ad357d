// Package analytics computes descriptive statistics and technical indicators
// over simulated paths, either supplied inline or loaded from stored runs.
package analytics

// PathRequest is the JSON body for analyzing a single value series.
type PathRequest struct {
	Values []float64 `json:"values"`
	// PeriodsPerYear scales the volatility of per-step returns to an annual
	// figure. Defaults to 252 (daily trading grid) when omitted.
	PeriodsPerYear float64 `json:"periods_per_year,omitempty"`
	// IndicatorPeriod is the lookback for SMA/EMA/RSI. Defaults to 14.
	IndicatorPeriod int `json:"indicator_period,omitempty"`
}

// PathAnalytics holds statistics for one value series. Indicator fields are
// nil when the series is too short for the requested period.
type PathAnalytics struct {
	Count                int      `json:"count"`
	Mean                 float64  `json:"mean"`
	StdDev               float64  `json:"std_dev"`
	Min                  float64  `json:"min"`
	Max                  float64  `json:"max"`
	TotalReturn          float64  `json:"total_return"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	SMA                  *float64 `json:"sma,omitempty"`
	EMA                  *float64 `json:"ema,omitempty"`
	RSI                  *float64 `json:"rsi,omitempty"`
}

// RunAnalytics aggregates per-path analytics across a stored run.
type RunAnalytics struct {
	RunUUID              string       `json:"run_uuid"`
	PathCount            int          `json:"path_count"`
	Terminal             *RunTerminal `json:"terminal,omitempty"`
	MeanTotalReturn      float64      `json:"mean_total_return"`
	MeanAnnualizedVol    float64      `json:"mean_annualized_volatility"`
	MeanMaxDrawdown      float64      `json:"mean_max_drawdown"`
	WorstMaxDrawdown     float64      `json:"worst_max_drawdown"`
	ProbabilityOfLoss    float64      `json:"probability_of_loss"`
	ValueAtRisk95        float64      `json:"value_at_risk_95"`
	ExpectedTerminalGain float64      `json:"expected_terminal_gain"`
}

// RunTerminal mirrors the terminal-value distribution of a run.
type RunTerminal struct {
	Time   float64 `json:"time"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P10    float64 `json:"p10"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}
