package analytics

import (
	"errors"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/aristath/pathsim/pkg/formulas"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultPeriodsPerYear  = 252
	defaultIndicatorPeriod = 14
)

// ErrEmptySeries is returned when a request carries no values to analyze.
var ErrEmptySeries = errors.New("value series is empty")

// Service computes analytics over value series and stored runs.
type Service struct {
	runs *runs.Service
	log  zerolog.Logger
}

// NewService creates a new analytics service
func NewService(runsService *runs.Service, log zerolog.Logger) *Service {
	return &Service{
		runs: runsService,
		log:  log.With().Str("service", "analytics").Logger(),
	}
}

// AnalyzePath computes statistics and indicators for one value series.
func (s *Service) AnalyzePath(req PathRequest) (*PathAnalytics, error) {
	if len(req.Values) == 0 {
		return nil, ErrEmptySeries
	}

	periodsPerYear := req.PeriodsPerYear
	if periodsPerYear <= 0 {
		periodsPerYear = defaultPeriodsPerYear
	}
	indicatorPeriod := req.IndicatorPeriod
	if indicatorPeriod < 1 {
		indicatorPeriod = defaultIndicatorPeriod
	}

	return analyzeSeries(req.Values, periodsPerYear, indicatorPeriod), nil
}

// AnalyzeRun loads a stored run's paths and aggregates per-path analytics.
// The grid step count determines the periods-per-year scaling: a [0,1] grid
// of 252 steps is treated as daily data.
func (s *Service) AnalyzeRun(runUUID string) (*RunAnalytics, error) {
	run, err := s.runs.Get(runUUID)
	if err != nil {
		return nil, err
	}

	paths, err := s.runs.GetPaths(runUUID)
	if err != nil {
		return nil, err
	}

	result := &RunAnalytics{
		RunUUID:   runUUID,
		PathCount: len(paths),
	}
	if len(paths) == 0 {
		return result, nil
	}

	// Steps per unit of model time; the grid's natural annualization.
	periodsPerYear := float64(run.Steps) / (run.GridEnd - run.GridStart)

	terminals := make([]float64, len(paths))
	losses := 0
	var totalReturnSum, annualVolSum, drawdownSum, worstDrawdown float64

	for i, path := range paths {
		values := make([]float64, len(path.Points))
		for j, point := range path.Points {
			values[j] = point.Value
		}

		pa := analyzeSeries(values, periodsPerYear, defaultIndicatorPeriod)
		totalReturnSum += pa.TotalReturn
		annualVolSum += pa.AnnualizedVolatility
		drawdownSum += pa.MaxDrawdown
		if pa.MaxDrawdown > worstDrawdown {
			worstDrawdown = pa.MaxDrawdown
		}

		terminals[i] = path.TerminalValue()
		if terminals[i] < run.InitialValue {
			losses++
		}
	}

	n := float64(len(paths))
	result.MeanTotalReturn = totalReturnSum / n
	result.MeanAnnualizedVol = annualVolSum / n
	result.MeanMaxDrawdown = drawdownSum / n
	result.WorstMaxDrawdown = worstDrawdown
	result.ProbabilityOfLoss = float64(losses) / n

	// VaR at 95%: the loss relative to the initial value that is exceeded in
	// only 5% of paths. Positive means a loss.
	p5 := formulas.Quantile(0.05, terminals)
	result.ValueAtRisk95 = run.InitialValue - p5
	result.ExpectedTerminalGain = formulas.Mean(terminals) - run.InitialValue

	summary := abm.Summarize(&abm.Result{Paths: paths})
	if summary != nil {
		result.Terminal = &RunTerminal{
			Time:   summary.TerminalTime,
			Mean:   summary.Mean,
			StdDev: summary.StdDev,
			Min:    summary.Min,
			Max:    summary.Max,
			P10:    summary.P10,
			Median: summary.Median,
			P90:    summary.P90,
		}
	}

	return result, nil
}

// analyzeSeries computes the per-series block shared by both entry points.
func analyzeSeries(values []float64, periodsPerYear float64, indicatorPeriod int) *PathAnalytics {
	returns := formulas.CalculateReturns(values)

	pa := &PathAnalytics{
		Count:                len(values),
		Mean:                 formulas.Mean(values),
		StdDev:               formulas.StdDev(values),
		Min:                  floats.Min(values),
		Max:                  floats.Max(values),
		AnnualizedVolatility: formulas.AnnualizedVolatility(returns, periodsPerYear),
		MaxDrawdown:          formulas.MaxDrawdown(values),
		SMA:                  formulas.SMA(values, indicatorPeriod),
		EMA:                  formulas.EMA(values, indicatorPeriod),
		RSI:                  formulas.RSI(values, indicatorPeriod),
	}

	if first := values[0]; first != 0 {
		pa.TotalReturn = (values[len(values)-1] - first) / first
	}

	return pa
}
