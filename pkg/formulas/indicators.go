package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA returns the latest simple moving average over the given period, or nil
// if the series is too short.
func SMA(values []float64, period int) *float64 {
	if period < 1 || len(values) < period {
		return nil
	}
	out := talib.Sma(values, period)
	return lastValid(out)
}

// EMA returns the latest exponential moving average over the given period,
// or nil if the series is too short.
func EMA(values []float64, period int) *float64 {
	if period < 1 || len(values) < period {
		return nil
	}
	out := talib.Ema(values, period)
	return lastValid(out)
}

// RSI returns the latest Relative Strength Index (0-100) over the given
// period, or nil if the series is too short.
//
// RSI = 100 - (100 / (1 + RS)) where RS = avg gain / avg loss over N periods.
func RSI(values []float64, period int) *float64 {
	if period < 1 || len(values) < period+1 {
		return nil
	}
	out := talib.Rsi(values, period)
	return lastValid(out)
}

// lastValid returns a pointer to the last non-NaN value of a talib output
// series, or nil when there is none.
func lastValid(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	last := series[len(series)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
