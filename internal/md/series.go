package md

import (
	"math"
	"time"

	talib "github.com/markcheno/go-talib"
)

// Bar is one OHLCV observation for a fixed time interval.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    uint64
}

// Series holds the bars for one symbol as column slices, ordered by time.
type Series struct {
	Timestamps []time.Time
	Open       []float64
	High       []float64
	Low        []float64
	Close      []float64
	Volume     []float64
}

// NewSeries builds a Series from bars already ordered by time.
func NewSeries(bars []Bar) Series {
	length := len(bars)
	series := Series{
		Timestamps: make([]time.Time, length),
		Open:       make([]float64, length),
		High:       make([]float64, length),
		Low:        make([]float64, length),
		Close:      make([]float64, length),
		Volume:     make([]float64, length),
	}
	for i, bar := range bars {
		series.Timestamps[i] = bar.Timestamp.UTC()
		series.Open[i] = bar.Open
		series.High[i] = bar.High
		series.Low[i] = bar.Low
		series.Close[i] = bar.Close
		series.Volume[i] = float64(bar.Volume)
	}
	return series
}

func (s Series) Len() int {
	return len(s.Close)
}

func (s Series) Empty() bool {
	return len(s.Close) == 0
}

// RollingMean returns the simple moving average of values over window.
// Positions with fewer than window trailing observations are NaN. go-talib
// zero-fills the leading positions, which would be indistinguishable from a
// real zero average, so they are overwritten here.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 || len(values) < window {
		out := make([]float64, len(values))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	out := talib.Sma(values, window)
	for i := 0; i < window-1; i++ {
		out[i] = math.NaN()
	}
	return out
}
