package strategy

import (
	"fmt"
	"math"

	"smabot/internal/md"
)

// Crossover signals on the short/long SMA cross between the two most
// recent bars. It fails closed: an empty series, a series shorter than the
// long window, or a missing average at either of the last two points all
// decide HOLD.
type Crossover struct {
	Short int
	Long  int
}

func NewCrossover(short, long int) (Crossover, error) {
	if short < 1 {
		return Crossover{}, fmt.Errorf("short window must be >= 1, got %d", short)
	}
	if short >= long {
		return Crossover{}, fmt.Errorf("short window %d must be < long window %d", short, long)
	}
	return Crossover{Short: short, Long: long}, nil
}

func (c Crossover) Decide(series md.Series) Action {
	if series.Len() < c.Long || series.Len() < 2 {
		return Hold
	}

	shortSMA := md.RollingMean(series.Close, c.Short)
	longSMA := md.RollingMean(series.Close, c.Long)

	last := series.Len() - 1
	prev := last - 1
	if math.IsNaN(shortSMA[prev]) || math.IsNaN(longSMA[prev]) ||
		math.IsNaN(shortSMA[last]) || math.IsNaN(longSMA[last]) {
		return Hold
	}

	switch {
	case shortSMA[prev] <= longSMA[prev] && shortSMA[last] > longSMA[last]:
		return Buy
	case shortSMA[prev] >= longSMA[prev] && shortSMA[last] < longSMA[last]:
		return Sell
	}
	return Hold
}
