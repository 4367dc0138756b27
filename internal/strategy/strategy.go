package strategy

import "smabot/internal/md"

type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

type Strategy interface {
	Decide(series md.Series) Action
}
