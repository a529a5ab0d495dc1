package sentiment

import "context"

// Direction is the advisory market-direction label attached to signals.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Analyzer classifies text into a market direction. The result is metadata
// only: callers must never let it influence confidence scoring. An analyzer
// error degrades to Neutral at the call site.
type Analyzer interface {
	Direction(ctx context.Context, text string) (Direction, error)
}
