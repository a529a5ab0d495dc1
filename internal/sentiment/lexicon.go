package sentiment

import (
	"context"
	"strings"
)

var bullishWords = []string{
	"beat", "beats", "record", "surge", "soars", "soar", "jumps",
	"growth", "upgrade", "raises", "strong", "profit", "gains",
	"rally", "outperform", "exceeds",
}

var bearishWords = []string{
	"miss", "misses", "falls", "drops", "plunge", "plunges",
	"decline", "downgrade", "cuts", "weak", "loss", "lawsuit",
	"investigation", "recall", "layoffs", "warns",
}

// LexiconAnalyzer scores text against a small financial word list. It is the
// default provider when no external model is configured.
type LexiconAnalyzer struct {
	bullish []string
	bearish []string
}

// NewLexiconAnalyzer creates a lexicon-backed analyzer.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{
		bullish: bullishWords,
		bearish: bearishWords,
	}
}

// Direction counts bullish and bearish word hits and returns the side with
// the larger count; ties are Neutral.
func (a *LexiconAnalyzer) Direction(_ context.Context, text string) (Direction, error) {
	lower := strings.ToLower(text)

	score := 0
	for _, w := range a.bullish {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range a.bearish {
		if strings.Contains(lower, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return Bullish, nil
	case score < 0:
		return Bearish, nil
	default:
		return Neutral, nil
	}
}
