package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewyy141/market-intel-bot/internal/ingest"
	"github.com/andrewyy141/market-intel-bot/internal/processing"
	"github.com/andrewyy141/market-intel-bot/internal/sentiment"
	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"
)

type stubAnalyzer struct {
	direction sentiment.Direction
	err       error
}

func (s *stubAnalyzer) Direction(_ context.Context, _ string) (sentiment.Direction, error) {
	return s.direction, s.err
}

func newTestDetector(analyzer sentiment.Analyzer) *Detector {
	extractor := processing.NewExtractor([]string{"AAPL", "MSFT", "NVDA", "MACRO"})
	return NewDetector(NewEngine(), extractor, analyzer, logger.NewNop(), 0.80)
}

func TestDetectMacroSignalConfidence(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Neutral})
	content := &ingest.ContentItem{
		Source:     ingest.SourceFRED,
		Ticker:     ingest.MacroTicker,
		SeriesName: "CPI",
		ChangePct:  utils.ToPointer(0.5),
		Title:      "CPI: 310.33 (change: +1.55)",
		Text:       "CPI: 310.33 (change: +1.55)",
	}

	sig := d.Detect(context.Background(), content)
	require.NotNil(t, sig)
	assert.Equal(t, "MACRO", sig.Ticker)
	assert.Equal(t, TypeMacroData, sig.SignalType)
	assert.Equal(t, "Macro → CPI", sig.Category)
	// 0.85 base, boosted by the trust multiplier
	assert.InDelta(t, 0.935, sig.Confidence, 0.0001)
	assert.Equal(t, string(sentiment.Neutral), sig.Sentiment)
}

func TestDetectConfidenceClampedAtOne(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Bullish})
	content := &ingest.ContentItem{
		Source:     ingest.SourceSEC,
		Ticker:     "AAPL",
		FilingType: "8-K",
		Title:      "AAPL 8-K",
		Text:       "Results of operations and financial condition",
	}

	sig := d.Detect(context.Background(), content)
	require.NotNil(t, sig)
	// 0.95 * 1.1 would exceed 1.0
	assert.InDelta(t, 1.0, sig.Confidence, 0.0001)
}

func TestDetectSentimentDoesNotAffectConfidence(t *testing.T) {
	content := func() *ingest.ContentItem {
		return &ingest.ContentItem{
			Source:     ingest.SourceSEC,
			Ticker:     "MSFT",
			FilingType: "4",
			Title:      "MSFT Form 4",
			Text:       "Statement of changes in beneficial ownership",
		}
	}

	bullish := newTestDetector(&stubAnalyzer{direction: sentiment.Bullish}).Detect(context.Background(), content())
	bearish := newTestDetector(&stubAnalyzer{direction: sentiment.Bearish}).Detect(context.Background(), content())
	require.NotNil(t, bullish)
	require.NotNil(t, bearish)
	assert.Equal(t, bullish.Confidence, bearish.Confidence)
	assert.NotEqual(t, bullish.Sentiment, bearish.Sentiment)
}

func TestDetectBelowThresholdDropped(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Neutral})
	// Earnings preview scores 0.75 and Yahoo gets no trust boost.
	content := &ingest.ContentItem{
		Source:    ingest.SourceYahoo,
		Ticker:    "NVDA",
		EventType: ingest.EventEarningsUpcoming,
		Title:     "NVDA earnings upcoming",
		Text:      "NVDA earnings on 2026-09-03",
	}

	assert.Nil(t, d.Detect(context.Background(), content))
}

func TestDetectNoTickerDropped(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Neutral})
	content := &ingest.ContentItem{
		Source:     ingest.SourceSEC,
		FilingType: "8-K",
		Title:      "Filing without resolvable company",
		Text:       "Entry into a material definitive agreement",
	}

	assert.Nil(t, d.Detect(context.Background(), content))
}

func TestDetectTickerResolvedFromText(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Neutral})
	content := &ingest.ContentItem{
		Source:     ingest.SourceSEC,
		FilingType: "8-K",
		Title:      "Apple Inc 8-K",
		Text:       "Apple reported results of operations",
	}

	sig := d.Detect(context.Background(), content)
	require.NotNil(t, sig)
	assert.Equal(t, "AAPL", sig.Ticker)
}

func TestDetectNoRuleMatchDropped(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Neutral})
	content := &ingest.ContentItem{
		Source: ingest.SourceReuters,
		Ticker: "AAPL",
		Title:  "AAPL shares flat",
		Text:   "Shares traded sideways in a quiet session",
	}

	assert.Nil(t, d.Detect(context.Background(), content))
}

func TestDetectSentimentErrorDefaultsNeutral(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{err: errors.New("model unavailable")})
	content := &ingest.ContentItem{
		Source:     ingest.SourceSEC,
		Ticker:     "AAPL",
		FilingType: "8-K",
		Title:      "AAPL 8-K",
		Text:       "Results of operations and financial condition",
	}

	sig := d.Detect(context.Background(), content)
	require.NotNil(t, sig)
	assert.Equal(t, string(sentiment.Neutral), sig.Sentiment)
}

func TestDetectHeadlineTruncated(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Neutral})
	long := make([]byte, 0, 150)
	for i := 0; i < 150; i++ {
		long = append(long, 'a')
	}
	content := &ingest.ContentItem{
		Source:     ingest.SourceSEC,
		Ticker:     "AAPL",
		FilingType: "8-K",
		Title:      string(long),
		Text:       "Results of operations",
	}

	sig := d.Detect(context.Background(), content)
	require.NotNil(t, sig)
	assert.Len(t, sig.Headline, 100)
}

func TestDetectDetailsIncludeNumbers(t *testing.T) {
	d := newTestDetector(&stubAnalyzer{direction: sentiment.Bullish})
	content := &ingest.ContentItem{
		Source:     ingest.SourceSEC,
		Ticker:     "AAPL",
		FilingType: "8-K",
		Title:      "AAPL reports Q4",
		Text:       "Revenue: $94.9 billion, EPS: $1.64, margin 46.2%",
	}

	sig := d.Detect(context.Background(), content)
	require.NotNil(t, sig)
	assert.Contains(t, sig.Details, "Revenue $94.9B")
	assert.Contains(t, sig.Details, "EPS $1.64")
	assert.Contains(t, sig.Details, "8-K filing")
}
