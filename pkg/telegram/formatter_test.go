package telegram

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/andrewyy141/market-intel-bot/internal/entity"
)

func sampleSignal() *entity.Signal {
	return &entity.Signal{
		Ticker:     "AAPL",
		SignalType: "sec_filing",
		Category:   "Micro → Earnings",
		Headline:   "AAPL files 8-K",
		Details:    "8-K filing indicates material corporate event",
		Confidence: 0.935,
		Sentiment:  "BULLISH",
		Timestamp:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		SourceURL:  "https://www.sec.gov/filing",
	}
}

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal(sampleSignal())

	assert.Contains(t, msg, "🔴 *AAPL* | Sec Filing")
	assert.Contains(t, msg, "_Micro → Earnings_")
	assert.Contains(t, msg, "*AAPL files 8-K*")
	assert.Contains(t, msg, "Confidence: 94%")
	assert.Contains(t, msg, "Sentiment: 📈 BULLISH")
	assert.Contains(t, msg, "[Source](https://www.sec.gov/filing)")
}

func TestFormatSignalUnknownTypeFallback(t *testing.T) {
	sig := sampleSignal()
	sig.SignalType = "mystery_event"
	msg := FormatSignal(sig)
	assert.True(t, strings.HasPrefix(msg, "📢"))
}

func TestFormatSignalOmitsEmptyParts(t *testing.T) {
	sig := sampleSignal()
	sig.Details = ""
	sig.SourceURL = ""
	sig.Sentiment = ""
	msg := FormatSignal(sig)

	assert.NotContains(t, msg, "[Source]")
	assert.NotContains(t, msg, "Sentiment:")
}

func TestFormatSignalTruncatesDetails(t *testing.T) {
	sig := sampleSignal()
	sig.Details = strings.Repeat("x", 3000)
	msg := FormatSignal(sig)

	assert.Less(t, len(msg), 2000)
	assert.Contains(t, msg, "...")
}

func TestFormatSignalTruncatesDetailsOnRuneBoundary(t *testing.T) {
	sig := sampleSignal()
	sig.Details = strings.Repeat("é", 3000)
	msg := FormatSignal(sig)

	assert.True(t, utf8.ValidString(msg))
	assert.Contains(t, msg, "...")
}
