package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWatchlist() []string {
	return []string{"AAPL", "MSFT", "GOOGL", "NVDA", "META", "TSM", "V"}
}

func TestResolveTicker(t *testing.T) {
	e := NewExtractor(testWatchlist())

	tests := []struct {
		name string
		text string
		want string
	}{
		{"exact symbol", "NVDA beats estimates", "NVDA"},
		{"lowercase text", "nvda beats estimates", "NVDA"},
		{"company alias", "Apple unveils new chip", "AAPL"},
		{"multi word alias", "Taiwan Semi expands capacity", "TSM"},
		{"symbol wins over alias", "Microsoft partners with NVDA", "NVDA"},
		{"no match", "Crude oil rises on supply fears", ""},
		{"alias off watchlist", "Intel opens new fab", ""},
		{"symbol inside word ignored", "INNOVATION in chips", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ResolveTicker(tt.text))
		})
	}
}

func TestResolveTickerWatchlistOrder(t *testing.T) {
	// Both symbols present: the first watchlist entry wins.
	e := NewExtractor([]string{"MSFT", "AAPL"})
	assert.Equal(t, "MSFT", e.ResolveTicker("AAPL and MSFT rally together"))
}

func TestResolveTickerSingleLetterBoundary(t *testing.T) {
	e := NewExtractor(testWatchlist())
	assert.Equal(t, "V", e.ResolveTicker("V reports record volume"))
	assert.Equal(t, "", e.ResolveTicker("Very strong quarter for banks"))
}

func TestExtractNumbers(t *testing.T) {
	e := NewExtractor(testWatchlist())

	t.Run("revenue in billions", func(t *testing.T) {
		n := e.ExtractNumbers("Revenue: $94.8 billion, up 6%")
		require.NotNil(t, n.Revenue)
		assert.InDelta(t, 94.8e9, *n.Revenue, 1)
	})

	t.Run("revenue short unit", func(t *testing.T) {
		n := e.ExtractNumbers("revenue $500M for the quarter")
		require.NotNil(t, n.Revenue)
		assert.InDelta(t, 500e6, *n.Revenue, 1)
	})

	t.Run("revenue without unit", func(t *testing.T) {
		n := e.ExtractNumbers("Revenue: $1200000")
		require.NotNil(t, n.Revenue)
		assert.InDelta(t, 1200000, *n.Revenue, 1)
	})

	t.Run("eps", func(t *testing.T) {
		n := e.ExtractNumbers("EPS: $1.64 versus $1.50 expected")
		require.NotNil(t, n.EPS)
		assert.InDelta(t, 1.64, *n.EPS, 0.001)
	})

	t.Run("percentages keep order and duplicates", func(t *testing.T) {
		n := e.ExtractNumbers("Margin at 46.2%, up from 45%, guidance 46.2%")
		assert.Equal(t, []float64{46.2, 45, 46.2}, n.Percentages)
	})

	t.Run("empty text", func(t *testing.T) {
		n := e.ExtractNumbers("")
		assert.Nil(t, n.Revenue)
		assert.Nil(t, n.EPS)
		assert.Empty(t, n.Percentages)
	})
}

func TestExtractEventType(t *testing.T) {
	e := NewExtractor(testWatchlist())

	tests := []struct {
		name string
		text string
		want string
	}{
		{"earnings", "Q3 earnings beat expectations", EventEarnings},
		{"ma", "agrees to acquisition of rival", EventMA},
		{"management", "CFO steps down after five years", EventManagement},
		{"product", "launch event scheduled next month", EventProduct},
		{"regulatory", "FTC opens antitrust probe", EventRegulatory},
		{"general fallback", "shares trade sideways", EventGeneral},
		// earnings outranks product when both keyword sets hit
		{"priority order", "announced record revenue", EventEarnings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).EventType)
		})
	}
}
