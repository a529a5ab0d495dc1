package ingest

import (
	"context"
	"strings"
	"time"
)

// Source is the canonical label of a content producer. Feed adapters map
// whatever a feed calls itself onto one of these labels so the validator and
// scorer work against a single vocabulary.
type Source string

const (
	SourceSEC        Source = "SEC"
	SourceFRED       Source = "FRED"
	SourceReuters    Source = "Reuters"
	SourceFed        Source = "Federal Reserve"
	SourceCompanyIR  Source = "Company IR"
	SourceYahoo      Source = "Yahoo Finance"
	SourceGoogleNews Source = "Google News"
)

// IsAggregator reports whether the source republishes third-party outlets.
// Aggregators are exempt from the domain whitelist because their item URLs
// point at arbitrary publishers.
func (s Source) IsAggregator() bool {
	return s == SourceGoogleNews
}

// IsInvestorRelations reports whether the source is a company's own IR
// channel.
func (s Source) IsInvestorRelations() bool {
	return s == SourceCompanyIR || strings.Contains(string(s), "IR")
}

// RequiresTicker reports whether items from this source are useless without a
// resolved symbol. General news and aggregator content must name a watchlist
// ticker; structured sources carry one already.
func (s Source) RequiresTicker() bool {
	return s == SourceGoogleNews || s == SourceReuters
}

// Event types attached to earnings-calendar items.
const (
	EventEarningsUpcoming = "earnings"
	EventEarningsResult   = "earnings_result"
)

// ContentItem is one unit of raw input, produced fresh each cycle and never
// persisted directly. Per-source fields are pointers so absence is
// distinguishable from zero.
type ContentItem struct {
	Source    Source
	Ticker    string
	Title     string
	Text      string
	URL       string
	Timestamp time.Time

	// SEC filings
	FilingType string
	Category   string

	// FRED series
	SeriesName string
	SeriesID   string
	Value      *float64
	Change     *float64
	ChangePct  *float64

	// Earnings events
	EventType    string
	EPSActual    *float64
	EPSEstimate  *float64
	SurprisePct  *float64
	EarningsDate *time.Time
}

// Ingestor is the per-source fetch collaborator. Implementations fail soft:
// transport and parse problems surface as an error with whatever items were
// collected, never as a panic, and a slow upstream is bounded by ctx.
type Ingestor interface {
	Name() string
	FetchRecent(ctx context.Context, window time.Duration) ([]ContentItem, error)
}

// Result pairs one collaborator's outcome with its origin so the scan cycle
// can aggregate per-source failures without unwinding.
type Result struct {
	Source string
	Items  []ContentItem
	Err    error
}

// TickerResolver resolves a watchlist symbol from free text. Implemented by
// processing.Extractor; declared here so feed adapters do not depend on the
// processing package.
type TickerResolver interface {
	ResolveTicker(text string) string
}
