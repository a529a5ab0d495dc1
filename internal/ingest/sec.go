package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const (
	defaultEDGARBaseURL = "https://www.sec.gov/cgi-bin/browse-edgar"
	edgarUserAgent      = "MarketIntelBot/1.0 (ops@market-intel-bot.dev)"
)

// filing types worth alerting on: material events and insider transactions.
var watchedFilingTypes = []string{"8-K", "4"}

// SECIngestor fetches recent EDGAR filings for every watchlist ticker with a
// known CIK.
type SECIngestor struct {
	logger    *logger.Logger
	baseURL   string
	watchlist []string
	cikMap    map[string]string
	// EDGAR fair-access policy caps automated clients at 10 requests/second.
	limiter *rate.Limiter
}

// NewSECIngestor creates a new SEC EDGAR ingestor.
func NewSECIngestor(log *logger.Logger, watchlist []string, cikMap map[string]string) *SECIngestor {
	return &SECIngestor{
		logger:    log,
		baseURL:   defaultEDGARBaseURL,
		watchlist: watchlist,
		cikMap:    cikMap,
		limiter:   rate.NewLimiter(rate.Every(150*time.Millisecond), 1),
	}
}

// Name returns the canonical source label.
func (s *SECIngestor) Name() string {
	return string(SourceSEC)
}

// FetchRecent returns filings published within the window. Per-ticker
// failures are logged and skipped so one bad feed does not starve the rest.
func (s *SECIngestor) FetchRecent(ctx context.Context, window time.Duration) ([]ContentItem, error) {
	cutoff := time.Now().Add(-window)

	var items []ContentItem
	for _, ticker := range s.watchlist {
		cik, ok := s.cikMap[ticker]
		if !ok {
			continue
		}
		if !utils.ShouldContinue(ctx) {
			return items, ctx.Err()
		}
		for _, filingType := range watchedFilingTypes {
			filings, err := s.fetchFilings(ctx, ticker, cik, filingType, cutoff)
			if err != nil {
				s.logger.Error("Failed to fetch EDGAR filings",
					logger.ErrorField(err),
					logger.StringField("ticker", ticker),
					logger.StringField("filing_type", filingType),
				)
				continue
			}
			items = append(items, filings...)
		}
	}
	return items, nil
}

func (s *SECIngestor) fetchFilings(ctx context.Context, ticker, cik, filingType string, cutoff time.Time) ([]ContentItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("action", "getcompany")
	params.Set("CIK", cik)
	params.Set("type", filingType)
	params.Set("owner", "exclude")
	params.Set("count", "10")
	params.Set("output", "atom")
	feedURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	fp := gofeed.NewParser()
	fp.UserAgent = edgarUserAgent
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EDGAR feed: %w", err)
	}

	var filings []ContentItem
	for _, entry := range feed.Items {
		ts := entry.UpdatedParsed
		if ts == nil {
			ts = entry.PublishedParsed
		}
		if ts == nil || ts.Before(cutoff) {
			continue
		}

		item := ContentItem{
			Source:     SourceSEC,
			Ticker:     ticker,
			FilingType: filingType,
			Title:      utils.CleanToValidUTF8(entry.Title),
			Text:       utils.CleanToValidUTF8(entry.Title + " - " + entry.Description),
			URL:        entry.Link,
			Timestamp:  *ts,
		}
		if filingType == "8-K" {
			item.Category = Classify8K(entry.Description)
		}
		filings = append(filings, item)
	}
	return filings, nil
}

// Classify8K maps an 8-K filing summary onto an event category using the
// item codes companies are required to disclose under.
func Classify8K(summary string) string {
	lower := strings.ToLower(summary)
	switch {
	case strings.Contains(lower, "item 2.02") || strings.Contains(lower, "results of operations"):
		return "Earnings"
	case strings.Contains(lower, "item 1.01") || strings.Contains(lower, "material definitive agreement"):
		return "Material Contract"
	case strings.Contains(lower, "item 5.02") || strings.Contains(lower, "departure") || strings.Contains(lower, "appointment"):
		return "Management Change"
	case strings.Contains(lower, "item 8.01"):
		return "Other Event"
	default:
		return "Material Event"
	}
}
