package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const defaultGoogleNewsBaseURL = "https://news.google.com/rss/search?q="

// Feed is one RSS source with its canonical label. IR feeds carry the ticker
// they speak for, which is pre-attached to every item.
type Feed struct {
	Name   string
	Source Source
	URL    string
	Ticker string
}

// RSSIngestor fetches general news feeds, company IR feeds and per-ticker
// Google News searches.
type RSSIngestor struct {
	logger        *logger.Logger
	feeds         []Feed
	googleBaseURL string
	googleTickers []string
	resolver      TickerResolver
}

// NewRSSIngestor creates a new RSS ingestor. Google News searches run only
// for the first maxGoogleTickers watchlist entries to stay under the
// aggregator's rate limits.
func NewRSSIngestor(log *logger.Logger, feeds []Feed, watchlist []string, maxGoogleTickers int, resolver TickerResolver) *RSSIngestor {
	googleTickers := watchlist
	if maxGoogleTickers > 0 && len(googleTickers) > maxGoogleTickers {
		googleTickers = googleTickers[:maxGoogleTickers]
	}
	return &RSSIngestor{
		logger:        log,
		feeds:         feeds,
		googleBaseURL: defaultGoogleNewsBaseURL,
		googleTickers: googleTickers,
		resolver:      resolver,
	}
}

// Name returns the adapter label used in fetch diagnostics.
func (r *RSSIngestor) Name() string {
	return "RSS"
}

// FetchRecent returns feed entries published within the window. A feed that
// fails to parse contributes zero items and is logged.
func (r *RSSIngestor) FetchRecent(ctx context.Context, window time.Duration) ([]ContentItem, error) {
	cutoff := time.Now().Add(-window)

	var items []ContentItem
	for _, feed := range r.feeds {
		if !utils.ShouldContinue(ctx) {
			return items, ctx.Err()
		}
		news, err := r.parseFeed(ctx, feed, cutoff)
		if err != nil {
			r.logger.Error("Failed to parse RSS feed",
				logger.ErrorField(err),
				logger.StringField("feed", feed.Name),
			)
			continue
		}
		items = append(items, news...)
	}

	for _, ticker := range r.googleTickers {
		if !utils.ShouldContinue(ctx) {
			return items, ctx.Err()
		}
		news, err := r.fetchGoogleNews(ctx, ticker, cutoff)
		if err != nil {
			r.logger.Error("Failed to fetch Google News",
				logger.ErrorField(err),
				logger.StringField("ticker", ticker),
			)
			continue
		}
		items = append(items, news...)
	}

	return items, nil
}

func (r *RSSIngestor) parseFeed(ctx context.Context, feed Feed, cutoff time.Time) ([]ContentItem, error) {
	fp := gofeed.NewParser()
	parsed, err := fp.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, err
	}

	var items []ContentItem
	for _, entry := range parsed.Items {
		pub := publishedAt(entry)
		if pub.Before(cutoff) {
			continue
		}

		content := StripHTML(entry.Description)
		if content == "" {
			content = StripHTML(entry.Content)
		}

		item := ContentItem{
			Source:    feed.Source,
			Ticker:    feed.Ticker,
			Title:     utils.CleanToValidUTF8(entry.Title),
			Text:      utils.CleanToValidUTF8(entry.Title + " - " + content),
			URL:       entry.Link,
			Timestamp: pub,
		}
		if item.Ticker == "" && r.resolver != nil {
			item.Ticker = r.resolver.ResolveTicker(entry.Title + " " + content)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *RSSIngestor) fetchGoogleNews(ctx context.Context, ticker string, cutoff time.Time) ([]ContentItem, error) {
	query := strings.ReplaceAll(ticker+" stock when:1d", " ", "+")

	fp := gofeed.NewParser()
	parsed, err := fp.ParseURLWithContext(r.googleBaseURL+query, ctx)
	if err != nil {
		return nil, err
	}

	entries := parsed.Items
	if len(entries) > 5 {
		entries = entries[:5]
	}

	var items []ContentItem
	for _, entry := range entries {
		pub := publishedAt(entry)
		if pub.Before(cutoff) {
			continue
		}
		items = append(items, ContentItem{
			Source:    SourceGoogleNews,
			Ticker:    ticker,
			Title:     utils.CleanToValidUTF8(entry.Title),
			Text:      utils.CleanToValidUTF8(entry.Title + " " + StripHTML(entry.Description)),
			URL:       entry.Link,
			Timestamp: pub,
		})
	}
	return items, nil
}

func publishedAt(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Now()
}

// StripHTML reduces feed-provided markup to plain text.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
