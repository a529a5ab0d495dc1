package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"

	"golang.org/x/time/rate"
)

const (
	defaultYahooBaseURL = "https://query1.finance.yahoo.com"
	yahooUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// YahooIngestor fetches the earnings calendar and recent earnings results for
// every watchlist ticker.
type YahooIngestor struct {
	logger    *logger.Logger
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	watchlist []string
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			CalendarEvents *struct {
				Earnings struct {
					EarningsDate []struct {
						Raw int64 `json:"raw"`
					} `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
			EarningsHistory *struct {
				History []struct {
					EPSActual *struct {
						Raw float64 `json:"raw"`
					} `json:"epsActual"`
					EPSEstimate *struct {
						Raw float64 `json:"raw"`
					} `json:"epsEstimate"`
					Quarter *struct {
						Raw int64 `json:"raw"`
					} `json:"quarter"`
				} `json:"history"`
			} `json:"earningsHistory"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// NewYahooIngestor creates a new Yahoo Finance earnings ingestor.
func NewYahooIngestor(log *logger.Logger, watchlist []string) *YahooIngestor {
	return &YahooIngestor{
		logger:    log,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		baseURL:   defaultYahooBaseURL,
		watchlist: watchlist,
	}
}

// Name returns the canonical source label.
func (y *YahooIngestor) Name() string {
	return string(SourceYahoo)
}

// FetchRecent returns upcoming earnings events (within the next 7 days or the
// past day) and earnings results reported within the last 48 hours. The
// window argument is unused because the event horizon is fixed by the
// calendar semantics.
func (y *YahooIngestor) FetchRecent(ctx context.Context, window time.Duration) ([]ContentItem, error) {
	var items []ContentItem
	for _, ticker := range y.watchlist {
		if !utils.ShouldContinue(ctx) {
			return items, ctx.Err()
		}
		events, err := y.fetchEarnings(ctx, ticker)
		if err != nil {
			y.logger.Error("Failed to fetch earnings data",
				logger.ErrorField(err),
				logger.StringField("ticker", ticker),
			)
			continue
		}
		items = append(items, events...)
	}
	return items, nil
}

func (y *YahooIngestor) fetchEarnings(ctx context.Context, ticker string) ([]ContentItem, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=calendarEvents,earningsHistory", y.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from Yahoo Finance", resp.StatusCode)
	}

	var payload yahooQuoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote summary: %w", err)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return nil, nil
	}
	result := payload.QuoteSummary.Result[0]

	now := time.Now()
	var items []ContentItem

	if result.CalendarEvents != nil && len(result.CalendarEvents.Earnings.EarningsDate) > 0 {
		earningsDate := time.Unix(result.CalendarEvents.Earnings.EarningsDate[0].Raw, 0)
		daysUntil := earningsDate.Sub(now).Hours() / 24
		if daysUntil >= -1 && daysUntil <= 7 {
			items = append(items, ContentItem{
				Source:       SourceYahoo,
				Ticker:       ticker,
				EventType:    EventEarningsUpcoming,
				EarningsDate: &earningsDate,
				Timestamp:    now,
				Title:        fmt.Sprintf("%s earnings on %s", ticker, earningsDate.Format("2006-01-02")),
				Text:         fmt.Sprintf("%s earnings on %s", ticker, earningsDate.Format("2006-01-02")),
				URL:          fmt.Sprintf("https://finance.yahoo.com/quote/%s", ticker),
			})
		}
	}

	if result.EarningsHistory != nil && len(result.EarningsHistory.History) > 0 {
		latest := result.EarningsHistory.History[0]
		if latest.Quarter != nil && latest.EPSActual != nil && latest.EPSEstimate != nil {
			reportDate := time.Unix(latest.Quarter.Raw, 0)
			if now.Sub(reportDate) <= 48*time.Hour {
				actual := latest.EPSActual.Raw
				estimate := latest.EPSEstimate.Raw
				surprisePct := 0.0
				if estimate != 0 {
					surprisePct = (actual - estimate) / math.Abs(estimate) * 100
				}
				items = append(items, ContentItem{
					Source:      SourceYahoo,
					Ticker:      ticker,
					EventType:   EventEarningsResult,
					EPSActual:   utils.ToPointer(actual),
					EPSEstimate: utils.ToPointer(estimate),
					SurprisePct: utils.ToPointer(surprisePct),
					Timestamp:   reportDate,
					Title:       fmt.Sprintf("%s earnings: $%.2f vs $%.2f est (%+.1f%%)", ticker, actual, estimate, surprisePct),
					Text:        fmt.Sprintf("%s earnings: $%.2f vs $%.2f est (%+.1f%%)", ticker, actual, estimate, surprisePct),
					URL:         fmt.Sprintf("https://finance.yahoo.com/quote/%s", ticker),
				})
			}
		}
	}

	return items, nil
}
