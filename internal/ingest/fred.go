package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"

	"golang.org/x/time/rate"
)

const defaultFREDBaseURL = "https://api.stlouisfed.org/fred"

// MacroTicker is the pseudo symbol attached to macro series items. Economic
// data has no company ticker, and the cooldown gate keys on ticker, so all
// macro alerts share one cooldown bucket.
const MacroTicker = "MACRO"

// FREDIngestor pulls recent observations for a configured set of economic
// series from the FRED API. Without an API key the adapter is disabled and
// always returns zero items.
type FREDIngestor struct {
	logger  *logger.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
	series  map[string]string
}

type fredObservationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// NewFREDIngestor creates a new FRED ingestor.
func NewFREDIngestor(log *logger.Logger, apiKey string, series map[string]string) *FREDIngestor {
	if apiKey == "" {
		log.Warn("FRED API key not set, macro data disabled")
	}
	return &FREDIngestor{
		logger:  log,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: defaultFREDBaseURL,
		apiKey:  apiKey,
		series:  series,
	}
}

// Name returns the canonical source label.
func (f *FREDIngestor) Name() string {
	return string(SourceFRED)
}

// FetchRecent returns one item per series that has observations within the
// window, with the change against the prior observation attached.
func (f *FREDIngestor) FetchRecent(ctx context.Context, window time.Duration) ([]ContentItem, error) {
	if f.apiKey == "" {
		return nil, nil
	}

	cutoff := time.Now().Add(-window)

	// fixed series order keeps the merged candidate set deterministic
	names := make([]string, 0, len(f.series))
	for name := range f.series {
		names = append(names, name)
	}
	sort.Strings(names)

	var items []ContentItem
	for _, name := range names {
		if !utils.ShouldContinue(ctx) {
			return items, ctx.Err()
		}
		item, err := f.fetchSeries(ctx, name, f.series[name], cutoff)
		if err != nil {
			f.logger.Error("Failed to fetch FRED series",
				logger.ErrorField(err),
				logger.StringField("series", name),
			)
			continue
		}
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (f *FREDIngestor) fetchSeries(ctx context.Context, name, id string, cutoff time.Time) (*ContentItem, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("series_id", id)
	params.Set("api_key", f.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", cutoff.Format("2006-01-02"))
	params.Set("sort_order", "asc")

	reqURL := fmt.Sprintf("%s/series/observations?%s", f.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from FRED", resp.StatusCode)
	}

	var payload fredObservationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode observations: %w", err)
	}

	type obs struct {
		date  time.Time
		value float64
	}
	var parsed []obs
	for _, o := range payload.Observations {
		// FRED publishes "." for missing observations
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		parsed = append(parsed, obs{date: d, value: v})
	}
	if len(parsed) == 0 {
		return nil, nil
	}

	latest := parsed[len(parsed)-1]
	item := &ContentItem{
		Source:     SourceFRED,
		Ticker:     MacroTicker,
		SeriesName: name,
		SeriesID:   id,
		Value:      utils.ToPointer(latest.value),
		Timestamp:  latest.date,
		Text:       fmt.Sprintf("%s: %.2f", name, latest.value),
		URL:        fmt.Sprintf("https://fred.stlouisfed.org/series/%s", id),
	}
	item.Title = item.Text

	if len(parsed) > 1 {
		prev := parsed[len(parsed)-2]
		change := latest.value - prev.value
		item.Change = utils.ToPointer(change)
		if prev.value != 0 {
			item.ChangePct = utils.ToPointer(change / prev.value * 100)
		}
		item.Text = fmt.Sprintf("%s: %.2f (change: %+.2f)", name, latest.value, change)
		item.Title = item.Text
	}

	return item, nil
}
