package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewyy141/market-intel-bot/internal/bot/config"
	"github.com/andrewyy141/market-intel-bot/internal/entity"
	"github.com/andrewyy141/market-intel-bot/internal/ingest"
	"github.com/andrewyy141/market-intel-bot/internal/processing"
	"github.com/andrewyy141/market-intel-bot/internal/sentiment"
	"github.com/andrewyy141/market-intel-bot/internal/signals"
	"github.com/andrewyy141/market-intel-bot/pkg/logger"
)

type fakeIngestor struct {
	name  string
	items []ingest.ContentItem
	err   error
	calls int
}

func (f *fakeIngestor) Name() string { return f.name }

func (f *fakeIngestor) FetchRecent(_ context.Context, _ time.Duration) ([]ingest.ContentItem, error) {
	f.calls++
	return f.items, f.err
}

type fakeSignalRepo struct {
	created []*entity.Signal
	err     error
}

func (f *fakeSignalRepo) Create(_ context.Context, sig *entity.Signal) error {
	if f.err != nil {
		return f.err
	}
	sig.ID = int64(len(f.created) + 1)
	f.created = append(f.created, sig)
	return nil
}

func (f *fakeSignalRepo) FindRecent(_ context.Context, limit int) ([]entity.Signal, error) {
	var out []entity.Signal
	for i := len(f.created) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.created[i])
	}
	return out, nil
}

type fakeHistoryRepo struct {
	count  int64
	logged []string
	err    error
}

func (f *fakeHistoryRepo) Log(_ context.Context, _ int64, ticker string) error {
	f.logged = append(f.logged, ticker)
	return nil
}

func (f *fakeHistoryRepo) CountToday(_ context.Context) (int64, error) {
	return f.count, f.err
}

type fakeCooldownRepo struct {
	onCooldown map[string]bool
	updated    []string
}

func (f *fakeCooldownRepo) IsOnCooldown(_ context.Context, ticker string, _ time.Duration) (bool, error) {
	return f.onCooldown[ticker], nil
}

func (f *fakeCooldownRepo) Update(_ context.Context, ticker string) error {
	if f.onCooldown == nil {
		f.onCooldown = make(map[string]bool)
	}
	f.onCooldown[ticker] = true
	f.updated = append(f.updated, ticker)
	return nil
}

type fakeCacheRepo struct {
	hashes map[string]struct{}
	purged int64
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{hashes: make(map[string]struct{})}
}

func (f *fakeCacheRepo) Exists(_ context.Context, hash string) (bool, error) {
	_, ok := f.hashes[hash]
	return ok, nil
}

func (f *fakeCacheRepo) Add(_ context.Context, hash, _, _ string) error {
	f.hashes[hash] = struct{}{}
	return nil
}

func (f *fakeCacheRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	f.purged++
	return int64(len(f.hashes)), nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

type neutralAnalyzer struct{}

func (neutralAnalyzer) Direction(_ context.Context, _ string) (sentiment.Direction, error) {
	return sentiment.Neutral, nil
}

type scannerFixture struct {
	svc        ScannerService
	signalRepo *fakeSignalRepo
	history    *fakeHistoryRepo
	cooldowns  *fakeCooldownRepo
	cache      *fakeCacheRepo
	notifier   *fakeNotifier
}

func newScannerFixture(t *testing.T, ingestors []ingest.Ingestor, maxAlerts int) *scannerFixture {
	t.Helper()

	watchlist := []string{"AAPL", "MSFT", "NVDA", "MACRO"}
	extractor := processing.NewExtractor(watchlist)
	cache := newFakeCacheRepo()
	validator := processing.NewValidator(processing.ValidatorConfig{
		TrustedSources:     []string{"SEC", "FRED", "Yahoo Finance"},
		WhitelistedDomains: []string{"sec.gov", "fred.stlouisfed.org", "finance.yahoo.com"},
	}, cache, extractor)
	detector := signals.NewDetector(signals.NewEngine(), extractor, neutralAnalyzer{}, logger.NewNop(), 0.80)

	f := &scannerFixture{
		signalRepo: &fakeSignalRepo{},
		history:    &fakeHistoryRepo{},
		cooldowns:  &fakeCooldownRepo{onCooldown: make(map[string]bool)},
		cache:      cache,
		notifier:   &fakeNotifier{},
	}
	f.svc = NewScannerService(
		ingestors, validator, detector,
		f.signalRepo, f.history, f.cooldowns, f.cache,
		f.notifier, logger.NewNop(),
		&config.Scanner{
			FetchTimeout:       time.Second,
			FetchWindowHours:   24,
			MinConfidence:      0.80,
			MaxAlertsPerDay:    maxAlerts,
			CooldownHours:      4,
			CacheRetentionDays: 7,
		},
	)
	return f
}

func filingItem(ticker, text string) ingest.ContentItem {
	return ingest.ContentItem{
		Source:     ingest.SourceSEC,
		Ticker:     ticker,
		FilingType: "8-K",
		Title:      ticker + " 8-K",
		Text:       text,
		URL:        "https://www.sec.gov/" + ticker,
	}
}

func insiderItem(ticker, text string) ingest.ContentItem {
	item := filingItem(ticker, text)
	item.FilingType = "4"
	return item
}

func TestRunCycleDispatchesSignal(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)

	f.svc.RunCycle(context.Background())

	require.Len(t, f.signalRepo.created, 1)
	sig := f.signalRepo.created[0]
	assert.Equal(t, "AAPL", sig.Ticker)
	assert.True(t, sig.Alerted)
	assert.Len(t, f.notifier.sent, 1)
	assert.Equal(t, []string{"AAPL"}, f.cooldowns.updated)
	assert.Equal(t, []string{"AAPL"}, f.history.logged)
}

func TestRunCycleRanksByConfidence(t *testing.T) {
	// Form 4 scores 0.99 after boost, 8-K scores 1.0; the 8-K must go first
	// regardless of fetch order.
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		insiderItem("MSFT", "Statement of changes in beneficial ownership"),
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)

	f.svc.RunCycle(context.Background())

	require.Len(t, f.signalRepo.created, 2)
	assert.Equal(t, "AAPL", f.signalRepo.created[0].Ticker)
	assert.Equal(t, "MSFT", f.signalRepo.created[1].Ticker)
}

func TestRunCycleSkipsTickerOnCooldown(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
		insiderItem("MSFT", "Statement of changes in beneficial ownership"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)
	f.cooldowns.onCooldown["AAPL"] = true

	f.svc.RunCycle(context.Background())

	require.Len(t, f.signalRepo.created, 1)
	assert.Equal(t, "MSFT", f.signalRepo.created[0].Ticker)
	assert.Len(t, f.notifier.sent, 1)
}

func TestRunCycleCooldownSuppressesSameTicker(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
		insiderItem("AAPL", "Statement of changes in beneficial ownership"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)

	f.svc.RunCycle(context.Background())

	// dispatching the first alert puts AAPL on cooldown for the second
	require.Len(t, f.notifier.sent, 1)
	assert.Len(t, f.signalRepo.created, 1)
}

func TestRunCycleStopsAtDailyCap(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
		insiderItem("MSFT", "Statement of changes in beneficial ownership"),
		filingItem("NVDA", "Completion of acquisition of business assets"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 2)

	f.svc.RunCycle(context.Background())

	assert.Len(t, f.notifier.sent, 2)
	assert.Len(t, f.signalRepo.created, 2)
}

func TestRunCycleSkipsWhenCapAlreadyReached(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)
	f.history.count = 10

	f.svc.RunCycle(context.Background())

	assert.Zero(t, ing.calls, "fetch must not run once the cap is hit")
	assert.Empty(t, f.notifier.sent)
}

func TestRunCycleCountsPriorAlertsAgainstCap(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
		insiderItem("MSFT", "Statement of changes in beneficial ownership"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)
	f.history.count = 9

	f.svc.RunCycle(context.Background())

	assert.Len(t, f.notifier.sent, 1)
}

func TestRunCycleFailingSourceIsolated(t *testing.T) {
	broken := &fakeIngestor{name: "FRED", err: errors.New("upstream down")}
	working := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{broken, working}, 10)

	f.svc.RunCycle(context.Background())

	assert.Len(t, f.notifier.sent, 1)
}

func TestRunCycleDuplicateTextYieldsOneSignal(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)

	f.svc.RunCycle(context.Background())

	assert.Len(t, f.signalRepo.created, 1)
}

func TestRunCycleNotifierFailureStillRecordsState(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)
	f.notifier.err = errors.New("telegram unreachable")

	f.svc.RunCycle(context.Background())

	// cooldown and history are recorded so the event cannot re-alert
	assert.Equal(t, []string{"AAPL"}, f.cooldowns.updated)
	assert.Equal(t, []string{"AAPL"}, f.history.logged)
	assert.Len(t, f.signalRepo.created, 1)
}

func TestRunCyclePersistFailureSkipsNotification(t *testing.T) {
	ing := &fakeIngestor{name: "SEC", items: []ingest.ContentItem{
		filingItem("AAPL", "Results of operations and financial condition"),
	}}
	f := newScannerFixture(t, []ingest.Ingestor{ing}, 10)
	f.signalRepo.err = errors.New("db down")

	f.svc.RunCycle(context.Background())

	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.cooldowns.updated)
}
