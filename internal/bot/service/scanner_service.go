package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/andrewyy141/market-intel-bot/internal/bot/config"
	"github.com/andrewyy141/market-intel-bot/internal/entity"
	"github.com/andrewyy141/market-intel-bot/internal/ingest"
	"github.com/andrewyy141/market-intel-bot/internal/processing"
	"github.com/andrewyy141/market-intel-bot/internal/repository"
	"github.com/andrewyy141/market-intel-bot/internal/signals"
	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/telegram"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"
)

// ScannerService runs the periodic fetch-validate-detect-dispatch cycle.
type ScannerService interface {
	Start(ctx context.Context)
	RunCycle(ctx context.Context)
}

type scannerService struct {
	ingestors    []ingest.Ingestor
	validator    *processing.Validator
	detector     *signals.Detector
	signalRepo   repository.SignalRepository
	historyRepo  repository.AlertHistoryRepository
	cooldownRepo repository.CooldownRepository
	cacheRepo    repository.ContentCacheRepository
	notifier     telegram.Notifier
	log          *logger.Logger
	cfg          *config.Scanner
}

// NewScannerService creates a new ScannerService.
func NewScannerService(
	ingestors []ingest.Ingestor,
	validator *processing.Validator,
	detector *signals.Detector,
	signalRepo repository.SignalRepository,
	historyRepo repository.AlertHistoryRepository,
	cooldownRepo repository.CooldownRepository,
	cacheRepo repository.ContentCacheRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
	cfg *config.Scanner,
) ScannerService {
	return &scannerService{
		ingestors:    ingestors,
		validator:    validator,
		detector:     detector,
		signalRepo:   signalRepo,
		historyRepo:  historyRepo,
		cooldownRepo: cooldownRepo,
		cacheRepo:    cacheRepo,
		notifier:     notifier,
		log:          log,
		cfg:          cfg,
	}
}

// Start blocks until ctx is cancelled. The first cycle runs after the startup
// delay; later cycles run on the configured interval and a tick is skipped
// when the previous cycle is still running.
func (s *scannerService) Start(ctx context.Context) {
	s.log.Info("scanner starting",
		logger.DurationField("startup_delay", s.cfg.StartupDelay),
		logger.DurationField("interval", s.cfg.Interval))

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.StartupDelay):
	}

	s.RunCycle(ctx)

	cronLog := cron.PrintfLogger(newCronPrinter(s.log))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	if _, err := c.AddFunc("@every "+s.cfg.Interval.String(), func() {
		s.RunCycle(ctx)
	}); err != nil {
		s.log.Error("failed to schedule scan cycle", logger.ErrorField(err))
		return
	}
	if _, err := c.AddFunc("@daily", func() {
		s.purgeContentCache(ctx)
	}); err != nil {
		s.log.Error("failed to schedule cache purge", logger.ErrorField(err))
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scanner stopped")
}

// RunCycle executes one full scan: fetch all sources, validate, detect,
// rank by confidence and dispatch under the cooldown and daily-cap gates.
func (s *scannerService) RunCycle(ctx context.Context) {
	started := time.Now()

	alertsToday, err := s.historyRepo.CountToday(ctx)
	if err != nil {
		s.log.Error("failed to count today's alerts", logger.ErrorField(err))
		return
	}
	if alertsToday >= int64(s.cfg.MaxAlertsPerDay) {
		s.log.Warn("daily alert cap reached, skipping cycle",
			logger.IntField("alerts_today", int(alertsToday)),
			logger.IntField("max_alerts_per_day", s.cfg.MaxAlertsPerDay))
		return
	}

	items := s.fetchAll(ctx)
	detected := s.processItems(ctx, items)

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Confidence > detected[j].Confidence
	})

	sent := s.dispatch(ctx, detected, alertsToday)

	s.log.Info("scan cycle complete",
		logger.IntField("items_fetched", len(items)),
		logger.IntField("signals_detected", len(detected)),
		logger.IntField("alerts_sent", sent),
		logger.DurationField("duration", time.Since(started)))
}

// fetchAll queries every source in parallel with an independent timeout per
// source. A failing source contributes whatever items it collected before the
// error; results are merged in registration order.
func (s *scannerService) fetchAll(ctx context.Context) []ingest.ContentItem {
	results := make([]ingest.Result, len(s.ingestors))

	var wg sync.WaitGroup
	for i, ing := range s.ingestors {
		wg.Add(1)
		i, ing := i, ing
		window := s.fetchWindow(ing.Name())
		utils.GoSafe(func() {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()
			items, err := ing.FetchRecent(fetchCtx, window)
			results[i] = ingest.Result{Source: ing.Name(), Items: items, Err: err}
		})
	}
	wg.Wait()

	var merged []ingest.ContentItem
	for _, res := range results {
		if res.Err != nil {
			s.log.Error("source fetch failed",
				logger.StringField("source", res.Source),
				logger.IntField("partial_items", len(res.Items)),
				logger.ErrorField(res.Err))
		} else {
			s.log.Debug("source fetched",
				logger.StringField("source", res.Source),
				logger.IntField("items", len(res.Items)))
		}
		merged = append(merged, res.Items...)
	}
	return merged
}

func (s *scannerService) processItems(ctx context.Context, items []ingest.ContentItem) []*entity.Signal {
	var detected []*entity.Signal
	for i := range items {
		if !utils.ShouldContinue(ctx) {
			break
		}
		item := &items[i]
		ok, reason, err := s.validator.Validate(ctx, item)
		if err != nil {
			s.log.Error("validation error",
				logger.StringField("source", string(item.Source)),
				logger.StringField("title", utils.TruncateString(item.Title, 80)),
				logger.ErrorField(err))
			continue
		}
		if !ok {
			s.log.Debug("content rejected",
				logger.StringField("source", string(item.Source)),
				logger.StringField("reason", reason))
			continue
		}
		if sig := s.detector.Detect(ctx, item); sig != nil {
			detected = append(detected, sig)
		}
	}
	return detected
}

// dispatch sends ranked signals until the daily cap is hit. A notification
// failure is logged but the cooldown and history are still recorded so a
// flapping channel cannot re-alert the same event.
func (s *scannerService) dispatch(ctx context.Context, ranked []*entity.Signal, alertsToday int64) int {
	cooldown := time.Duration(s.cfg.CooldownHours) * time.Hour
	sent := 0

	for _, sig := range ranked {
		if !utils.ShouldContinue(ctx) {
			break
		}
		if alertsToday+int64(sent) >= int64(s.cfg.MaxAlertsPerDay) {
			s.log.Warn("daily alert cap reached mid-cycle",
				logger.IntField("sent_this_cycle", sent))
			break
		}

		onCooldown, err := s.cooldownRepo.IsOnCooldown(ctx, sig.Ticker, cooldown)
		if err != nil {
			s.log.Error("cooldown lookup failed",
				logger.StringField("ticker", sig.Ticker),
				logger.ErrorField(err))
			continue
		}
		if onCooldown {
			s.log.Info("ticker on cooldown, skipping",
				logger.StringField("ticker", sig.Ticker),
				logger.StringField("signal_type", sig.SignalType))
			continue
		}

		sig.Alerted = true
		if err := s.signalRepo.Create(ctx, sig); err != nil {
			s.log.Error("failed to persist signal",
				logger.StringField("ticker", sig.Ticker),
				logger.ErrorField(err))
			continue
		}

		if err := s.notifier.SendMessage(telegram.FormatSignal(sig)); err != nil {
			s.log.Error("failed to send alert",
				logger.StringField("ticker", sig.Ticker),
				logger.ErrorField(err))
		}

		if err := s.cooldownRepo.Update(ctx, sig.Ticker); err != nil {
			s.log.Error("failed to update cooldown",
				logger.StringField("ticker", sig.Ticker),
				logger.ErrorField(err))
		}
		if err := s.historyRepo.Log(ctx, sig.ID, sig.Ticker); err != nil {
			s.log.Error("failed to log alert history",
				logger.StringField("ticker", sig.Ticker),
				logger.ErrorField(err))
		}

		sent++
		s.log.Info("alert sent",
			logger.StringField("ticker", sig.Ticker),
			logger.StringField("signal_type", sig.SignalType),
			logger.Float64Field("confidence", sig.Confidence))

		if !waitFor(ctx, s.cfg.PacingInterval) {
			break
		}
	}
	return sent
}

func (s *scannerService) fetchWindow(source string) time.Duration {
	if hours, ok := s.cfg.FetchWindowOverrides[source]; ok && hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	return time.Duration(s.cfg.FetchWindowHours) * time.Hour
}

func (s *scannerService) purgeContentCache(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.CacheRetentionDays)
	removed, err := s.cacheRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("content cache purge failed", logger.ErrorField(err))
		return
	}
	s.log.Info("content cache purged",
		logger.IntField("rows_removed", int(removed)),
		logger.IntField("retention_days", s.cfg.CacheRetentionDays))
}

// waitFor sleeps for d unless the context ends first. Returns false when the
// context is done.
func waitFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// cronPrinter adapts the structured logger to cron's Printf-style interface.
type cronPrinter struct {
	log *logger.Logger
}

func newCronPrinter(log *logger.Logger) *cronPrinter {
	return &cronPrinter{log: log}
}

func (p *cronPrinter) Printf(format string, args ...interface{}) {
	p.log.Sugar().Infof(format, args...)
}
