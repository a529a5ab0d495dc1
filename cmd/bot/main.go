package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/andrewyy141/market-intel-bot/internal/bot/config"
	delivery "github.com/andrewyy141/market-intel-bot/internal/bot/delivery/http"
	"github.com/andrewyy141/market-intel-bot/internal/bot/service"
	"github.com/andrewyy141/market-intel-bot/internal/ingest"
	"github.com/andrewyy141/market-intel-bot/internal/processing"
	"github.com/andrewyy141/market-intel-bot/internal/repository"
	"github.com/andrewyy141/market-intel-bot/internal/sentiment"
	"github.com/andrewyy141/market-intel-bot/internal/signals"
	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/postgres"
	"github.com/andrewyy141/market-intel-bot/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the market intelligence bot",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Market Intel Bot", logger.Field("name", cfg.App.Name))

	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Repositories
	signalRepo := repository.NewSignalRepository(db.DB)
	cacheRepo := repository.NewContentCacheRepository(db.DB)
	historyRepo := repository.NewAlertHistoryRepository(db.DB)
	cooldownRepo := repository.NewCooldownRepository(db.DB)

	// Processing
	extractor := processing.NewExtractor(cfg.Sources.Watchlist)
	validator := processing.NewValidator(processing.ValidatorConfig{
		TrustedSources:     cfg.Sources.TrustedSources,
		WhitelistedDomains: cfg.Sources.WhitelistedDomains,
		SponsoredKeywords:  cfg.Sources.SponsoredKeywords,
		OpinionURLPatterns: cfg.Sources.OpinionURLPatterns,
	}, cacheRepo, extractor)

	analyzer := buildAnalyzer(ctx, cfg, appLogger)

	detector := signals.NewDetector(signals.NewEngine(), extractor, analyzer, appLogger, cfg.Scanner.MinConfidence)

	// Ingestors
	ingestors := []ingest.Ingestor{
		ingest.NewSECIngestor(appLogger, cfg.Sources.Watchlist, cfg.Sources.SECCIKMap),
		ingest.NewRSSIngestor(appLogger, buildFeeds(cfg), cfg.Sources.Watchlist, cfg.Sources.GoogleNewsTickers, extractor),
		ingest.NewFREDIngestor(appLogger, cfg.Sources.FREDAPIKey, cfg.Sources.FREDSeries),
		ingest.NewYahooIngestor(appLogger, cfg.Sources.Watchlist),
	}

	notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
	}

	scannerSvc := service.NewScannerService(
		ingestors, validator, detector,
		signalRepo, historyRepo, cooldownRepo, cacheRepo,
		notifier, appLogger, &cfg.Scanner,
	)
	go scannerSvc.Start(ctx)

	// Operational API
	e := echo.New()
	e.HideBanner = true

	statusHandler := delivery.NewStatusHandler(signalRepo, historyRepo, cfg, appLogger)
	statusHandler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// buildAnalyzer selects the sentiment provider. Any construction failure
// falls back to the lexicon so sentiment stays advisory.
func buildAnalyzer(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) sentiment.Analyzer {
	if cfg.Sentiment.Provider == "gemini" {
		analyzer, err := sentiment.NewGeminiAnalyzer(ctx, sentiment.GeminiConfig{
			APIKey:              cfg.Sentiment.Gemini.APIKey,
			Model:               cfg.Sentiment.Gemini.Model,
			BaseURL:             cfg.Sentiment.Gemini.BaseURL,
			MaxRequestPerMinute: cfg.Sentiment.Gemini.MaxRequestPerMinute,
		}, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize Gemini analyzer, using lexicon", logger.ErrorField(err))
			return sentiment.NewLexiconAnalyzer()
		}
		return analyzer
	}
	return sentiment.NewLexiconAnalyzer()
}

// buildFeeds merges the configured press feeds with per-ticker IR feeds. IR
// tickers are walked in sorted order so the feed list is deterministic.
func buildFeeds(cfg *config.Config) []ingest.Feed {
	var feeds []ingest.Feed
	for _, f := range cfg.Sources.RSSFeeds {
		feeds = append(feeds, ingest.Feed{
			Name:   f.Name,
			Source: ingest.Source(f.Source),
			URL:    f.URL,
		})
	}

	tickers := make([]string, 0, len(cfg.Sources.IRFeeds))
	for ticker := range cfg.Sources.IRFeeds {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	for _, ticker := range tickers {
		feeds = append(feeds, ingest.Feed{
			Name:   ticker + " IR",
			Source: ingest.SourceCompanyIR,
			URL:    cfg.Sources.IRFeeds[ticker],
			Ticker: ticker,
		})
	}
	return feeds
}

func main() {
	rootCmd := &cobra.Command{Use: "bot"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-bot.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing bot CLI: %s\n", err)
		os.Exit(1)
	}
}
