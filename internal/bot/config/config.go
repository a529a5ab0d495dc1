package config

import (
	"errors"
	"time"

	"github.com/andrewyy141/market-intel-bot/pkg/config"
)

// Telegram holds notification channel configuration.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Scanner holds scan-cycle and gating configuration.
type Scanner struct {
	Interval         time.Duration `mapstructure:"interval"`
	StartupDelay     time.Duration `mapstructure:"startup_delay"`
	PacingInterval   time.Duration `mapstructure:"pacing_interval"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	FetchWindowHours int           `mapstructure:"fetch_window_hours"`
	// per-source overrides keyed by adapter name, hours
	FetchWindowOverrides map[string]int `mapstructure:"fetch_window_overrides"`
	MinConfidence        float64        `mapstructure:"min_confidence"`
	MaxAlertsPerDay      int            `mapstructure:"max_alerts_per_day"`
	CooldownHours        int            `mapstructure:"cooldown_hours"`
	CacheRetentionDays   int            `mapstructure:"cache_retention_days"`
}

// RSSFeed is one configured press feed.
type RSSFeed struct {
	Name   string `mapstructure:"name"`
	Source string `mapstructure:"source"`
	URL    string `mapstructure:"url"`
}

// Sources holds watchlist and per-provider feed configuration.
type Sources struct {
	Watchlist          []string          `mapstructure:"watchlist"`
	TrustedSources     []string          `mapstructure:"trusted_sources"`
	SponsoredKeywords  []string          `mapstructure:"sponsored_keywords"`
	OpinionURLPatterns []string          `mapstructure:"opinion_url_patterns"`
	WhitelistedDomains []string          `mapstructure:"whitelisted_domains"`
	RSSFeeds           []RSSFeed         `mapstructure:"rss_feeds"`
	IRFeeds            map[string]string `mapstructure:"ir_feeds"`
	SECCIKMap          map[string]string `mapstructure:"sec_cik_map"`
	FREDSeries         map[string]string `mapstructure:"fred_series"`
	FREDAPIKey         string            `mapstructure:"fred_api_key"`
	GoogleNewsTickers  int               `mapstructure:"google_news_tickers"`
}

// Gemini holds model-backed sentiment provider configuration.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Sentiment selects and configures the sentiment provider.
type Sentiment struct {
	Provider string `mapstructure:"provider"`
	Gemini   Gemini `mapstructure:"gemini"`
}

// Config holds the full configuration for the bot service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	API       config.API      `mapstructure:"api"`
	Telegram  Telegram        `mapstructure:"telegram"`
	Scanner   Scanner         `mapstructure:"scanner"`
	Sources   Sources         `mapstructure:"sources"`
	Sentiment Sentiment       `mapstructure:"sentiment"`
}

// Load loads the bot configuration from the given path and fills defaults for
// anything the file leaves out.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required")
	}
	if c.Sentiment.Provider == "gemini" && c.Sentiment.Gemini.APIKey == "" {
		return errors.New("sentiment.gemini.api_key is required when provider is gemini")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Scanner.Interval <= 0 {
		c.Scanner.Interval = 15 * time.Minute
	}
	if c.Scanner.StartupDelay <= 0 {
		c.Scanner.StartupDelay = 30 * time.Second
	}
	if c.Scanner.PacingInterval <= 0 {
		c.Scanner.PacingInterval = 5 * time.Second
	}
	if c.Scanner.FetchTimeout <= 0 {
		c.Scanner.FetchTimeout = 60 * time.Second
	}
	if c.Scanner.FetchWindowHours <= 0 {
		c.Scanner.FetchWindowHours = 24
	}
	if c.Scanner.MinConfidence <= 0 {
		c.Scanner.MinConfidence = 0.80
	}
	if c.Scanner.MaxAlertsPerDay <= 0 {
		c.Scanner.MaxAlertsPerDay = 10
	}
	if c.Scanner.CooldownHours <= 0 {
		c.Scanner.CooldownHours = 4
	}
	if c.Scanner.CacheRetentionDays <= 0 {
		c.Scanner.CacheRetentionDays = 7
	}
	if len(c.Sources.Watchlist) == 0 {
		c.Sources.Watchlist = defaultWatchlist()
	}
	if len(c.Sources.TrustedSources) == 0 {
		c.Sources.TrustedSources = []string{
			"SEC", "FRED", "Reuters", "Federal Reserve", "Company IR", "Yahoo Finance",
		}
	}
	if len(c.Sources.SponsoredKeywords) == 0 {
		c.Sources.SponsoredKeywords = []string{
			"sponsored", "paid content", "advertisement", "partner content", "promoted",
		}
	}
	if len(c.Sources.OpinionURLPatterns) == 0 {
		c.Sources.OpinionURLPatterns = []string{
			"/opinion/", "/opinions/", "/commentary/", "/blogs/", "/editorial/", "/contributors/",
		}
	}
	if len(c.Sources.WhitelistedDomains) == 0 {
		c.Sources.WhitelistedDomains = []string{
			"sec.gov", "federalreserve.gov", "stlouisfed.org", "reuters.com",
			"finance.yahoo.com", "apple.com", "microsoft.com", "nvidia.com",
			"alphabet.com", "abc.xyz", "amazon.com", "meta.com", "tesla.com",
		}
	}
	if len(c.Sources.SECCIKMap) == 0 {
		c.Sources.SECCIKMap = map[string]string{
			"AAPL":  "0000320193",
			"MSFT":  "0000789019",
			"GOOGL": "0001652044",
			"AMZN":  "0001018724",
			"NVDA":  "0001045810",
			"META":  "0001326801",
			"TSLA":  "0001318605",
		}
	}
	if len(c.Sources.FREDSeries) == 0 {
		c.Sources.FREDSeries = map[string]string{
			"CPI":              "CPIAUCSL",
			"Unemployment":     "UNRATE",
			"Fed Funds Rate":   "FEDFUNDS",
			"10Y Treasury":     "DGS10",
			"Consumer Confid.": "UMCSENT",
		}
	}
	if c.Sources.GoogleNewsTickers <= 0 {
		c.Sources.GoogleNewsTickers = 5
	}
	if c.Sentiment.Provider == "" {
		c.Sentiment.Provider = "lexicon"
	}
	if c.Sentiment.Gemini.Model == "" {
		c.Sentiment.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Sentiment.Gemini.BaseURL == "" {
		c.Sentiment.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if c.Sentiment.Gemini.MaxRequestPerMinute <= 0 {
		c.Sentiment.Gemini.MaxRequestPerMinute = 10
	}
}

// defaultWatchlist is the union of the tracked baskets, deduplicated with
// first occurrence winning so the order stays stable.
func defaultWatchlist() []string {
	baskets := [][]string{
		// mega caps
		{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA"},
		// AI and semiconductors
		{"AMD", "AVGO", "TSM", "PLTR", "SNOW"},
		// high quality growth
		{"V", "MA", "UNH", "LLY", "COST"},
		// value plays
		{"BRK-B", "JPM", "XOM", "PG", "KO"},
	}
	seen := make(map[string]struct{})
	var watchlist []string
	for _, basket := range baskets {
		for _, ticker := range basket {
			if _, ok := seen[ticker]; ok {
				continue
			}
			seen[ticker] = struct{}{}
			watchlist = append(watchlist, ticker)
		}
	}
	return watchlist
}
