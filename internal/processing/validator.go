package processing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andrewyy141/market-intel-bot/internal/ingest"

	gocache "github.com/patrickmn/go-cache"
)

// DedupStore is the durable membership set keyed by content hash.
type DedupStore interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Add(ctx context.Context, hash, ticker, source string) error
}

// Phrases that mark a text as commentary rather than fact. Three or more
// occurrences reject the item.
var defaultOpinionIndicators = []string{
	"i think", "i believe", "in my opinion", "we believe",
	"could", "might", "may", "should",
	"overvalued", "undervalued", "likely to",
	"prediction", "forecast", "expect",
}

const defaultOpinionThreshold = 3

// ValidatorConfig carries the filter sets the validation pipeline runs
// against. Empty OpinionIndicators falls back to the built-in phrase list.
type ValidatorConfig struct {
	TrustedSources     []string
	WhitelistedDomains []string
	SponsoredKeywords  []string
	OpinionURLPatterns []string
	OpinionIndicators  []string
	OpinionThreshold   int
	RecentHashTTL      time.Duration
}

// Validator runs each ContentItem through an ordered, short-circuiting
// acceptance pipeline. The content hash is committed to the dedup store only
// when every stage passes.
type Validator struct {
	cfg       ValidatorConfig
	trusted   map[string]struct{}
	store     DedupStore
	extractor *Extractor
	// recent fronts the durable store so hashes seen in this process skip a
	// round trip
	recent *gocache.Cache
}

// NewValidator creates a validator over the given dedup store.
func NewValidator(cfg ValidatorConfig, store DedupStore, extractor *Extractor) *Validator {
	if len(cfg.OpinionIndicators) == 0 {
		cfg.OpinionIndicators = defaultOpinionIndicators
	}
	if cfg.OpinionThreshold <= 0 {
		cfg.OpinionThreshold = defaultOpinionThreshold
	}
	if cfg.RecentHashTTL <= 0 {
		cfg.RecentHashTTL = 24 * time.Hour
	}

	trusted := make(map[string]struct{}, len(cfg.TrustedSources))
	for _, s := range cfg.TrustedSources {
		trusted[s] = struct{}{}
	}

	return &Validator{
		cfg:       cfg,
		trusted:   trusted,
		store:     store,
		extractor: extractor,
		recent:    gocache.New(cfg.RecentHashTTL, time.Hour),
	}
}

// ContentHash fingerprints item text for deduplication.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Validate runs the acceptance pipeline. It returns whether the item was
// accepted and, when it was not, the reason. A non-nil error means the dedup
// store failed and the item's fate is unknown; callers should drop it.
// On acceptance the item's ticker is filled in if stage 7 resolved one.
func (v *Validator) Validate(ctx context.Context, item *ingest.ContentItem) (bool, string, error) {
	source := item.Source

	// Stage 1: source trust
	if source != "" && !v.isTrustedSource(source) {
		return false, fmt.Sprintf("untrusted source: %s", source), nil
	}

	// Stage 2: URL domain whitelist, aggregators exempt
	if item.URL != "" && !source.IsAggregator() {
		domain := registrableDomain(item.URL)
		if !v.isWhitelistedDomain(domain) {
			return false, fmt.Sprintf("non-whitelisted domain: %s", domain), nil
		}
	}

	// Stage 3: duplicate detection
	text := item.Text
	if text == "" {
		text = item.Title
	}
	hash := ContentHash(text)
	if _, seen := v.recent.Get(hash); seen {
		return false, "duplicate content", nil
	}
	dup, err := v.store.Exists(ctx, hash)
	if err != nil {
		return false, "", fmt.Errorf("dedup lookup failed: %w", err)
	}
	if dup {
		v.recent.SetDefault(hash, struct{}{})
		return false, "duplicate content", nil
	}

	// Stage 4: sponsored content markers
	lower := strings.ToLower(text)
	for _, kw := range v.cfg.SponsoredKeywords {
		if strings.Contains(lower, kw) {
			return false, fmt.Sprintf("contains sponsored keyword: %s", kw), nil
		}
	}

	// Stage 5: opinion URL patterns
	if item.URL != "" {
		lowerURL := strings.ToLower(item.URL)
		for _, pattern := range v.cfg.OpinionURLPatterns {
			if strings.Contains(lowerURL, pattern) {
				return false, fmt.Sprintf("opinion URL pattern: %s", pattern), nil
			}
		}
	}

	// Stage 6: opinion language heuristic
	opinionCount := 0
	for _, indicator := range v.cfg.OpinionIndicators {
		if strings.Contains(lower, indicator) {
			opinionCount++
		}
	}
	if opinionCount >= v.cfg.OpinionThreshold {
		return false, "contains opinion language", nil
	}

	// Stage 7: ticker relevance for aggregator and general-news items
	if source.RequiresTicker() && item.Ticker == "" {
		ticker := v.extractor.ResolveTicker(text)
		if ticker == "" {
			return false, "no relevant ticker found", nil
		}
		item.Ticker = ticker
	}

	// commit happens only on acceptance
	if err := v.store.Add(ctx, hash, item.Ticker, string(source)); err != nil {
		return false, "", fmt.Errorf("dedup commit failed: %w", err)
	}
	v.recent.SetDefault(hash, struct{}{})

	return true, "valid", nil
}

func (v *Validator) isTrustedSource(source ingest.Source) bool {
	if _, ok := v.trusted[string(source)]; ok {
		return true
	}
	return source.IsAggregator() || source.IsInvestorRelations()
}

func (v *Validator) isWhitelistedDomain(domain string) bool {
	for _, w := range v.cfg.WhitelistedDomains {
		if domain == w || strings.HasSuffix(domain, "."+w) {
			return true
		}
	}
	return false
}

func registrableDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
