package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/andrewyy141/market-intel-bot/internal/entity"
	"github.com/andrewyy141/market-intel-bot/internal/ingest"
	"github.com/andrewyy141/market-intel-bot/internal/processing"
	"github.com/andrewyy141/market-intel-bot/internal/sentiment"
	"github.com/andrewyy141/market-intel-bot/pkg/logger"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"
)

// trustMultiplier boosts confidence for primary sources before clamping.
const trustMultiplier = 1.1

const maxHeadlineLen = 100

// Detector turns validated content into scored signals. Content that matches
// no rule, resolves no ticker, or scores below the configured minimum yields
// nil.
type Detector struct {
	rules         *Engine
	extractor     *processing.Extractor
	analyzer      sentiment.Analyzer
	log           *logger.Logger
	minConfidence float64
	boostSources  map[ingest.Source]struct{}
}

func NewDetector(rules *Engine, extractor *processing.Extractor, analyzer sentiment.Analyzer, log *logger.Logger, minConfidence float64) *Detector {
	return &Detector{
		rules:         rules,
		extractor:     extractor,
		analyzer:      analyzer,
		log:           log,
		minConfidence: minConfidence,
		boostSources: map[ingest.Source]struct{}{
			ingest.SourceSEC:       {},
			ingest.SourceFRED:      {},
			ingest.SourceCompanyIR: {},
		},
	}
}

// Detect evaluates a single content item and returns a signal ready for
// persistence, or nil when the item does not qualify.
func (d *Detector) Detect(ctx context.Context, content *ingest.ContentItem) *entity.Signal {
	entities := d.extractor.Extract(content.Title + " " + content.Text)

	ticker := content.Ticker
	if ticker == "" {
		ticker = entities.Ticker
	}
	if ticker == "" {
		return nil
	}

	result := d.rules.Evaluate(content, entities)
	if result == nil {
		return nil
	}

	confidence := result.BaseConfidence
	if _, ok := d.boostSources[content.Source]; ok {
		confidence *= trustMultiplier
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < d.minConfidence {
		d.log.Debug("signal below confidence threshold",
			logger.StringField("ticker", ticker),
			logger.StringField("signal_type", result.SignalType),
			logger.Float64Field("confidence", confidence))
		return nil
	}

	direction, err := d.analyzer.Direction(ctx, content.Title+" "+content.Text)
	if err != nil {
		d.log.Warn("sentiment analysis failed, defaulting to neutral",
			logger.StringField("ticker", ticker),
			logger.ErrorField(err))
		direction = sentiment.Neutral
	}

	return &entity.Signal{
		Ticker:     ticker,
		SignalType: result.SignalType,
		Category:   result.Category,
		Headline:   utils.TruncateString(content.Title, maxHeadlineLen),
		Details:    buildDetails(content, entities, result),
		Confidence: confidence,
		Sentiment:  string(direction),
		Timestamp:  content.Timestamp,
		SourceURL:  content.URL,
		Data:       buildPayload(content, entities, result),
	}
}

func buildDetails(content *ingest.ContentItem, entities processing.Entities, result *RuleResult) string {
	var parts []string
	if entities.Numbers.Revenue != nil {
		parts = append(parts, fmt.Sprintf("Revenue $%.1fB", *entities.Numbers.Revenue/1e9))
	}
	if entities.Numbers.EPS != nil {
		parts = append(parts, fmt.Sprintf("EPS $%.2f", *entities.Numbers.EPS))
	}
	if result.Context != "" {
		parts = append(parts, result.Context)
	}
	if len(parts) > 0 {
		if content.Text != "" {
			parts = append(parts, utils.TruncateString(content.Text, 200))
		}
		return strings.Join(parts, " | ")
	}
	return utils.TruncateString(content.Text, 300)
}

func buildPayload(content *ingest.ContentItem, entities processing.Entities, result *RuleResult) datatypes.JSON {
	payload := map[string]any{
		"source":     string(content.Source),
		"event_type": entities.EventType,
		"context":    result.Context,
	}
	if entities.Numbers.Revenue != nil {
		payload["revenue"] = *entities.Numbers.Revenue
	}
	if entities.Numbers.EPS != nil {
		payload["eps"] = *entities.Numbers.EPS
	}
	if len(entities.Numbers.Percentages) > 0 {
		payload["percentages"] = entities.Numbers.Percentages
	}
	if content.FilingType != "" {
		payload["filing_type"] = content.FilingType
	}
	if content.SeriesID != "" {
		payload["series_id"] = content.SeriesID
	}
	if content.SurprisePct != nil {
		payload["surprise_pct"] = *content.SurprisePct
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(raw)
}
