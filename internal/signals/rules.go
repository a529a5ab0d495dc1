package signals

import (
	"fmt"
	"math"
	"strings"

	"github.com/andrewyy141/market-intel-bot/internal/ingest"
	"github.com/andrewyy141/market-intel-bot/internal/processing"
)

// Signal types emitted by the rules engine.
const (
	TypeSECFiling        = "sec_filing"
	TypeInsiderTrade     = "insider_trade"
	TypeMacroData        = "macro_data"
	TypeEarnings         = "earnings"
	TypeMAActivity       = "ma_activity"
	TypeManagementChange = "management_change"
	TypeProductLaunch    = "product_launch"
	TypeRegulatory       = "regulatory"
	TypeEarningsPreview  = "earnings_preview"
)

// macro series moves below this magnitude are noise
const macroChangeThreshold = 0.3

// RuleResult is the outcome of the first matching rule.
type RuleResult struct {
	SignalType     string
	Category       string
	BaseConfidence float64
	Context        string
}

// Rule is a single detection predicate. Nil means no match.
type Rule struct {
	Name     string
	Evaluate func(content *ingest.ContentItem, entities processing.Entities) *RuleResult
}

// Engine evaluates rules as an explicit ordered list: evaluation stops at the
// first match, so earlier rules always win ties. A map would lose that
// ordering.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the default rule set.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// Evaluate runs content through the rule list and returns the first match,
// or nil when no rule fires.
func (e *Engine) Evaluate(content *ingest.ContentItem, entities processing.Entities) *RuleResult {
	for _, rule := range e.rules {
		if result := rule.Evaluate(content, entities); result != nil {
			return result
		}
	}
	return nil
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name: "material-event-filing",
			Evaluate: func(content *ingest.ContentItem, _ processing.Entities) *RuleResult {
				if content.Source != ingest.SourceSEC || content.FilingType != "8-K" {
					return nil
				}
				category := content.Category
				if category == "" {
					category = "Material Event"
				}
				return &RuleResult{
					SignalType:     TypeSECFiling,
					Category:       "Micro → " + category,
					BaseConfidence: 0.95,
					Context:        "8-K filing indicates material corporate event",
				}
			},
		},
		{
			Name: "insider-transaction-filing",
			Evaluate: func(content *ingest.ContentItem, _ processing.Entities) *RuleResult {
				if content.Source != ingest.SourceSEC || content.FilingType != "4" {
					return nil
				}
				return &RuleResult{
					SignalType:     TypeInsiderTrade,
					Category:       "Micro → Management Action",
					BaseConfidence: 0.90,
					Context:        "Insider transaction reported",
				}
			},
		},
		{
			Name: "macro-series-move",
			Evaluate: func(content *ingest.ContentItem, _ processing.Entities) *RuleResult {
				if content.Source != ingest.SourceFRED || content.ChangePct == nil {
					return nil
				}
				changePct := *content.ChangePct
				if math.Abs(changePct) <= macroChangeThreshold {
					return nil
				}
				return &RuleResult{
					SignalType:     TypeMacroData,
					Category:       "Macro → " + content.SeriesName,
					BaseConfidence: 0.85,
					Context:        fmt.Sprintf("%s changed %+.1f%%", content.SeriesName, changePct),
				}
			},
		},
		{
			Name: "earnings-surprise",
			Evaluate: func(content *ingest.ContentItem, _ processing.Entities) *RuleResult {
				if content.EventType != ingest.EventEarningsResult {
					return nil
				}
				surprisePct := 0.0
				if content.SurprisePct != nil {
					surprisePct = *content.SurprisePct
				}
				switch {
				case math.Abs(surprisePct) >= 10:
					direction := "Beat"
					if surprisePct < 0 {
						direction = "Miss"
					}
					return &RuleResult{
						SignalType:     TypeEarnings,
						Category:       "Micro → Earnings",
						BaseConfidence: 0.90,
						Context:        fmt.Sprintf("%s by %.1f%%", direction, math.Abs(surprisePct)),
					}
				case math.Abs(surprisePct) >= 5:
					return &RuleResult{
						SignalType:     TypeEarnings,
						Category:       "Micro → Earnings",
						BaseConfidence: 0.80,
						Context:        fmt.Sprintf("Earnings surprise %+.1f%%", surprisePct),
					}
				default:
					return nil
				}
			},
		},
		{
			Name: "ma-activity",
			Evaluate: func(content *ingest.ContentItem, entities processing.Entities) *RuleResult {
				if entities.EventType != processing.EventMA {
					return nil
				}
				if !textContainsAny(content, "acquires", "acquisition", "merger", "acquired") {
					return nil
				}
				return &RuleResult{
					SignalType:     TypeMAActivity,
					Category:       "Micro → Competition & M&A",
					BaseConfidence: 0.85,
					Context:        "M&A activity detected",
				}
			},
		},
		{
			Name: "management-change",
			Evaluate: func(content *ingest.ContentItem, entities processing.Entities) *RuleResult {
				if entities.EventType != processing.EventManagement {
					return nil
				}
				if !textContainsAny(content, "ceo", "chief executive", "president") {
					return nil
				}
				return &RuleResult{
					SignalType:     TypeManagementChange,
					Category:       "Micro → Management Change",
					BaseConfidence: 0.85,
					Context:        "Executive leadership change",
				}
			},
		},
		{
			Name: "product-announcement",
			Evaluate: func(content *ingest.ContentItem, _ processing.Entities) *RuleResult {
				if !content.Source.IsInvestorRelations() {
					return nil
				}
				if !textContainsAny(content, "announces", "launches", "introduces", "unveils") {
					return nil
				}
				return &RuleResult{
					SignalType:     TypeProductLaunch,
					Category:       "Micro → Innovation",
					BaseConfidence: 0.80,
					Context:        "New product/service announcement",
				}
			},
		},
		{
			Name: "regulatory-action",
			Evaluate: func(content *ingest.ContentItem, entities processing.Entities) *RuleResult {
				if entities.EventType != processing.EventRegulatory {
					return nil
				}
				if !textContainsAny(content, "sec", "ftc", "investigation", "lawsuit", "settlement") {
					return nil
				}
				return &RuleResult{
					SignalType:     TypeRegulatory,
					Category:       "Micro → Regulation",
					BaseConfidence: 0.85,
					Context:        "Regulatory action detected",
				}
			},
		},
		{
			Name: "earnings-preview",
			Evaluate: func(content *ingest.ContentItem, _ processing.Entities) *RuleResult {
				if content.EventType != ingest.EventEarningsUpcoming {
					return nil
				}
				scheduled := "soon"
				if content.EarningsDate != nil {
					scheduled = content.EarningsDate.Format("2006-01-02")
				}
				return &RuleResult{
					SignalType:     TypeEarningsPreview,
					Category:       "Micro → Earnings",
					BaseConfidence: 0.75,
					Context:        fmt.Sprintf("Earnings scheduled for %s", scheduled),
				}
			},
		},
	}
}

func textContainsAny(content *ingest.ContentItem, words ...string) bool {
	lower := strings.ToLower(content.Text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
