package processing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andrewyy141/market-intel-bot/pkg/utils"
)

// Event categories, checked in this priority order. Categories are mutually
// exclusive: the first category whose keyword set intersects the text wins.
const (
	EventEarnings   = "earnings"
	EventMA         = "ma"
	EventManagement = "management"
	EventProduct    = "product"
	EventRegulatory = "regulatory"
	EventGeneral    = "general"
)

// Entities is the structured information derived from one item's text.
type Entities struct {
	Ticker    string
	Numbers   Numbers
	EventType string
}

// Numbers holds the financial figures found in the text. Percentages keeps
// every match in order of appearance, duplicates included.
type Numbers struct {
	Revenue     *float64
	EPS         *float64
	Percentages []float64
}

var (
	revenueRe = regexp.MustCompile(`(?i)revenue[:\s]+\$?(\d+\.?\d*)\s*(billion|million|B|M)?`)
	epsRe     = regexp.MustCompile(`(?i)EPS[:\s]+\$?(\d+\.?\d*)`)
	pctRe     = regexp.MustCompile(`(\d+\.?\d*)%`)
)

var eventKeywords = []struct {
	event string
	words []string
}{
	{EventEarnings, []string{"earnings", "revenue", "eps", "profit"}},
	{EventMA, []string{"acquisition", "merger", "acquired", "bought"}},
	{EventManagement, []string{"ceo", "cfo", "executive", "appointment", "departure"}},
	{EventProduct, []string{"product", "launch", "release", "announced"}},
	{EventRegulatory, []string{"regulation", "sec", "ftc", "investigation"}},
}

type alias struct {
	name   string
	ticker string
}

// Company-name fallbacks used when no ticker appears verbatim. Only aliases
// whose ticker is on the watchlist resolve.
var defaultAliases = []alias{
	{"APPLE", "AAPL"},
	{"MICROSOFT", "MSFT"},
	{"ALPHABET", "GOOGL"},
	{"GOOGLE", "GOOGL"},
	{"AMAZON", "AMZN"},
	{"NVIDIA", "NVDA"},
	{"META", "META"},
	{"FACEBOOK", "META"},
	{"TESLA", "TSLA"},
	{"AMD", "AMD"},
	{"INTEL", "INTC"},
	{"TSMC", "TSM"},
	{"TAIWAN SEMI", "TSM"},
}

// Extractor derives Entities from free text. It is pure: no state beyond the
// watchlist it was built with.
type Extractor struct {
	watchlist []string
	members   map[string]struct{}
	tickerRes map[string]*regexp.Regexp
	aliases   []alias
}

// NewExtractor creates an extractor scoped to the given watchlist.
func NewExtractor(watchlist []string) *Extractor {
	e := &Extractor{
		watchlist: watchlist,
		members:   make(map[string]struct{}, len(watchlist)),
		tickerRes: make(map[string]*regexp.Regexp, len(watchlist)),
		aliases:   defaultAliases,
	}
	for _, t := range watchlist {
		e.members[t] = struct{}{}
		e.tickerRes[t] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
	}
	return e
}

// ResolveTicker finds a watchlist symbol in text: exact word-boundary match
// first, company-name alias second, empty string when neither hits.
func (e *Extractor) ResolveTicker(text string) string {
	upper := strings.ToUpper(text)

	for _, t := range e.watchlist {
		if e.tickerRes[t].MatchString(upper) {
			return t
		}
	}

	for _, a := range e.aliases {
		if strings.Contains(upper, a.name) {
			if _, ok := e.members[a.ticker]; ok {
				return a.ticker
			}
		}
	}

	return ""
}

// ExtractNumbers pulls financial figures out of text.
func (e *Extractor) ExtractNumbers(text string) Numbers {
	var numbers Numbers

	if m := revenueRe.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch strings.ToUpper(m[2]) {
			case "BILLION", "B":
				value *= 1e9
			case "MILLION", "M":
				value *= 1e6
			}
			numbers.Revenue = utils.ToPointer(value)
		}
	}

	if m := epsRe.FindStringSubmatch(text); m != nil {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			numbers.EPS = utils.ToPointer(value)
		}
	}

	for _, m := range pctRe.FindAllStringSubmatch(text, -1) {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			numbers.Percentages = append(numbers.Percentages, value)
		}
	}

	return numbers
}

// Extract derives all entities from text.
func (e *Extractor) Extract(text string) Entities {
	entities := Entities{
		Ticker:    e.ResolveTicker(text),
		Numbers:   e.ExtractNumbers(text),
		EventType: EventGeneral,
	}

	lower := strings.ToLower(text)
	for _, ek := range eventKeywords {
		if containsAny(lower, ek.words) {
			entities.EventType = ek.event
			break
		}
	}

	return entities
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
