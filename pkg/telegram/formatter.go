package telegram

import (
	"fmt"
	"strings"

	"github.com/andrewyy141/market-intel-bot/internal/entity"
	"github.com/andrewyy141/market-intel-bot/pkg/utils"
)

const maxDetailsLen = 1024

var signalEmojis = map[string]string{
	"sec_filing":        "🔴",
	"insider_trade":     "💼",
	"macro_data":        "📊",
	"earnings":          "💰",
	"ma_activity":       "🤝",
	"management_change": "👔",
	"product_launch":    "🚀",
	"regulatory":        "⚖️",
	"earnings_preview":  "📅",
}

var sentimentIcons = map[string]string{
	"BULLISH": "📈",
	"BEARISH": "📉",
	"NEUTRAL": "➡️",
}

// FormatSignal renders a signal as a Telegram Markdown alert.
func FormatSignal(sig *entity.Signal) string {
	emoji, ok := signalEmojis[sig.SignalType]
	if !ok {
		emoji = "📢"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* | %s\n", emoji, sig.Ticker, titleCase(sig.SignalType))
	fmt.Fprintf(&b, "_%s_\n\n", sig.Category)
	fmt.Fprintf(&b, "*%s*\n", sig.Headline)
	if sig.Details != "" {
		fmt.Fprintf(&b, "%s\n", utils.TruncateString(sig.Details, maxDetailsLen))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Confidence: %.0f%%", sig.Confidence*100)
	if icon, ok := sentimentIcons[sig.Sentiment]; ok {
		fmt.Fprintf(&b, " | Sentiment: %s %s", icon, sig.Sentiment)
	}
	if sig.SourceURL != "" {
		fmt.Fprintf(&b, "\n[Source](%s)", sig.SourceURL)
	}
	return b.String()
}

// titleCase turns a snake_case signal type into a display label.
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
