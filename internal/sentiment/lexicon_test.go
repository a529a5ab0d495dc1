package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconDirection(t *testing.T) {
	a := NewLexiconAnalyzer()

	tests := []struct {
		name string
		text string
		want Direction
	}{
		{"bullish", "Company beats estimates with record growth", Bullish},
		{"bearish", "Shares plunge after earnings miss and layoffs", Bearish},
		{"no hits", "Company files annual report", Neutral},
		{"tie is neutral", "Record quarter but guidance cuts spook investors", Neutral},
		{"case insensitive", "STRONG RALLY continues", Bullish},
		{"empty text", "", Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Direction(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
