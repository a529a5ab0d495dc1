package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownActive(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	window := 4 * time.Hour

	tests := []struct {
		name      string
		lastAlert time.Time
		want      bool
	}{
		{
			name:      "just alerted",
			lastAlert: now,
			want:      true,
		},
		{
			name:      "midway through window",
			lastAlert: now.Add(-2 * time.Hour),
			want:      true,
		},
		{
			name:      "one second before expiry",
			lastAlert: now.Add(-window + time.Second),
			want:      true,
		},
		{
			name:      "exactly at expiry",
			lastAlert: now.Add(-window),
			want:      false,
		},
		{
			name:      "long expired",
			lastAlert: now.Add(-24 * time.Hour),
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cooldownActive(tt.lastAlert, window, now))
		})
	}
}
