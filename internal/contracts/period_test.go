package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{"5d", time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)},
		{"2wk", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		{"3mo", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)},
		{"1Y", time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)},
		{"ytd", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodStart(tt.period, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "mo", "0d", "3x", "-1d"} {
		_, err := PeriodStart(bad, now)
		assert.Error(t, err, bad)
	}
}
