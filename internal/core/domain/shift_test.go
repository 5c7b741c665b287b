package domain_test

import (
	"testing"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestShift_OnDutyAt(t *testing.T) {
	start := time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)

	tests := []struct {
		name  string
		shift domain.Shift
		at    time.Time
		want  bool
	}{
		{
			name:  "before clock-in",
			shift: domain.Shift{StartedAt: start},
			at:    start.Add(-time.Minute),
			want:  false,
		},
		{
			name:  "at clock-in instant",
			shift: domain.Shift{StartedAt: start},
			at:    start,
			want:  true,
		},
		{
			name:  "open shift long after clock-in",
			shift: domain.Shift{StartedAt: start},
			at:    start.Add(14 * time.Hour),
			want:  true,
		},
		{
			name:  "closed shift mid-interval",
			shift: domain.Shift{StartedAt: start, EndedAt: &end},
			at:    start.Add(3 * time.Hour),
			want:  true,
		},
		{
			// The interval is half open: the clock-out instant is off duty.
			name:  "at clock-out instant",
			shift: domain.Shift{StartedAt: start, EndedAt: &end},
			at:    end,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shift.OnDutyAt(tt.at))
		})
	}
}
