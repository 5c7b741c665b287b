package domain_test

import (
	"testing"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestPoolSegment_Covers(t *testing.T) {
	t1 := time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Minute)

	closed := domain.PoolSegment{StartedAt: t1, EndedAt: &t2}
	open := domain.PoolSegment{StartedAt: t2}

	// Segments are half open, so the roll instant belongs to exactly one of
	// two adjacent segments.
	assert.False(t, closed.Covers(t1.Add(-time.Second)))
	assert.True(t, closed.Covers(t1))
	assert.True(t, closed.Covers(t1.Add(15*time.Minute)))
	assert.False(t, closed.Covers(t2))
	assert.True(t, open.Covers(t2))
	assert.True(t, open.Covers(t2.Add(12*time.Hour)))
}
