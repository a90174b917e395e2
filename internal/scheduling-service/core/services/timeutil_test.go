package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidDepartureTime(t *testing.T) {
	for _, ok := range []string{"00:00", "08:30", "23:59"} {
		assert.True(t, validDepartureTime(ok), ok)
	}
	for _, bad := range []string{"24:00", "8:30", "08:60", "08:30:00", "0830", ""} {
		assert.False(t, validDepartureTime(bad), bad)
	}
}

func TestOccupiedWindow(t *testing.T) {
	start, end := occupiedWindow(monday, "08:00", 60, 30)

	assert.Equal(t, monday.Add(8*time.Hour), start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), end)
}

func TestWindowsOverlap(t *testing.T) {
	base := monday.Add(8 * time.Hour)

	// Half-open intervals: touching windows do not overlap.
	assert.False(t, windowsOverlap(base, base.Add(time.Hour), base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.True(t, windowsOverlap(base, base.Add(time.Hour), base.Add(30*time.Minute), base.Add(2*time.Hour)))
	assert.True(t, windowsOverlap(base, base.Add(time.Hour), base.Add(-time.Hour), base.Add(2*time.Hour)))
	assert.False(t, windowsOverlap(base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(3*time.Hour)))
}
