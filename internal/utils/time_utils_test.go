package utils

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayClock_BucketsByZone(t *testing.T) {
	clock := NewDayClock("Asia/Tokyo")
	clock.now = func() time.Time { return time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2024-03-02", clock.Today())
	assert.Equal(t, 0, clock.StartOfDay().Hour())
}

func TestDayClock_UnknownZoneFallsBackToUTC(t *testing.T) {
	clock := NewDayClock("Mars/Olympus")
	assert.Equal(t, time.UTC, clock.Location())
}

func TestDayClock_ResolveDay(t *testing.T) {
	clock := NewDayClock("UTC")
	clock.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	day, err := clock.ResolveDay("today")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), day)

	day, err = clock.ResolveDay("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", day.Format(DayLayout))

	_, err = clock.ResolveDay("yesterday")
	assert.Error(t, err)
}
