package meds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	h, m, err := ParseClockTime("8:00 AM")
	require.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 0, m)

	h, m, err = ParseClockTime("8:00 PM")
	require.NoError(t, err)
	assert.Equal(t, 20, h)
	assert.Equal(t, 0, m)

	h, m, err = ParseClockTime("12:30 PM")
	require.NoError(t, err)
	assert.Equal(t, 12, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClockTime("25:00")
	assert.Error(t, err)
}

func TestDoseAt(t *testing.T) {
	ref := time.Date(2025, 3, 10, 14, 45, 12, 0, time.UTC)

	dose, err := DoseAt(ref, "10:00 AM")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), dose)
}

func TestNextDailyDose(t *testing.T) {
	current := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	ref := time.Date(2025, 3, 10, 10, 5, 0, 0, time.UTC)

	next := NextDailyDose(current, ref)
	assert.Equal(t, time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), next)
}

func TestTimeUntil(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	// Whole hours when at least one hour remains; floored.
	assert.Equal(t, "2h", TimeUntil(now.Add(2*time.Hour+45*time.Minute), now))
	assert.Equal(t, "1h", TimeUntil(now.Add(90*time.Minute), now))

	// Minutes below one hour; floored.
	assert.Equal(t, "45m", TimeUntil(now.Add(45*time.Minute+30*time.Second), now))
	assert.Equal(t, "0m", TimeUntil(now.Add(20*time.Second), now))

	// Past doses are not specially handled.
	assert.Equal(t, "-5m", TimeUntil(now.Add(-5*time.Minute), now))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	c := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(b, c))
}

func TestSeed(t *testing.T) {
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	catalog := Seed(now)
	require.Len(t, catalog, 8)

	ids := make(map[string]bool)
	for _, m := range catalog {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
		assert.True(t, SameDay(m.NextDose, now))
		assert.GreaterOrEqual(t, m.StockCount, 0)
	}

	aspirin := catalog[0]
	assert.Equal(t, "Aspirin", aspirin.Name)
	assert.Equal(t, StatusPending, aspirin.Status)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), aspirin.NextDose)

	lipitor := catalog[2]
	assert.Equal(t, "Lipitor", lipitor.Name)
	assert.True(t, lipitor.LowStock())
}

func TestRandomColor(t *testing.T) {
	for i := 0; i < 20; i++ {
		c := RandomColor()
		assert.Contains(t, colorPalette, c)
	}
}
