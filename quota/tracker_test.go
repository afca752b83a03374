package quota

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(day string) func() time.Time {
	return func() time.Time {
		ts, _ := time.ParseInLocation(dateLayout, day, time.Local)
		return ts.Add(10 * time.Hour)
	}
}

func TestTrackerSaveThenLoadSameDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota_usage.json")
	tr := NewTracker(path).WithClock(fixedClock("2025-06-01"))

	tr.Save(500)
	assert.Equal(t, 500, tr.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-06-01","quota_used":500}`, string(data))
}

func TestTrackerResetsOnNewDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota_usage.json")
	NewTracker(path).WithClock(fixedClock("2025-06-01")).Save(500)

	next := NewTracker(path).WithClock(fixedClock("2025-06-02"))
	assert.Equal(t, "2025-06-02", next.Today())
	assert.Equal(t, 0, next.Load())
}

func TestTrackerMissingFile(t *testing.T) {
	tr := NewTracker(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, 0, tr.Load())
}

func TestTrackerCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota_usage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Equal(t, 0, NewTracker(path).Load())
}

func TestTrackerSaveToUnwritablePathIsSilent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "quota_usage.json")
	tr := NewTracker(path)

	assert.NotPanics(t, func() { tr.Save(10) })
	assert.Equal(t, 0, tr.Load())
}

func TestTrackerOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota_usage.json")
	tr := NewTracker(path).WithClock(fixedClock("2025-06-01"))

	tr.Save(100)
	tr.Save(250)
	assert.Equal(t, 250, tr.Load())
}
