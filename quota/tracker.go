package quota

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// Record is the single entry kept in the quota file.
type Record struct {
	Date      string `json:"date"`
	QuotaUsed int    `json:"quota_used"`
}

// Tracker persists today's API usage to a small JSON file.
//
// Tracking is best-effort: read, parse and write failures are logged at debug
// level and otherwise ignored, so a broken quota file never blocks a search.
type Tracker struct {
	path string
	now  func() time.Time
}

// NewTracker returns a tracker backed by the file at path.
func NewTracker(path string) *Tracker {
	return &Tracker{path: path, now: time.Now}
}

// WithClock replaces the clock, mostly for tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Today is the calendar day usage is currently being counted against.
func (t *Tracker) Today() string {
	return t.now().Format(dateLayout)
}

// Load returns the usage recorded for today, or 0 when there is no record,
// the record is from another day, or the file can't be read.
func (t *Tracker) Load() int {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", t.path).Msg("quota: read failed")
		}
		return 0
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Debug().Err(err).Str("path", t.path).Msg("quota: parse failed")
		return 0
	}

	if rec.Date != t.Today() || rec.QuotaUsed < 0 {
		return 0
	}
	return rec.QuotaUsed
}

// Save overwrites the file with today's date and used.
func (t *Tracker) Save(used int) {
	if used < 0 {
		used = 0
	}
	data, err := json.MarshalIndent(Record{Date: t.Today(), QuotaUsed: used}, "", "  ")
	if err != nil {
		log.Debug().Err(err).Msg("quota: encode failed")
		return
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		log.Debug().Err(err).Str("path", t.path).Msg("quota: write failed")
	}
}
