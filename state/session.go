package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomsarry/tubescope/models"
	"github.com/tomsarry/tubescope/quota"
	"github.com/tomsarry/tubescope/search"
)

// ErrQuotaExhausted is returned when today's budget is already spent.
var ErrQuotaExhausted = errors.New("quota limit reached, searches are blocked until tomorrow")

// Searcher is the orchestrator the session drives.
type Searcher interface {
	Search(ctx context.Context, p search.Params) (*models.SearchResult, error)
}

// Recorder receives the outcome of each search, used for metrics.
type Recorder interface {
	SearchDone(outcome string, charged, excluded, used int)
}

// Session is the dashboard's single application state: quota counters and
// the last search. Searches hold the lock for their whole run so only one
// user action is in flight at a time.
type Session struct {
	mu sync.Mutex

	tracker  *quota.Tracker
	searcher Searcher
	recorder Recorder

	quotaUsed  int
	quotaLimit int
	quotaDay   string

	lastResult *models.SearchResult
	lastParams search.Params
	lastError  string
	lastSearch time.Time
}

// NewSession restores today's usage from the tracker.
func NewSession(tracker *quota.Tracker, searcher Searcher, limit int) *Session {
	if limit <= 0 {
		limit = quota.DefaultLimit
	}
	return &Session{
		tracker:    tracker,
		searcher:   searcher,
		quotaUsed:  tracker.Load(),
		quotaLimit: limit,
		quotaDay:   tracker.Today(),
	}
}

// rollover reloads usage from the tracker once the day has changed, so the
// counter starts again from zero after midnight without a restart.
// Callers hold s.mu.
func (s *Session) rollover() {
	if day := s.tracker.Today(); day != s.quotaDay {
		s.quotaUsed = s.tracker.Load()
		s.quotaDay = day
	}
}

// WithRecorder attaches a metrics recorder.
func (s *Session) WithRecorder(r Recorder) *Session {
	s.recorder = r
	return s
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	Quota      models.QuotaUsage
	Result     *models.SearchResult
	Params     search.Params
	LastError  string
	LastSearch time.Time
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover()
	return Snapshot{
		Quota:      quota.Meter(s.quotaUsed, s.quotaLimit),
		Result:     s.lastResult,
		Params:     s.lastParams,
		LastError:  s.lastError,
		LastSearch: s.lastSearch,
	}
}

// Search runs one search and charges its estimated cost. A failed search
// clears the previous results and charges nothing.
func (s *Session) Search(ctx context.Context, p search.Params) (*models.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover()
	s.lastParams = p
	if quota.Exhausted(s.quotaUsed, s.quotaLimit) {
		s.lastError = ErrQuotaExhausted.Error()
		s.record("blocked", 0, 0)
		return nil, ErrQuotaExhausted
	}

	// results of the previous search are dropped before the new one runs
	s.lastResult = nil
	s.lastError = ""

	res, err := s.searcher.Search(ctx, p)
	s.lastSearch = time.Now()
	if err != nil {
		s.lastError = err.Error()
		s.record("error", 0, 0)
		return nil, err
	}

	s.rollover()
	if res.QuotaCharged > 0 {
		s.quotaUsed += res.QuotaCharged
		s.tracker.Save(s.quotaUsed)
	}
	s.lastResult = res
	s.record("ok", res.QuotaCharged, res.Stats.FilteredChannels)
	return res, nil
}

func (s *Session) record(outcome string, charged, excluded int) {
	if s.recorder != nil {
		s.recorder.SearchDone(outcome, charged, excluded, s.quotaUsed)
	}
}
