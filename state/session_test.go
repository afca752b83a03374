package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsarry/tubescope/models"
	"github.com/tomsarry/tubescope/quota"
	"github.com/tomsarry/tubescope/search"
)

type stubSearcher struct {
	result *models.SearchResult
	err    error
	calls  int
}

func (s *stubSearcher) Search(context.Context, search.Params) (*models.SearchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.result
	return &copied, nil
}

type countingRecorder struct {
	outcomes []string
	lastUsed int
}

func (r *countingRecorder) SearchDone(outcome string, _, _, used int) {
	r.outcomes = append(r.outcomes, outcome)
	r.lastUsed = used
}

func newTracker(t *testing.T) *quota.Tracker {
	return quota.NewTracker(filepath.Join(t.TempDir(), "quota_usage.json"))
}

func TestRepeatedSearchChargesSameAmount(t *testing.T) {
	tracker := newTracker(t)
	stub := &stubSearcher{result: &models.SearchResult{QuotaCharged: quota.SearchCost(20, 7)}}
	sess := NewSession(tracker, stub, 9000)

	_, err := sess.Search(context.Background(), search.Params{Query: "AI"})
	require.NoError(t, err)
	first := sess.Snapshot().Quota.Used

	_, err = sess.Search(context.Background(), search.Params{Query: "AI"})
	require.NoError(t, err)
	second := sess.Snapshot().Quota.Used

	assert.Equal(t, 127, first)
	assert.Equal(t, 100+20+7, second-first)
	assert.Equal(t, second, tracker.Load())
}

func TestSessionRestoresUsage(t *testing.T) {
	tracker := newTracker(t)
	tracker.Save(321)

	sess := NewSession(tracker, &stubSearcher{}, 9000)
	assert.Equal(t, 321, sess.Snapshot().Quota.Used)
}

func TestSearchBlockedWhenExhausted(t *testing.T) {
	tracker := newTracker(t)
	tracker.Save(9000)
	stub := &stubSearcher{result: &models.SearchResult{QuotaCharged: 150}}
	rec := &countingRecorder{}
	sess := NewSession(tracker, stub, 9000).WithRecorder(rec)

	_, err := sess.Search(context.Background(), search.Params{Query: "AI"})
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 0, stub.calls)
	assert.Equal(t, 9000, sess.Snapshot().Quota.Used)
	assert.Equal(t, quota.LevelExhausted, sess.Snapshot().Quota.Level)
	assert.Equal(t, []string{"blocked"}, rec.outcomes)
}

func TestFailedSearchChargesNothing(t *testing.T) {
	tracker := newTracker(t)
	stub := &stubSearcher{result: &models.SearchResult{QuotaCharged: 150}}
	sess := NewSession(tracker, stub, 9000)

	_, err := sess.Search(context.Background(), search.Params{Query: "AI"})
	require.NoError(t, err)
	require.NotNil(t, sess.Snapshot().Result)

	stub.err = errors.New("youtube search: status 500")
	_, err = sess.Search(context.Background(), search.Params{Query: "AI"})
	require.Error(t, err)

	snap := sess.Snapshot()
	assert.Nil(t, snap.Result)
	assert.Equal(t, 150, snap.Quota.Used)
	assert.Contains(t, snap.LastError, "status 500")
}

func TestQuotaResetsAfterMidnight(t *testing.T) {
	now := time.Date(2025, 5, 1, 23, 50, 0, 0, time.Local)
	tracker := newTracker(t).WithClock(func() time.Time { return now })
	stub := &stubSearcher{result: &models.SearchResult{QuotaCharged: 8950}}
	sess := NewSession(tracker, stub, 9000)

	_, err := sess.Search(context.Background(), search.Params{Query: "AI"})
	require.NoError(t, err)
	require.Equal(t, 8950, tracker.Load())

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 0, sess.Snapshot().Quota.Used, "new day starts from zero")

	stub.result = &models.SearchResult{QuotaCharged: 120}
	for range 2 {
		_, err = sess.Search(context.Background(), search.Params{Query: "AI"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, 240, sess.Snapshot().Quota.Used)
	assert.Equal(t, 240, tracker.Load())
}

func TestSearchAcrossMidnightChargesNewDay(t *testing.T) {
	now := time.Date(2025, 5, 1, 23, 59, 0, 0, time.Local)
	tracker := newTracker(t).WithClock(func() time.Time { return now })
	tracker.Save(8990)

	slow := searcherFunc(func() (*models.SearchResult, error) {
		now = now.Add(2 * time.Minute)
		return &models.SearchResult{QuotaCharged: 104}, nil
	})
	sess := NewSession(tracker, slow, 9000)

	_, err := sess.Search(context.Background(), search.Params{Query: "AI"})
	require.NoError(t, err)
	assert.Equal(t, 104, sess.Snapshot().Quota.Used)
	assert.Equal(t, 104, tracker.Load())
}

type searcherFunc func() (*models.SearchResult, error)

func (f searcherFunc) Search(context.Context, search.Params) (*models.SearchResult, error) {
	return f()
}
