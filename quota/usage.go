package quota

import "github.com/tomsarry/tubescope/models"

// Usage levels shown on the quota meter.
const (
	LevelOK        = "ok"
	LevelWarning   = "warning"
	LevelExhausted = "exhausted"
)

// DefaultLimit is the daily budget the dashboard plans for.
const DefaultLimit = 9000

// warnPercent is where the meter turns yellow.
const warnPercent = 90.0

// SearchBaseCost is charged for each search.list call.
const SearchBaseCost = 100

// SearchCost estimates the units one search spent: the search call plus one unit
// per video and per channel looked up.
func SearchCost(videoCount, channelCount int) int {
	return SearchBaseCost + videoCount + channelCount
}

// Exhausted reports whether no more searches should run today.
func Exhausted(used, limit int) bool {
	return limit > 0 && used >= limit
}

// Meter builds the quota meter for used out of limit.
func Meter(used, limit int) models.QuotaUsage {
	u := models.QuotaUsage{Used: used, Limit: limit, Level: LevelOK}
	if limit <= 0 {
		return u
	}

	u.Percent = float64(used) / float64(limit) * 100
	switch {
	case u.Percent >= 100:
		u.Level = LevelExhausted
	case u.Percent >= warnPercent:
		u.Level = LevelWarning
	}
	return u
}
