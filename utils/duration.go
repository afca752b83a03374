package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// UnknownDuration is shown when a duration token can't be read.
const UnknownDuration = "unknown"

// durationRegex only covers the time part: the API never sends years or months
// for regular uploads, and live streams come back as P0D.
var durationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseInt64 returns the int64 representation of a given string
func parseInt64(value string) int64 {
	if len(value) == 0 {
		return 0
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// splitDuration converts an ISO8601 token to its hour, minute and second parts
func splitDuration(str string) (hours, minutes, seconds int64, ok bool) {
	matches := durationRegex.FindStringSubmatch(str)
	if matches == nil {
		return 0, 0, 0, false
	}

	return parseInt64(matches[1]), parseInt64(matches[2]), parseInt64(matches[3]), true
}

// ParseDuration converts a video duration token such as PT4M13S to a time.Duration.
func ParseDuration(str string) (time.Duration, bool) {
	h, m, s, ok := splitDuration(str)
	if !ok {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, true
}

// FormatDuration renders a duration token as a clock string: H:MM:SS when
// there are hours, M:SS otherwise. Empty or malformed tokens give UnknownDuration.
func FormatDuration(str string) string {
	if str == "" {
		return UnknownDuration
	}

	hours, minutes, seconds, ok := splitDuration(str)
	if !ok {
		return UnknownDuration
	}

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
