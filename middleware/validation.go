package middleware

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MaxVideoIDLen bounds the ?v= player parameter.
const MaxVideoIDLen = 16

var (
	// videoIDRe matches YouTube video IDs: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// uploadNameRe matches the names the detector writes: <uuid>_(input|output).<ext>.
	uploadNameRe = regexp.MustCompile(`^[0-9a-f-]{36}_(input|output)\.(png|jpg|jpeg)$`)
)

var allowedImageExt = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// ValidateVideoID checks that a video ID is well-formed. It returns the
// trimmed ID, or an error message.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ImageExt returns the lower-cased extension of filename without the dot
// and whether it's one the detector accepts.
func ImageExt(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext, allowedImageExt[ext]
}

// ValidUploadName reports whether name is a file the detector could have
// written. Anything else, including path separators and "..", is refused.
func ValidUploadName(name string) bool {
	return uploadNameRe.MatchString(name)
}
