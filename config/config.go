package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting for both the dashboard and the detector.
type Config struct {
	Environment string
	LogLevel    string
	CORSOrigins []string

	// dashboard
	Port             string
	YouTubeAPIKey    string
	YouTubeAPIBase   string
	HTTPTimeout      time.Duration
	QuotaFile        string
	QuotaLimit       int
	TargetRegion     string
	TargetLanguage   string
	SearchMaxResults int

	// detector
	DetectorPort        string
	UploadDir           string
	MaxUploadBytes      int64
	InferenceURL        string
	DetectMinConfidence float64
	DetectCacheTTL      time.Duration
	RedisURL            string
	UploadRatePerMin    int
}

// Load reads the .env file if there is one and then the environment.
func Load() *Config {
	// a missing .env is fine, real env vars win anyway
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		Port:             getEnv("PORT", "8501"),
		YouTubeAPIKey:    getEnv("YOUTUBE_API_KEY", os.Getenv("API_KEY")),
		YouTubeAPIBase:   getEnv("YOUTUBE_API_BASE", ""),
		HTTPTimeout:      getDuration("HTTP_TIMEOUT", 15*time.Second),
		QuotaFile:        getEnv("QUOTA_FILE", "quota_usage.json"),
		QuotaLimit:       getInt("QUOTA_LIMIT", 9000),
		TargetRegion:     strings.ToUpper(getEnv("TARGET_REGION", "JP")),
		TargetLanguage:   strings.ToLower(getEnv("TARGET_LANGUAGE", "ja")),
		SearchMaxResults: getInt("SEARCH_MAX_RESULTS", 50),

		DetectorPort:        getEnv("DETECTOR_PORT", "5000"),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:      int64(getInt("MAX_UPLOAD_MB", 16)) << 20,
		InferenceURL:        getEnv("INFERENCE_URL", "http://localhost:5001/predict"),
		DetectMinConfidence: getFloat("DETECT_MIN_CONFIDENCE", 0.25),
		DetectCacheTTL:      getDuration("DETECT_CACHE_TTL", 10*time.Minute),
		RedisURL:            getEnv("REDIS_URL", ""),
		UploadRatePerMin:    getInt("UPLOAD_RATE_PER_MIN", 30),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("30s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
