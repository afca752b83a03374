package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/config"
	"github.com/tomsarry/tubescope/detection"
	"github.com/tomsarry/tubescope/handlers"
	"github.com/tomsarry/tubescope/locale"
	"github.com/tomsarry/tubescope/middleware"
	"github.com/tomsarry/tubescope/quota"
	"github.com/tomsarry/tubescope/search"
	"github.com/tomsarry/tubescope/state"
	"github.com/tomsarry/tubescope/youtube"
)

const usage = "usage: tubescope [dashboard|detector]"

func main() {
	mode := "dashboard"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "tubescope-"+mode, cfg.Environment == "development")
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		router *gin.Engine
		port   string
		closer io.Closer
		err    error
	)
	switch mode {
	case "dashboard":
		router, err = dashboard(cfg)
		port = cfg.Port
	case "detector":
		router, port, closer, err = detector(cfg)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", mode).Msg("startup failed")
	}

	err = serve(router, port)
	if closer != nil {
		if cerr := closer.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close failed")
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func dashboard(cfg *config.Config) (*gin.Engine, error) {
	client, err := youtube.NewClient(cfg.YouTubeAPIKey, cfg.YouTubeAPIBase, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, err
	}
	if !client.HasKey() {
		log.Warn().Msg("YOUTUBE_API_KEY is not set, searches will fail")
	}

	classifier := locale.NewClassifier(cfg.TargetRegion, cfg.TargetLanguage)
	service := search.NewService(client, classifier, cfg.SearchMaxResults)

	metrics := handlers.NewMetrics("tubescope")
	session := state.NewSession(quota.NewTracker(cfg.QuotaFile), service, cfg.QuotaLimit).WithRecorder(metrics)
	snap := session.Snapshot()
	metrics.QuotaUsed.Set(float64(snap.Quota.Used))
	log.Info().Int("used", snap.Quota.Used).Int("limit", snap.Quota.Limit).Str("file", cfg.QuotaFile).Msg("quota restored")

	health := handlers.NewHealth(map[string]handlers.Checker{
		"youtube_api_key": handlers.CheckFunc(func(context.Context) error {
			if !client.HasKey() {
				return youtube.ErrMissingAPIKey
			}
			return nil
		}),
	})

	d := handlers.NewDashboard(session, client.HasKey(), service.MaxResults(), 4*cfg.HTTPTimeout)
	return handlers.NewDashboardRouter(d, health, metrics, cfg.CORSOrigins), nil
}

// detector builds the upload app. The returned closer releases the detection
// cache once the server has stopped.
func detector(cfg *config.Config) (*gin.Engine, string, io.Closer, error) {
	adapter := detection.NewModelAdapter(cfg.InferenceURL, &http.Client{Timeout: 60 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := adapter.WaitReady(ctx, 5); err != nil {
		log.Warn().Err(err).Str("url", cfg.InferenceURL).Msg("inference service not ready, uploads will fail until it is")
	}
	cancel()

	metrics := handlers.NewMetrics("detector")
	cache := detection.NewCache(cfg.RedisURL, cfg.DetectCacheTTL)
	pipeline := detection.NewPipeline(adapter, cache, cfg.DetectMinConfidence).WithObserver(metrics)

	uploads, err := handlers.NewUploads(pipeline, cfg.UploadDir, cfg.MaxUploadBytes, metrics)
	if err != nil {
		_ = pipeline.Close()
		return nil, "", nil, fmt.Errorf("upload dir %s: %w", cfg.UploadDir, err)
	}

	health := handlers.NewHealth(map[string]handlers.Checker{"inference": adapter})
	limiter := middleware.NewRateLimiter(cfg.UploadRatePerMin)
	return handlers.NewDetectorRouter(uploads, limiter, health, metrics, cfg.CORSOrigins), cfg.DetectorPort, pipeline, nil
}

func serve(router *gin.Engine, port string) error {
	log.Info().Str("addr", ":"+port).Msg("listening")
	return router.Run(":" + port)
}
