package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/models"
)

// DefaultMinConfidence is the score below which detections are dropped.
const DefaultMinConfidence = 0.25

// ErrDecode is returned when the upload isn't a readable png or jpeg.
var ErrDecode = errors.New("image could not be decoded")

// Observer is told how each run went, used for metrics.
type Observer interface {
	DetectionDone(outcome string, detections int, cacheHit bool, elapsed time.Duration)
}

// Pipeline turns an uploaded image into an annotated copy and a list of
// detections with Japanese labels.
type Pipeline struct {
	detector      Detector
	cache         *Cache
	minConfidence float64
	observer      Observer
}

// NewPipeline returns a pipeline using detector. cache may be nil.
func NewPipeline(detector Detector, cache *Cache, minConfidence float64) *Pipeline {
	if minConfidence < 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Pipeline{detector: detector, cache: cache, minConfidence: minConfidence}
}

// WithObserver attaches a metrics observer.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// Close releases the cache's Redis connection.
func (p *Pipeline) Close() error {
	return p.cache.Close()
}

// Result is the outcome of one run.
type Result struct {
	Detections []models.Detection // labels translated
	Format     string
	CacheHit   bool
}

// Run decodes data, detects objects, writes the annotated image to
// outputPath and returns the detections with translated labels.
func (p *Pipeline) Run(ctx context.Context, data []byte, filename, outputPath string) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, data, filename, outputPath)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrInference):
		outcome = "inference_error"
	case err != nil:
		outcome = "error"
	}
	if p.observer != nil {
		count, hit := 0, false
		if res != nil {
			count, hit = len(res.Detections), res.CacheHit
		}
		p.observer.DetectionDone(outcome, count, hit, time.Since(start))
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, data []byte, filename, outputPath string) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// the model must see the same upright pixels the boxes are drawn on
	payload := data
	if orientation := exifOrientation(data, format); orientation != 1 {
		img = applyOrientation(img, orientation)
		buf := &bytes.Buffer{}
		if err := encode(buf, img, format); err != nil {
			return nil, fmt.Errorf("re-encode oriented image: %w", err)
		}
		payload = buf.Bytes()
		log.Debug().Int("orientation", orientation).Str("file", filename).Msg("applied exif orientation")
	}

	key, keyed := p.cache.Key(img)
	detections, hit := p.cache.Get(ctx, key)
	if !hit {
		detections, err = p.detector.Predict(ctx, payload, filename)
		if err != nil {
			return nil, err
		}
		if keyed {
			p.cache.Set(ctx, key, detections)
		}
	}

	kept := make([]models.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= p.minConfidence {
			kept = append(kept, d)
		}
	}

	annotated := Annotate(img, kept)
	if err := writeImage(outputPath, annotated, format); err != nil {
		return nil, err
	}

	translated := make([]models.Detection, len(kept))
	for i, d := range kept {
		d.Class = Translate(d.Class)
		translated[i] = d
	}

	log.Info().
		Str("file", filename).
		Int("detections", len(translated)).
		Int("dropped", len(detections)-len(kept)).
		Bool("cache_hit", hit).
		Msg("detection finished")

	return &Result{Detections: translated, Format: format, CacheHit: hit}, nil
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output image: %w", err)
	}
	if err := encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode output image: %w", err)
	}
	return f.Close()
}

func encode(w io.Writer, img image.Image, format string) error {
	if format == "png" {
		return png.Encode(w, img)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}
