package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/models"
)

// ErrInference wraps every failure of the model call.
var ErrInference = errors.New("object detection failed")

// Detector runs the pretrained model on an encoded image.
type Detector interface {
	Predict(ctx context.Context, image []byte, filename string) ([]models.Detection, error)
}

// ModelAdapter calls the inference service that hosts the model over HTTP.
type ModelAdapter struct {
	inferenceURL string
	healthURL    string
	client       *http.Client
}

// NewModelAdapter returns an adapter posting to inferenceURL. The health
// endpoint is /health on the same host.
func NewModelAdapter(inferenceURL string, client *http.Client) *ModelAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ModelAdapter{
		inferenceURL: inferenceURL,
		healthURL:    healthURLFor(inferenceURL),
		client:       client,
	}
}

func healthURLFor(inferenceURL string) string {
	u, err := url.Parse(inferenceURL)
	if err != nil {
		return inferenceURL
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String()
}

// predictResponse is what the inference service answers.
type predictResponse struct {
	Detections []struct {
		Class      string    `json:"class"`
		Confidence float64   `json:"confidence"`
		BBox       []float64 `json:"bbox"`
	} `json:"detections"`
}

// Predict sends the image as multipart field "file" and decodes the boxes.
func (m *ModelAdapter) Predict(ctx context.Context, image []byte, filename string) ([]models.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("%w: create form file: %v", ErrInference, err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("%w: copy image data: %v", ErrInference, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: close form: %v", ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrInference, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference service status %d", ErrInference, resp.StatusCode)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInference, err)
	}

	out := make([]models.Detection, 0, len(result.Detections))
	for _, d := range result.Detections {
		if len(d.BBox) != 4 {
			return nil, fmt.Errorf("%w: bbox has %d values", ErrInference, len(d.BBox))
		}
		out = append(out, models.Detection{
			Class:      d.Class,
			Confidence: d.Confidence,
			BBox:       [4]float64{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
		})
	}
	return out, nil
}

// CheckHealth pings the inference service once.
func (m *ModelAdapter) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// WaitReady polls CheckHealth with exponential backoff until it passes or
// tries run out. Used once at startup; uploads never retry.
func (m *ModelAdapter) WaitReady(ctx context.Context, tries uint) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := m.CheckHealth(ctx)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("inference service not ready")
		}
		return struct{}{}, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(tries), backoff.WithMaxElapsedTime(30*time.Second))
	return err
}
