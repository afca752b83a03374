package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsarry/tubescope/detection"
	"github.com/tomsarry/tubescope/middleware"
	"github.com/tomsarry/tubescope/models"
)

type stubDetector struct {
	detections []models.Detection
	err        error
}

func (s *stubDetector) Predict(context.Context, []byte, string) ([]models.Detection, error) {
	return s.detections, s.err
}

type uploadFixture struct {
	router *gin.Engine
	dir    string
}

func newUploadFixture(t *testing.T, det detection.Detector, maxBytes int64) *uploadFixture {
	dir := filepath.Join(t.TempDir(), "uploads")
	metrics := NewMetrics("detector")
	pipeline := detection.NewPipeline(det, nil, detection.DefaultMinConfidence).WithObserver(metrics)

	uploads, err := NewUploads(pipeline, dir, maxBytes, metrics)
	require.NoError(t, err)

	health := NewHealth(map[string]Checker{
		"inference": CheckFunc(func(context.Context) error { return nil }),
	})
	r := NewDetectorRouter(uploads, middleware.NewRateLimiter(0), health, metrics, nil)
	return &uploadFixture{router: r, dir: dir}
}

func pngImage(t *testing.T, w, h int) []byte {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// multipartBody builds a form with a single "file" part. An empty filename
// mimics a browser submitting the form without picking a file.
func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "x"))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (f *uploadFixture) upload(t *testing.T, field, filename string, data []byte) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, field, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *uploadFixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error
}

func TestUploadDetects(t *testing.T) {
	det := &stubDetector{detections: []models.Detection{
		{Class: "dog", Confidence: 0.91, BBox: [4]float64{2, 2, 20, 20}},
		{Class: "cat", Confidence: 0.1, BBox: [4]float64{1, 1, 4, 4}},
	}}
	f := newUploadFixture(t, det, 16<<20)

	w := f.upload(t, "file", "photo.PNG", pngImage(t, 32, 32))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.DetectionCount)
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, "犬", resp.Detections[0].Class)
	assert.Equal(t, [4]float64{2, 2, 20, 20}, resp.Detections[0].BBox)
	assert.Regexp(t, `^[0-9a-f-]{36}_output\.png$`, resp.OutputImage)

	input := resp.OutputImage[:36] + "_input.png"
	assert.FileExists(t, filepath.Join(f.dir, input))
	assert.FileExists(t, filepath.Join(f.dir, resp.OutputImage))

	img := f.get("/uploads/" + resp.OutputImage)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/png", img.Header().Get("Content-Type"))
}

func TestUploadRejects(t *testing.T) {
	f := newUploadFixture(t, &stubDetector{}, 16<<20)

	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
		want     string
	}{
		{"no file part", "", "", nil, "No file uploaded"},
		{"empty selection", "file", "", nil, "No file selected"},
		{"wrong extension", "file", "notes.txt", []byte("hello"), "Invalid file type"},
		{"not an image", "file", "fake.jpg", []byte("hello"), "Invalid image file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.upload(t, tt.field, tt.filename, tt.data)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorOf(t, w))
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	f := newUploadFixture(t, &stubDetector{}, 1024)

	w := f.upload(t, "file", "big.png", bytes.Repeat([]byte{0xff}, 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "File too large", errorOf(t, w))
}

func TestUploadInferenceFailure(t *testing.T) {
	det := &stubDetector{err: fmt.Errorf("%w: inference service status 500", detection.ErrInference)}
	f := newUploadFixture(t, det, 16<<20)

	w := f.upload(t, "file", "photo.png", pngImage(t, 8, 8))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Object detection failed", errorOf(t, w))

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "_output", "no annotated image on failure")
	}
}

func TestServeUploadRejectsTraversal(t *testing.T) {
	f := newUploadFixture(t, &stubDetector{}, 16<<20)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(f.dir), "secret.txt"), []byte("x"), 0o644))

	for _, path := range []string{
		"/uploads/..%2Fsecret.txt",
		"/uploads/secret.txt",
		"/uploads/3f2b8c1e-9a4d-4e6f-8b21-0c5d7e9f1a2b_output.png",
	} {
		w := f.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestUploadFormAndHealth(t *testing.T) {
	f := newUploadFixture(t, &stubDetector{}, 16<<20)

	form := f.get("/")
	assert.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), "16MBまで")

	h := f.get("/health")
	assert.Equal(t, http.StatusOK, h.Code)
	assert.Contains(t, h.Body.String(), `"inference":{"latency_ms"`)
}

func TestHealthDegraded(t *testing.T) {
	health := NewHealth(map[string]Checker{
		"inference": CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	r := gin.New()
	r.GET("/health", health.Handle)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestUploadMetrics(t *testing.T) {
	f := newUploadFixture(t, &stubDetector{}, 16<<20)
	f.upload(t, "file", "notes.txt", []byte("x"))
	f.upload(t, "file", "a.png", pngImage(t, 4, 4))

	body := f.get("/metrics").Body.String()
	assert.Contains(t, body, `detector_uploads_total{outcome="rejected"} 1`)
	assert.Contains(t, body, `detector_uploads_total{outcome="ok"} 1`)
}
