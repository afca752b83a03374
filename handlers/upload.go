package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/detection"
	"github.com/tomsarry/tubescope/middleware"
	"github.com/tomsarry/tubescope/models"
)

// Runner is the detection pipeline as the upload handler sees it.
type Runner interface {
	Run(ctx context.Context, data []byte, filename, outputPath string) (*detection.Result, error)
}

// Uploads serves the upload form and the detection endpoint.
type Uploads struct {
	pipeline Runner
	dir      string
	maxBytes int64
	metrics  *Metrics
}

// NewUploads stores files under dir. The directory is created if needed.
func NewUploads(pipeline Runner, dir string, maxBytes int64, metrics *Metrics) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Uploads{pipeline: pipeline, dir: dir, maxBytes: maxBytes, metrics: metrics}, nil
}

// Form handles GET /.
func (u *Uploads) Form(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", gin.H{"MaxMB": u.maxBytes >> 20})
}

func (u *Uploads) fail(c *gin.Context, status int, outcome, msg string) {
	if u.metrics != nil {
		u.metrics.UploadsTotal.WithLabelValues(outcome).Inc()
	}
	c.JSON(status, models.ErrorResponse{Error: msg})
}

// Upload handles POST /upload: saves the image, runs detection and returns
// the annotated file name and the translated detections.
func (u *Uploads) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.maxBytes)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			u.fail(c, http.StatusRequestEntityTooLarge, "too_large", "File too large")
			return
		}
		// an empty file input arrives as a plain field without a filename
		if form := c.Request.MultipartForm; form != nil && len(form.Value["file"]) > 0 {
			u.fail(c, http.StatusBadRequest, "rejected", "No file selected")
			return
		}
		u.fail(c, http.StatusBadRequest, "rejected", "No file uploaded")
		return
	}
	if file.Filename == "" {
		u.fail(c, http.StatusBadRequest, "rejected", "No file selected")
		return
	}
	ext, ok := middleware.ImageExt(file.Filename)
	if !ok {
		u.fail(c, http.StatusBadRequest, "rejected", "Invalid file type")
		return
	}

	id := uuid.NewString()
	inputName := id + "_input." + ext
	outputName := id + "_output." + ext
	inputPath := filepath.Join(u.dir, inputName)

	if err := c.SaveUploadedFile(file, inputPath); err != nil {
		log.Error().Err(err).Str("file", inputName).Msg("saving upload failed")
		u.fail(c, http.StatusInternalServerError, "error", "Failed to save file")
		return
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Error().Err(err).Str("file", inputName).Msg("reading upload failed")
		u.fail(c, http.StatusInternalServerError, "error", "Failed to save file")
		return
	}

	res, err := u.pipeline.Run(c.Request.Context(), data, inputName, filepath.Join(u.dir, outputName))
	if err != nil {
		if errors.Is(err, detection.ErrDecode) {
			u.fail(c, http.StatusBadRequest, "rejected", "Invalid image file")
			return
		}
		log.Error().Err(err).Str("file", inputName).Msg("object detection failed")
		u.fail(c, http.StatusInternalServerError, "inference_error", "Object detection failed")
		return
	}

	if u.metrics != nil {
		u.metrics.UploadsTotal.WithLabelValues("ok").Inc()
	}
	c.JSON(http.StatusOK, models.UploadResponse{
		Success:        true,
		OutputImage:    outputName,
		Detections:     res.Detections,
		DetectionCount: len(res.Detections),
	})
}

// File handles GET /uploads/:filename.
func (u *Uploads) File(c *gin.Context) {
	name := c.Param("filename")
	if !middleware.ValidUploadName(name) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "File not found"})
		return
	}
	path := filepath.Join(u.dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "File not found"})
		return
	}
	c.File(path)
}
