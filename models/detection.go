package models

// Detection is one object found in an uploaded image.
// BBox is x1, y1, x2, y2 in pixels of the oriented image.
type Detection struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// UploadResponse is sent back for a successful upload
type UploadResponse struct {
	Success        bool        `json:"success"`
	OutputImage    string      `json:"output_image"`
	Detections     []Detection `json:"detections"`
	DetectionCount int         `json:"detection_count"`
}

// ErrorResponse is sent back for any failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
