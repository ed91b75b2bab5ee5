// Package detection provides the typed client for the external wildlife
// detection capability. The repository contains no detection algorithm of its
// own; classification is delegated to an inference HTTP API.
package detection

import "time"

// Detection is one accepted classified object found in an image. Geometry is
// reported in the units the inference API returns, untransformed.
type Detection struct {
	Label      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Result is the outcome of one detection invocation. Detections are ordered
// as the capability returned them and contain only entries at or above the
// configured confidence threshold.
type Result struct {
	Success    bool        `json:"success"`
	Detections []Detection `json:"detections"`
	Error      string      `json:"error,omitempty"`
	ImageID    string      `json:"image_id,omitempty"`
	ModelID    string      `json:"model_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
