package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wildwatch/wildwatch-go/internal/conf"
	"github.com/wildwatch/wildwatch-go/internal/errors"
	"github.com/wildwatch/wildwatch-go/internal/logging"
)

// maxImageSize is the largest image the capability accepts.
const maxImageSize = 10 * 1024 * 1024

// Capability is the external detection collaborator: it accepts image bytes
// and returns labeled detections with confidence scores.
type Capability interface {
	Detect(ctx context.Context, image []byte) (*Result, error)
}

// inferenceResponse mirrors the inference API's JSON response.
type inferenceResponse struct {
	Predictions []struct {
		Class      string  `json:"class"`
		Confidence float64 `json:"confidence"`
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
	} `json:"predictions"`
}

// Client calls a hosted inference endpoint over HTTP. It applies the
// confidence acceptance threshold at this boundary, so callers never see
// discarded predictions.
type Client struct {
	endpoint  string
	apiKey    string
	model     string
	threshold float64
	client    *http.Client
	log       *slog.Logger
}

// NewClient builds a detection client from settings.
func NewClient(settings *conf.Settings) *Client {
	return &Client{
		endpoint:  strings.TrimRight(settings.Detection.Endpoint, "/"),
		apiKey:    settings.Detection.APIKey,
		model:     settings.Detection.Model,
		threshold: settings.Detection.Threshold,
		client: &http.Client{
			Timeout: settings.Detection.Timeout,
		},
		log: logging.ForService("detection"),
	}
}

// Detect sends the image to the inference API and returns the accepted
// detections. Timeouts and transport failures are reported as detection
// errors; the caller is not expected to retry within the same cycle.
func (c *Client) Detect(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, errors.Newf("image is empty").
			Component("detection").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(image) > maxImageSize {
		return nil, errors.Newf("image too large: %d bytes (max %d)", len(image), maxImageSize).
			Component("detection").
			Category(errors.CategoryValidation).
			Context("image_size", len(image)).
			Build()
	}

	url := fmt.Sprintf("%s/%s?api_key=%s", c.endpoint, c.model, c.apiKey)
	body := base64.StdEncoding.EncodeToString(image)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryNetwork).
			Build()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		category := errors.CategoryDetection
		if isTimeout(ctx, err) {
			category = errors.CategoryTimeout
		}
		return nil, errors.Newf("inference request failed: %w", err).
			Component("detection").
			Category(category).
			Context("model", c.model).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("inference API returned status %d", resp.StatusCode).
			Component("detection").
			Category(errors.CategoryDetection).
			Context("status", resp.StatusCode).
			Context("model", c.model).
			Build()
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf("reading inference response: %w", err).
			Component("detection").
			Category(errors.CategoryDetection).
			Build()
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Newf("unmarshaling inference response: %w", err).
			Component("detection").
			Category(errors.CategoryDetection).
			Build()
	}

	result := &Result{
		Success:   true,
		ModelID:   c.model,
		Timestamp: time.Now(),
	}
	for _, p := range parsed.Predictions {
		if p.Confidence < c.threshold {
			continue
		}
		result.Detections = append(result.Detections, Detection{
			Label:      p.Class,
			Confidence: p.Confidence,
			X:          p.X,
			Y:          p.Y,
			Width:      p.Width,
			Height:     p.Height,
		})
	}

	if c.log != nil {
		c.log.Debug("detection completed",
			"model", c.model,
			"predictions", len(parsed.Predictions),
			"accepted", len(result.Detections))
	}

	return result, nil
}

// isTimeout reports whether err is a deadline expiry rather than a plain
// transport failure.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "Client.Timeout exceeded")
}
