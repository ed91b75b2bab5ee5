// Package alert orchestrates one full detection-to-notification cycle:
// invoke the detection capability, resolve the interested recipients, fan
// out notifications, update per-recipient counters, and produce a summary.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/detection"
	"github.com/wildwatch/wildwatch-go/internal/errors"
	"github.com/wildwatch/wildwatch-go/internal/logging"
	"github.com/wildwatch/wildwatch-go/internal/notification"
	"github.com/wildwatch/wildwatch-go/internal/observability"
)

// Summary is the structured outcome of one detection cycle. Every terminal
// state produces a summary; errors are reserved for detection and directory
// failures.
type Summary struct {
	Alert           bool                  `json:"alert"`
	Message         string                `json:"message"`
	Detections      []detection.Detection `json:"detections"`
	Location        string                `json:"location"`
	AlertsSent      int                   `json:"alertsSent"`
	TotalRecipients int                   `json:"totalRecipients"`
	Timestamp       time.Time             `json:"timestamp"`
}

// Handler runs detection cycles. It is stateless across invocations and safe
// for concurrent use; the recipient store provides per-record atomicity for
// counter updates.
type Handler struct {
	capability detection.Capability
	ds         datastore.Interface
	dispatcher *notification.Dispatcher
	location   string
	metrics    *observability.Metrics
	log        *slog.Logger
}

// New creates a handler. location is the monitored camera's location code;
// it is a fixed configured value, not derived from the image.
func New(capability detection.Capability, ds datastore.Interface, dispatcher *notification.Dispatcher, location string, metrics *observability.Metrics) *Handler {
	return &Handler{
		capability: capability,
		ds:         ds,
		dispatcher: dispatcher,
		location:   location,
		metrics:    metrics,
		log:        logging.ForService("alert"),
	}
}

// Handle runs one detection-to-notification cycle over the uploaded image.
//
// A capability failure or timeout aborts the cycle with a detection error
// before any recipient is queried. A directory failure aborts with a
// database error. Individual notification send failures never abort the
// cycle; they are absorbed into the dispatch tally.
func (h *Handler) Handle(ctx context.Context, image []byte) (*Summary, error) {
	result, err := h.capability.Detect(ctx, image)
	if err != nil {
		if h.metrics != nil {
			h.metrics.DetectionErrors.Inc()
		}
		return nil, err
	}
	if !result.Success {
		if h.metrics != nil {
			h.metrics.DetectionErrors.Inc()
		}
		return nil, errors.Newf("detection failed: %s", result.Error).
			Component("alert").
			Category(errors.CategoryDetection).
			Build()
	}

	if len(result.Detections) == 0 {
		// Normal, non-error terminal state: nothing found, nobody queried.
		if h.metrics != nil {
			h.metrics.DetectionsTotal.WithLabelValues("empty").Inc()
		}
		return &Summary{
			Alert:      false,
			Message:    "No wildlife detected in the uploaded image. Area appears safe.",
			Detections: []detection.Detection{},
			Location:   h.location,
			Timestamp:  time.Now(),
		}, nil
	}

	if h.metrics != nil {
		h.metrics.DetectionsTotal.WithLabelValues("found").Inc()
	}

	recipients, err := h.ds.RecipientsByLocation(ctx, h.location)
	if err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		return &Summary{
			Alert:      true,
			Message:    fmt.Sprintf("Wildlife detected but no recipients are registered in the monitoring area (%s).", h.location),
			Detections: result.Detections,
			Location:   h.location,
			Timestamp:  time.Now(),
		}, nil
	}

	dispatchStart := time.Now()
	dispatch := h.dispatcher.Dispatch(ctx, recipients, result.Detections, h.location)
	if h.metrics != nil {
		h.metrics.DispatchDuration.Observe(time.Since(dispatchStart).Seconds())
		h.metrics.RecipientsPerCycle.Observe(float64(dispatch.Total))
		h.metrics.AlertsSentTotal.Add(float64(dispatch.Succeeded))
		h.metrics.AlertsFailedTotal.Add(float64(dispatch.Failed))
	}

	// Counter updates apply only to recipients whose send succeeded, once
	// per recipient per dispatch cycle. A failed update is logged and does
	// not abort the cycle; the alert already went out.
	for _, id := range dispatch.Delivered {
		if err := h.ds.IncrementAlertCount(ctx, id); err != nil {
			if h.log != nil {
				h.log.Error("failed to update alert counter",
					"recipient_id", id, "error", err)
			}
		}
	}

	if h.log != nil {
		h.log.Info("wildlife alert cycle completed",
			"location", h.location,
			"detections", len(result.Detections),
			"notified", dispatch.Succeeded,
			"total_recipients", dispatch.Total)
	}

	return &Summary{
		Alert: true,
		Message: fmt.Sprintf("WILDLIFE DETECTED! %d animal(s) found. Emergency alerts sent to %d registered recipients in the monitoring area.",
			len(result.Detections), dispatch.Succeeded),
		Detections:      result.Detections,
		Location:        h.location,
		AlertsSent:      dispatch.Succeeded,
		TotalRecipients: dispatch.Total,
		Timestamp:       time.Now(),
	}, nil
}
