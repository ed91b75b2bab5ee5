package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/detection"
	"github.com/wildwatch/wildwatch-go/internal/logging"
)

// DispatchResult is the aggregate tally of one notification fan-out.
// Succeeded+Failed always equals Total; Delivered holds the IDs of the
// recipients whose send succeeded, so the caller can apply counter updates
// to exactly that subset.
type DispatchResult struct {
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
	Delivered []uint `json:"-"`
}

// Dispatcher fans one alert out to a set of recipients concurrently.
// Individual send failures are absorbed and tallied; no recipient's outcome
// affects another's, and Dispatch always waits for every send to settle.
type Dispatcher struct {
	channel     Channel
	sendTimeout time.Duration
	log         *slog.Logger
}

// NewDispatcher creates a dispatcher over the given channel. sendTimeout
// bounds each individual send; a timed-out send counts as a failed send,
// never as a fatal error for the whole dispatch.
func NewDispatcher(channel Channel, sendTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		channel:     channel,
		sendTimeout: sendTimeout,
		log:         logging.ForService("notification"),
	}
}

// sendOutcome is one recipient's settled delivery attempt.
type sendOutcome struct {
	recipientID uint
	email       string
	err         error
}

// Dispatch sends one rendered alert to every recipient and returns the
// aggregate tally. Recipients may be empty; detections must be non-empty
// (the caller checks for the no-detections case before dispatching).
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []datastore.Recipient, detections []detection.Detection, location string) DispatchResult {
	result := DispatchResult{Total: len(recipients)}
	if len(recipients) == 0 {
		return result
	}

	dispatchID := uuid.NewString()
	sentAt := time.Now()

	outcomes := make(chan sendOutcome, len(recipients))
	var wg sync.WaitGroup
	for i := range recipients {
		r := recipients[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			sendCtx := ctx
			if d.sendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
				defer cancel()
			}

			body := RenderAlert(r.Name, location, detections, sentAt)
			err := d.channel.Send(sendCtx, r.Email, AlertTitle, body)
			outcomes <- sendOutcome{recipientID: r.ID, email: r.Email, err: err}
		}()
	}
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		if outcome.err != nil {
			result.Failed++
			if d.log != nil {
				d.log.Error("alert send failed",
					"dispatch_id", dispatchID,
					"recipient", outcome.email,
					"error", outcome.err)
			}
			continue
		}
		result.Succeeded++
		result.Delivered = append(result.Delivered, outcome.recipientID)
	}

	if d.log != nil {
		d.log.Info("alert dispatch completed",
			"dispatch_id", dispatchID,
			"location", location,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"total", result.Total)
	}

	return result
}
