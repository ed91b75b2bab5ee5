package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/detection"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeChannel records sends and fails for a configured set of recipients.
type fakeChannel struct {
	mu        sync.Mutex
	sent      []string
	failFor   map[string]bool
	delay     time.Duration
	sendCount atomic.Int32
}

func (f *fakeChannel) Send(ctx context.Context, recipientEmail, title, body string) error {
	f.sendCount.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[recipientEmail] {
		return fmt.Errorf("send failed for %s", recipientEmail)
	}
	f.sent = append(f.sent, recipientEmail)
	return nil
}

func testRecipients(n int) []datastore.Recipient {
	recipients := make([]datastore.Recipient, 0, n)
	for i := 1; i <= n; i++ {
		recipients = append(recipients, datastore.Recipient{
			ID:           uint(i),
			Name:         fmt.Sprintf("Recipient %d", i),
			Email:        fmt.Sprintf("recipient%d@example.com", i),
			LocationCode: "633800",
			IsActive:     true,
		})
	}
	return recipients
}

func testDetections() []detection.Detection {
	return []detection.Detection{
		{Label: "tiger", Confidence: 0.92},
		{Label: "leopard", Confidence: 0.45},
	}
}

func TestDispatchEmptyRecipients(t *testing.T) {
	t.Parallel()

	channel := &fakeChannel{}
	d := NewDispatcher(channel, time.Second)

	result := d.Dispatch(context.Background(), nil, testDetections(), "633800")

	assert.Equal(t, DispatchResult{Total: 0}, result)
	assert.Zero(t, channel.sendCount.Load(), "no sends should be attempted for an empty recipient set")
}

func TestDispatchAllSucceed(t *testing.T) {
	t.Parallel()

	channel := &fakeChannel{}
	d := NewDispatcher(channel, time.Second)
	recipients := testRecipients(3)

	result := d.Dispatch(context.Background(), recipients, testDetections(), "633800")

	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Delivered, 3)
	assert.ElementsMatch(t, []uint{1, 2, 3}, result.Delivered)
}

func TestDispatchPartialFailure(t *testing.T) {
	t.Parallel()

	channel := &fakeChannel{failFor: map[string]bool{
		"recipient2@example.com": true,
		"recipient4@example.com": true,
	}}
	d := NewDispatcher(channel, time.Second)
	recipients := testRecipients(5)

	result := d.Dispatch(context.Background(), recipients, testDetections(), "633800")

	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 5, result.Total)
	assert.ElementsMatch(t, []uint{1, 3, 5}, result.Delivered,
		"only recipients whose send succeeded should be reported as delivered")
}

func TestDispatchTallyInvariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		recipients int
		failures   []string
	}{
		{name: "no failures", recipients: 4},
		{name: "all fail", recipients: 3, failures: []string{"recipient1@example.com", "recipient2@example.com", "recipient3@example.com"}},
		{name: "one fails", recipients: 2, failures: []string{"recipient1@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			failFor := make(map[string]bool, len(tt.failures))
			for _, email := range tt.failures {
				failFor[email] = true
			}
			channel := &fakeChannel{failFor: failFor}
			d := NewDispatcher(channel, time.Second)

			result := d.Dispatch(context.Background(), testRecipients(tt.recipients), testDetections(), "633800")

			assert.Equal(t, result.Total, result.Succeeded+result.Failed,
				"succeeded+failed must equal total")
			assert.Len(t, result.Delivered, result.Succeeded)
		})
	}
}

func TestDispatchWaitsForAllSends(t *testing.T) {
	t.Parallel()

	// Every send is slow; a short-circuiting dispatcher would return before
	// the send count reaches the recipient count.
	channel := &fakeChannel{
		delay:   50 * time.Millisecond,
		failFor: map[string]bool{"recipient1@example.com": true},
	}
	d := NewDispatcher(channel, time.Second)
	recipients := testRecipients(4)

	start := time.Now()
	result := d.Dispatch(context.Background(), recipients, testDetections(), "633800")
	elapsed := time.Since(start)

	assert.Equal(t, int32(4), channel.sendCount.Load(), "every recipient gets exactly one send attempt")
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Failed)
	// Parallel fan-out: total time is bounded by the slowest send, not the sum.
	assert.Less(t, elapsed, 150*time.Millisecond, "sends should run concurrently")
}

func TestDispatchSendTimeoutCountsAsFailure(t *testing.T) {
	t.Parallel()

	channel := &fakeChannel{delay: 200 * time.Millisecond}
	d := NewDispatcher(channel, 20*time.Millisecond)
	recipients := testRecipients(2)

	result := d.Dispatch(context.Background(), recipients, testDetections(), "633800")

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 2, result.Total)
	assert.Empty(t, result.Delivered)
}

func TestDispatchIndependentOutcomes(t *testing.T) {
	t.Parallel()

	// One recipient's failure must not affect another's delivery.
	channel := &fakeChannel{failFor: map[string]bool{"recipient1@example.com": true}}
	d := NewDispatcher(channel, time.Second)

	result := d.Dispatch(context.Background(), testRecipients(2), testDetections(), "633800")

	require.Equal(t, 1, result.Succeeded)
	channel.mu.Lock()
	defer channel.mu.Unlock()
	assert.Equal(t, []string{"recipient2@example.com"}, channel.sent)
}
